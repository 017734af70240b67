// Package repository provides data access over the MongoDB collections
// backing the marketplace: rooms, bids, users, service requests and the
// cleared list. Sentinel errors defined here let handlers and the
// auction engine distinguish failure scenarios without inspecting
// driver errors directly.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no document. Handlers
// translate this into HTTP 404; the auction engine translates it into
// a room-not-found rejection.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a create would violate a uniqueness
// rule, such as reusing a room code or filing a second open service
// request for the same email. Handlers translate this into HTTP 409.
var ErrDuplicate = errors.New("already exists")
