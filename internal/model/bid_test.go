package model

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestNormalizeRoomCode(t *testing.T) {
    tests := []struct {
        in   string
        want string
    }{
        {"field1", "FIELD1"},
        {"  Field1  ", "FIELD1"},
        {"FIELD1", "FIELD1"},
        {"   ", ""},
        {"", ""},
    }
    for _, tc := range tests {
        assert.Equal(t, tc.want, NormalizeRoomCode(tc.in), "input %q", tc.in)
    }
}

func TestUserBidderAnonymousFallback(t *testing.T) {
    b := UserBidder("u1", "")
    assert.Equal(t, "Anonymous", b.DisplayName)

    b = UserBidder("u1", "  ")
    assert.Equal(t, "Anonymous", b.DisplayName)

    b = UserBidder("u1", "Farmer Singh")
    assert.Equal(t, "Farmer Singh", b.DisplayName)
}

func TestBidderEqual(t *testing.T) {
    a := UserBidder("u1", "Alice")
    b := UserBidder("u1", "Alice (renamed)")
    c := UserBidder("u2", "Alice")

    assert.True(t, a.Equal(b), "same kind and id match regardless of display name")
    assert.False(t, a.Equal(c))
    assert.False(t, a.Equal(SystemBidder()), "a user never equals the system identity")
}

func TestSystemBidder(t *testing.T) {
    s := SystemBidder()
    assert.True(t, s.IsSystem())
    assert.False(t, UserBidder("admin", "Admin").IsSystem(), "kind decides, not the id")
}

func TestRoomOpenAt(t *testing.T) {
    end := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
    r := Room{EndDate: end}

    assert.True(t, r.OpenAt(end.Add(-time.Second)))
    assert.False(t, r.OpenAt(end), "the end date itself is closed")
    assert.False(t, r.OpenAt(end.Add(time.Second)))
}

func TestRoomRemainingClamped(t *testing.T) {
    end := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
    r := Room{EndDate: end}

    assert.Equal(t, time.Minute, r.Remaining(end.Add(-time.Minute)))
    assert.Equal(t, time.Duration(0), r.Remaining(end))
    assert.Equal(t, time.Duration(0), r.Remaining(end.Add(time.Hour)))
}
