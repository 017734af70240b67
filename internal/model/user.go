package model

import (
    "time"

    "go.mongodb.org/mongo-driver/bson/primitive"
)

// Role names accepted by the role middleware. Farmers file service
// requests, companies bid in auction rooms, admins create rooms and
// clear requests.
const (
    RoleFarmer  = "FARMER"
    RoleCompany = "COMPANY"
    RoleAdmin   = "ADMIN"
)

// User represents an account record in the `users` collection. All
// three roles share one collection; the Role field discriminates.
// Login and token issuance live outside this service; the backend
// only verifies JWTs minted against the shared secret.
//
// Fields:
//  ID           – Mongo document id.
//  Name         – display name.
//  Email        – unique email address.
//  MobileNo     – contact number.
//  PasswordHash – bcrypt hash; the plain password is never stored.
//  Role         – FARMER, COMPANY or ADMIN.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
    Name         string             `bson:"name" json:"name"`
    Email        string             `bson:"email" json:"email"`
    MobileNo     string             `bson:"mobile_no" json:"mobile_no"`
    PasswordHash string             `bson:"password_hash" json:"-"`
    Role         string             `bson:"role" json:"role"`
    CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}
