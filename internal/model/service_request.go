package model

import (
    "time"

    "go.mongodb.org/mongo-driver/bson/primitive"
)

// ServiceRequest is a farmer's ask to have crop stubble cleared from
// their land, stored in the `service_requests` collection. One open
// request per farmer email at a time.
//
// Fields:
//  ID          – Mongo document id.
//  Name        – farmer's name.
//  Email       – farmer's email; unique among open requests.
//  MobileNo    – contact number.
//  Address     – location of the field.
//  Acreage     – area to clear, in acres.
//  StubbleType – crop residue variety (e.g. rice, wheat).
//  CreatedAt   – when the request was filed.
type ServiceRequest struct {
    ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
    Name        string             `bson:"name" json:"name"`
    Email       string             `bson:"email" json:"email"`
    MobileNo    string             `bson:"mobile_no" json:"mobile_no"`
    Address     string             `bson:"address" json:"address"`
    Acreage     float64            `bson:"acreage" json:"acreage"`
    StubbleType string             `bson:"stubble_type" json:"stubble_type"`
    CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// ClearedRequest is a serviced request moved to the `cleared_list`
// collection when an admin marks it done. Kept as a permanent record of
// which farms have been cleared.
type ClearedRequest struct {
    ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
    Name        string             `bson:"name" json:"name"`
    Email       string             `bson:"email" json:"email"`
    MobileNo    string             `bson:"mobile_no" json:"mobile_no"`
    Address     string             `bson:"address" json:"address"`
    Acreage     float64            `bson:"acreage" json:"acreage"`
    StubbleType string             `bson:"stubble_type" json:"stubble_type"`
    RequestedAt time.Time          `bson:"requested_at" json:"requested_at"`
    ClearedAt   time.Time          `bson:"cleared_at" json:"cleared_at"`
}
