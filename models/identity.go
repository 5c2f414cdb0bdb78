package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Identity is the authenticated requester resolved from a token.
type Identity struct {
	UserID primitive.ObjectID
	Role   string
	User   *User
}

// CanModify reports whether the requester owns the resource or is an admin.
func (i Identity) CanModify(owner primitive.ObjectID) bool {
	return i.Role == RoleAdmin || i.UserID == owner
}
