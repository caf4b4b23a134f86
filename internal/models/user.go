package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles, ordered by privilege. Admin can do anything a manager can, a
// manager anything a user can.
const (
	RoleUser    = "user"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

var roleLevels = map[string]int{
	RoleUser:    1,
	RoleManager: 2,
	RoleAdmin:   3,
}

// ValidRole reports whether s is a known role.
func ValidRole(s string) bool {
	_, ok := roleLevels[s]
	return ok
}

// RoleAtLeast reports whether role sits at or above minimum in the hierarchy.
func RoleAtLeast(role, minimum string) bool {
	return roleLevels[role] >= roleLevels[minimum]
}

type User struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name                 string             `bson:"name" json:"name"`
	Email                string             `bson:"email" json:"email"`
	Password             string             `bson:"password,omitempty" json:"-"`
	Role                 string             `bson:"role" json:"role"`
	Company              string             `bson:"company,omitempty" json:"company,omitempty"`
	Phone                string             `bson:"phone,omitempty" json:"phone,omitempty"`
	IsActive             bool               `bson:"is_active" json:"isActive"`
	EmailVerified        bool               `bson:"email_verified" json:"emailVerified"`
	PasswordResetToken   string             `bson:"password_reset_token,omitempty" json:"-"`
	PasswordResetExpires time.Time          `bson:"password_reset_expires,omitempty" json:"-"`
	LastLogin            *time.Time         `bson:"last_login,omitempty" json:"lastLogin,omitempty"`
	CreatedAt            time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt            time.Time          `bson:"updated_at" json:"updatedAt"`
}

// PublicProfile returns a copy stripped of every secret field, for use in
// response bodies regardless of the serializer.
func (u User) PublicProfile() User {
	u.Password = ""
	u.PasswordResetToken = ""
	u.PasswordResetExpires = time.Time{}
	return u
}

// RecordLogin stamps the last successful authentication.
func (u *User) RecordLogin() {
	now := time.Now()
	u.LastLogin = &now
}

// ClearResetToken drops the reset token fields after a successful reset or
// on expiry.
func (u *User) ClearResetToken() {
	u.PasswordResetToken = ""
	u.PasswordResetExpires = time.Time{}
}

// UserRef is the trimmed reference embedded in responses that point at a
// user (vehicle createdBy, contact assignedTo and friends).
type UserRef struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
}

func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}
