// internal/domain/models/user.go
package models

import (
	"time"
)

// User is a directory entry. Sharing resolves an email to a User.ID.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	FullName     string    `bson:"full_name,omitempty" json:"full_name,omitempty"`
	FullNameCI   string    `bson:"full_name_ci,omitempty" json:"-"`
	PasswordHash string    `bson:"password_hash,omitempty" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}
