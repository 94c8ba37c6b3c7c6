package models

import "time"

type User struct {
	UserID        string    `json:"userid" bson:"userId"`
	Username      string    `json:"username" bson:"username"`
	Email         string    `json:"email" bson:"email"`
	PasswordHash  string    `json:"-" bson:"passwordHash"`
	Role          []string  `json:"role" bson:"role"`
	Bio           string    `json:"bio,omitempty" bson:"bio,omitempty"`
	Expertise     []string  `json:"expertise,omitempty" bson:"expertise,omitempty"`
	RefreshToken  string    `json:"-" bson:"refresh_token,omitempty"`
	RefreshExpiry time.Time `json:"-" bson:"refresh_expiry,omitempty"`
	LastLogin     time.Time `json:"last_login,omitempty" bson:"last_login,omitempty"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

// UserBrief is the embeddable subset returned inside appointment responses.
type UserBrief struct {
	UserID   string `json:"userid" bson:"userId"`
	Username string `json:"username" bson:"username"`
	Email    string `json:"email" bson:"email"`
}
