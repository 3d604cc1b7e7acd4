package models

import "time"

type SignupRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	BusinessID string `json:"businessId" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// User is a business owner account; owners read analytics for BusinessID.
type User struct {
	ID             int       `json:"id"`
	Email          string    `json:"email"`
	BusinessID     string    `json:"business_id"`
	HashedPassword []byte    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
