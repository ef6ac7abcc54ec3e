package dto

import "time"

// LoginRequest authenticates a student or an admin.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=128"`
}

// SessionResponse describes the identity behind the current session.
type SessionResponse struct {
	ID             uint      `json:"id"`
	Role           string    `json:"role"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	RegistrationID string    `json:"registrationId,omitempty"`
	Standard       string    `json:"standard,omitempty"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

// LoginResult pairs the signed token with the session it encodes.
type LoginResult struct {
	Token   string
	Session SessionResponse
}
