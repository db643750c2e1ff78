package httpapi

import (
	"time"

	"github.com/yapplr/yapplr/internal/server/models"
	"github.com/yapplr/yapplr/internal/server/services"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
	Bio      string `json:"bio" validate:"max=500"`
	Birthday string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	Pronouns string `json:"pronouns" validate:"max=50"`
	Tagline  string `json:"tagline" validate:"max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,maxbytes=72"`
}

type userResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	Bio       string     `json:"bio"`
	Birthday  *time.Time `json:"birthday,omitempty"`
	Pronouns  string     `json:"pronouns"`
	Tagline   string     `json:"tagline"`
	CreatedAt time.Time  `json:"createdAt"`
}

type authResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func toUser(a *models.Account) userResponse {
	return userResponse{
		ID:        a.ID,
		Email:     a.Email,
		Username:  a.Username,
		Bio:       a.Bio,
		Birthday:  a.Birthday,
		Pronouns:  a.Pronouns,
		Tagline:   a.Tagline,
		CreatedAt: a.CreatedAt,
	}
}

func toAuthResponse(res *services.AuthResult) authResponse {
	return authResponse{Token: res.Token, ExpiresAt: res.ExpiresAt, User: toUser(res.Account)}
}
