// Package api is a typed client for the Yapplr auth HTTP API.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/yapplr/yapplr/internal/netx"
)

type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	Bio       string     `json:"bio"`
	Birthday  *time.Time `json:"birthday,omitempty"`
	Pronouns  string     `json:"pronouns"`
	Tagline   string     `json:"tagline"`
	CreatedAt time.Time  `json:"createdAt"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Bio      string `json:"bio,omitempty"`
	Birthday string `json:"birthday,omitempty"`
	Pronouns string `json:"pronouns,omitempty"`
	Tagline  string `json:"tagline,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var herr *netx.HTTPError
	return errors.As(err, &herr) && herr.StatusCode == http.StatusUnauthorized
}

// Client talks to one server. The zero value is not usable; see New.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) url(path string) string {
	return c.baseURL + "/api/auth" + path
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := netx.DoJSON(ctx, c.http, http.MethodPost, c.url("/register"), "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var out AuthResponse
	if err := netx.DoJSON(ctx, c.http, http.MethodPost, c.url("/login"), "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ForgotPassword asks the server to mail a reset link. The returned message
// is the same whether or not the email is registered.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var out messageResponse
	if err := netx.DoJSON(ctx, c.http, http.MethodPost, c.url("/forgot-password"), "", map[string]string{"email": email}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	body := map[string]string{"token": token, "newPassword": newPassword}
	var out messageResponse
	if err := netx.DoJSON(ctx, c.http, http.MethodPost, c.url("/reset-password"), "", body, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Me returns the account the session token belongs to.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var out User
	if err := netx.DoJSON(ctx, c.http, http.MethodGet, c.url("/me"), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
