// Package httpapi exposes the auth service over HTTP/JSON.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yapplr/yapplr/internal/common"
	"github.com/yapplr/yapplr/internal/server/models"
	"github.com/yapplr/yapplr/internal/server/services"
)

const maxBodyBytes = 1 << 20

const (
	forgotPasswordMessage = "If an account with that email exists, a password reset link has been sent."
	resetPasswordMessage  = "Your password has been reset."
)

// AuthAPI is the part of services.AuthService the handlers call.
type AuthAPI interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	RequestPasswordReset(ctx context.Context, email, resetLinkBase string) (bool, error)
	ResetPassword(ctx context.Context, token, newPassword string) (bool, error)
	CurrentAccount(ctx context.Context, accountID string) (*models.Account, error)
}

type handler struct {
	auth         AuthAPI
	validate     *validator.Validate
	resetLinkURL string
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// bcrypt's limit is in bytes; "max" counts runes.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= n
	})
	return v
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	in := services.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Bio:      req.Bio,
		Pronouns: req.Pronouns,
		Tagline:  req.Tagline,
	}
	if req.Birthday != "" {
		// format already checked by the validator
		b, _ := time.Parse(time.DateOnly, req.Birthday)
		in.Birthday = &b
	}

	res, err := h.auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAuthResponse(res))
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuthResponse(res))
}

// forgotPassword answers identically whether or not the email is known.
func (h *handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := h.auth.RequestPasswordReset(r.Context(), req.Email, h.resetLinkURL); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: forgotPasswordMessage})
}

func (h *handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := h.auth.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: resetPasswordMessage})
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, r, common.ErrInvalidToken)
		return
	}
	account, err := h.auth.CurrentAccount(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(account))
}

// decode reads and validates a JSON body, writing a 400 problem on failure.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeProblem(w, r, Problem{Status: http.StatusBadRequest, Detail: "Request body must be valid JSON."})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeError(w, r, err)
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
		writeProblem(w, r, Problem{
			Status: http.StatusBadRequest,
			Detail: "One or more fields are invalid.",
			Errors: fields,
		})
		return false
	}
	return true
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "maxbytes":
		return fmt.Sprintf("must be at most %s bytes", fe.Param())
	case "datetime":
		return fmt.Sprintf("must be a date in the form %s", fe.Param())
	default:
		return "is invalid"
	}
}
