// Package auth manages the portal session: login, logout, verification,
// two-factor setup and password changes. The token is written to and
// erased from a session.Store; the transport only reads it.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/kart-io/campus-portal/internal/portal/action"
	"github.com/kart-io/campus-portal/pkg/client/resource"
	"github.com/kart-io/campus-portal/pkg/client/rest"
	"github.com/kart-io/campus-portal/pkg/session"
)

// Endpoint paths.
const (
	PathLogin          = "/auth/login"
	PathLogout         = "/auth/logout"
	PathMe             = "/auth/me"
	PathChangePassword = "/auth/change-password"
	PathForgotPassword = "/auth/forgot-password"
	PathResetPassword  = "/auth/reset-password"
	PathTwoFactor      = "/auth/2fa"
)

var (
	// ErrTwoFactorRequired is returned by Login when the account has 2FA
	// enabled and no code was supplied.
	ErrTwoFactorRequired = errors.New("two-factor code required")
	// ErrNoTokenIssued is returned when a successful login carries no token.
	ErrNoTokenIssued = errors.New("login response carried no token")
)

// User is the signed-in account.
type User struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Role             string `json:"role"`
	TwoFactorEnabled bool   `json:"twoFactorEnabled"`
}

// FullName joins the first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Credentials are the login form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	OTP      string `json:"otp,omitempty" validate:"omitempty,otp"`
}

// LoginResult is the login payload.
type LoginResult struct {
	Token             string `json:"token"`
	User              User   `json:"user"`
	RequiresTwoFactor bool   `json:"requiresTwoFactor"`
}

// TwoFactorSetup is returned when 2FA enrolment starts.
type TwoFactorSetup struct {
	Secret     string `json:"secret"`
	QRCode     string `json:"qrCode"`
	OTPAuthURL string `json:"otpauthUrl"`
}

// PasswordChange is the change-password form.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,password,nefield=CurrentPassword"`
}

// PasswordReset completes a forgotten-password flow.
type PasswordReset struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,password"`
}

type otpBody struct {
	Code string `json:"code"`
}

// Service drives the session lifecycle.
type Service struct {
	transport *rest.Client
	store     session.Store
}

// New returns a Service writing tokens to store.
func New(transport *rest.Client, store session.Store) *Service {
	return &Service{transport: transport, store: store}
}

// Login posts the credentials and saves the returned token.
func (s *Service) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := action.Validate(creds); err != nil {
		return nil, err
	}

	res, err := rest.Post[LoginResult](ctx, s.transport, PathLogin, rest.JSON(creds))
	if err != nil {
		return nil, err
	}
	if res.Token == "" {
		if res.RequiresTwoFactor {
			return &res, ErrTwoFactorRequired
		}
		return nil, ErrNoTokenIssued
	}
	if err := s.store.Save(ctx, res.Token); err != nil {
		return nil, err
	}
	return &res, nil
}

// Logout ends the server session and always clears the local token. A 401
// from the server means the session was already gone and is not an error.
func (s *Service) Logout(ctx context.Context) error {
	_, err := action.Run(ctx, s.transport, http.MethodPost, PathLogout, nil, "Logged out")
	if rest.StatusCode(err) == http.StatusUnauthorized {
		err = nil
	}
	if clearErr := s.store.Clear(ctx); clearErr != nil && err == nil {
		err = clearErr
	}
	return err
}

// Verify fetches the current user. A 401 or 403 erases the stored token.
func (s *Service) Verify(ctx context.Context) (*User, error) {
	user, err := rest.Get[User](ctx, s.transport, PathMe, nil)
	if err != nil {
		switch rest.StatusCode(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			_ = s.store.Clear(ctx)
		}
		return nil, err
	}
	return &user, nil
}

// SignedIn reports whether a token is stored. It does not contact the server.
func (s *Service) SignedIn(ctx context.Context) bool {
	token, err := s.store.Load(ctx)
	return err == nil && token != ""
}

// EnableTwoFactor starts 2FA enrolment.
func (s *Service) EnableTwoFactor(ctx context.Context) (*TwoFactorSetup, error) {
	setup, err := rest.Post[TwoFactorSetup](ctx, s.transport, PathTwoFactor+"/enable", nil)
	if err != nil {
		return nil, err
	}
	return &setup, nil
}

// ConfirmTwoFactor finishes enrolment with a code from the authenticator.
func (s *Service) ConfirmTwoFactor(ctx context.Context, code string) (*resource.Message, error) {
	return s.otpAction(ctx, "/verify", code, "Two-factor authentication enabled")
}

// DisableTwoFactor turns 2FA off.
func (s *Service) DisableTwoFactor(ctx context.Context, code string) (*resource.Message, error) {
	return s.otpAction(ctx, "/disable", code, "Two-factor authentication disabled")
}

func (s *Service) otpAction(ctx context.Context, suffix, code, fallback string) (*resource.Message, error) {
	code = strings.TrimSpace(code)
	if err := action.Var("code", code, "required,otp"); err != nil {
		return nil, err
	}
	return action.Run(ctx, s.transport, http.MethodPost, PathTwoFactor+suffix, otpBody{Code: code}, fallback)
}

// ChangePassword updates the signed-in user's password.
func (s *Service) ChangePassword(ctx context.Context, change PasswordChange) (*resource.Message, error) {
	if err := action.Validate(change); err != nil {
		return nil, err
	}
	return action.Run(ctx, s.transport, http.MethodPost, PathChangePassword, change, "Password changed")
}

// ForgotPassword asks the server to mail a reset link.
func (s *Service) ForgotPassword(ctx context.Context, email string) (*resource.Message, error) {
	email = strings.TrimSpace(email)
	if err := action.Var("email", email, "required,email"); err != nil {
		return nil, err
	}
	body := map[string]string{"email": email}
	return action.Run(ctx, s.transport, http.MethodPost, PathForgotPassword, body, "Password reset email sent")
}

// ResetPassword sets a new password using a reset token.
func (s *Service) ResetPassword(ctx context.Context, reset PasswordReset) (*resource.Message, error) {
	if err := action.Validate(reset); err != nil {
		return nil, err
	}
	return action.Run(ctx, s.transport, http.MethodPost, PathResetPassword, reset, "Password reset")
}
