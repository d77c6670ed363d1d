package biz

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"github.com/kart-io/logger"
	"github.com/pquerna/otp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kart-io/campus-portal/internal/devserver/model"
	"github.com/kart-io/campus-portal/internal/devserver/store"
	"github.com/kart-io/campus-portal/pkg/auth/jwt"
	"github.com/kart-io/campus-portal/pkg/utils/errors"
	"github.com/kart-io/campus-portal/pkg/utils/id"
	"github.com/kart-io/campus-portal/pkg/validator"
)

const (
	issuer        = "Campus Portal"
	resetTokenTTL = time.Hour
	// RoleAdmin is the role of the seeded account.
	RoleAdmin = "admin"
)

// LoginRequest is the login form.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	OTP      string `json:"otp,omitempty" validate:"omitempty,otp"`
}

// LoginResponse is the login payload. Token is empty when a second factor
// is still needed.
type LoginResponse struct {
	Token             string      `json:"token,omitempty"`
	ExpiresAt         *time.Time  `json:"expiresAt,omitempty"`
	User              *model.User `json:"user,omitempty"`
	RequiresTwoFactor bool        `json:"requiresTwoFactor"`
}

// ProfileUpdate carries editable profile fields; empty ones are kept.
type ProfileUpdate struct {
	FirstName string `json:"firstName,omitempty" validate:"omitempty,max=60"`
	LastName  string `json:"lastName,omitempty" validate:"omitempty,max=60"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,e164"`
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

// TwoFactorSetup is returned when enrolment starts.
type TwoFactorSetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
}

type resetGrant struct {
	userID  string
	expires time.Time
}

// AuthService handles accounts and sessions.
type AuthService struct {
	jwt   *jwt.JWT
	store store.Factory
	now   func() time.Time

	mu     sync.Mutex
	resets map[string]resetGrant
}

// NewAuthService creates a new AuthService.
func NewAuthService(j *jwt.JWT, s store.Factory) *AuthService {
	return &AuthService{
		jwt:    j,
		store:  s,
		now:    time.Now,
		resets: make(map[string]resetGrant),
	}
}

// Seed creates the admin account unless email is already registered.
func (s *AuthService) Seed(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if _, err := s.store.Users().GetByEmail(ctx, email); err == nil {
		return nil
	} else if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.ErrDatabase.WithCause(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.ErrInternal.WithCause(err)
	}
	u := &model.User{
		ID:        id.NewULID(),
		Email:     email,
		Password:  string(hash),
		FirstName: "Portal",
		LastName:  "Admin",
		Role:      RoleAdmin,
	}
	if err := s.store.Users().Create(ctx, u); err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	logger.Infow("Seeded admin account", "email", email)
	return nil
}

// Login checks the credentials and, when 2FA is on, the one-time code.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	u, err := s.store.Users().GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrInvalidCredential.WithMessage("Invalid email or password")
		}
		return nil, errors.ErrDatabase.WithCause(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return nil, errors.ErrInvalidCredential.WithMessage("Invalid email or password")
	}

	if u.TwoFactorEnabled {
		if req.OTP == "" {
			return &LoginResponse{RequiresTwoFactor: true}, nil
		}
		if !s.checkCode(u, req.OTP) {
			return nil, errors.ErrTwoFactorCode
		}
	}

	token, err := s.jwt.Sign(ctx, u.ID, map[string]interface{}{"role": u.Role})
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Token: token.AccessToken, ExpiresAt: &token.ExpiresAt, User: u}, nil
}

// Logout revokes token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.jwt.Revoke(ctx, token)
}

// Authenticate verifies a bearer token and returns the subject.
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	claims, err := s.jwt.Verify(ctx, token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Me returns the account behind userID.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUnauthorized.WithMessage("Account no longer exists")
		}
		return nil, errors.ErrDatabase.WithCause(err)
	}
	return u, nil
}

// UpdateProfile applies the non-empty fields of in.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in *ProfileUpdate) (*model.User, error) {
	return s.updateUser(ctx, userID, func(u *model.User) error {
		if in.FirstName != "" {
			u.FirstName = in.FirstName
		}
		if in.LastName != "" {
			u.LastName = in.LastName
		}
		if in.Phone != "" {
			u.Phone = in.Phone
		}
		return nil
	})
}

// SetAvatar records the avatar URL.
func (s *AuthService) SetAvatar(ctx context.Context, userID, avatarURL string) (*model.User, error) {
	return s.updateUser(ctx, userID, func(u *model.User) error {
		u.AvatarURL = avatarURL
		return nil
	})
}

// ChangePassword replaces the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, in *PasswordChange) error {
	_, err := s.updateUser(ctx, userID, func(u *model.User) error {
		if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.CurrentPassword)) != nil {
			return validator.NewValidationError("currentPassword", "password", "current password is incorrect")
		}
		return setPassword(u, in.NewPassword)
	})
	return err
}

// ForgotPassword issues a reset token. The reply never reveals whether the
// account exists; the token is only logged.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.store.Users().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return errors.ErrDatabase.WithCause(err)
	}

	token := id.NewULID()
	s.mu.Lock()
	s.resets[token] = resetGrant{userID: u.ID, expires: s.now().Add(resetTokenTTL)}
	s.mu.Unlock()
	logger.Infow("Password reset requested", "email", u.Email, "reset_token", token)
	return nil
}

// ResetPassword consumes a reset token.
func (s *AuthService) ResetPassword(ctx context.Context, in *PasswordReset) error {
	s.mu.Lock()
	grant, ok := s.resets[in.Token]
	delete(s.resets, in.Token)
	s.mu.Unlock()
	if !ok || s.now().After(grant.expires) {
		return validator.NewValidationError("token", "invalid", "reset token is invalid or expired")
	}
	_, err := s.updateUser(ctx, grant.userID, func(u *model.User) error {
		return setPassword(u, in.NewPassword)
	})
	return err
}

// EnableTwoFactor starts enrolment; it completes with VerifyTwoFactor.
func (s *AuthService) EnableTwoFactor(ctx context.Context, userID string) (*TwoFactorSetup, error) {
	var key *otp.Key
	_, err := s.updateUser(ctx, userID, func(u *model.User) error {
		if u.TwoFactorEnabled {
			return errors.ErrConflict.WithMessage("Two-factor authentication is already enabled")
		}
		k, err := newTOTPKey(u.Email)
		if err != nil {
			return errors.ErrInternal.WithCause(err)
		}
		key = k
		u.TwoFactorSecret = k.Secret()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &TwoFactorSetup{Secret: key.Secret(), OTPAuthURL: key.URL()}, nil
}

// VerifyTwoFactor turns 2FA on once the first code checks out.
func (s *AuthService) VerifyTwoFactor(ctx context.Context, userID, code string) error {
	_, err := s.updateUser(ctx, userID, func(u *model.User) error {
		if !s.checkCode(u, code) {
			return errors.ErrTwoFactorCode
		}
		u.TwoFactorEnabled = true
		return nil
	})
	return err
}

// DisableTwoFactor turns 2FA off after checking a current code.
func (s *AuthService) DisableTwoFactor(ctx context.Context, userID, code string) error {
	_, err := s.updateUser(ctx, userID, func(u *model.User) error {
		if !u.TwoFactorEnabled || !s.checkCode(u, code) {
			return errors.ErrTwoFactorCode
		}
		u.TwoFactorEnabled = false
		u.TwoFactorSecret = ""
		return nil
	})
	return err
}

func (s *AuthService) checkCode(u *model.User, code string) bool {
	return u.TwoFactorSecret != "" && checkTOTP(u.TwoFactorSecret, code, s.now())
}

func (s *AuthService) updateUser(ctx context.Context, userID string, fn func(*model.User) error) (*model.User, error) {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(u); err != nil {
		return nil, err
	}
	if err := s.store.Users().Update(ctx, u); err != nil {
		return nil, errors.ErrDatabase.WithCause(err)
	}
	return u, nil
}

func setPassword(u *model.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.ErrInternal.WithCause(err)
	}
	u.Password = string(hash)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
