package biz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/campus-portal/pkg/auth/jwt"
	jwtopts "github.com/kart-io/campus-portal/pkg/options/jwt"
	"github.com/kart-io/campus-portal/pkg/utils/errors"
	"github.com/kart-io/campus-portal/pkg/validator"
)

const (
	adminEmail    = "admin@campus.local"
	adminPassword = "Admin@12345"
)

func newAuthService(t *testing.T) (*AuthService, *clock) {
	t.Helper()
	opts := jwtopts.NewOptions()
	opts.Key = "0123456789abcdef0123456789abcdef"
	tokens, err := jwt.New(opts, jwt.NewMemoryStore())
	require.NoError(t, err)

	c := &clock{t: time.Now()}
	s := NewAuthService(tokens, newFactory(t))
	s.now = c.now
	require.NoError(t, s.Seed(context.Background(), " Admin@Campus.local ", adminPassword))
	return s, c
}

func login(t *testing.T, s *AuthService, password, otp string) (*LoginResponse, error) {
	t.Helper()
	return s.Login(context.Background(), &LoginRequest{Email: adminEmail, Password: password, OTP: otp})
}

func TestAuthService_Seed(t *testing.T) {
	s, _ := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, s.Seed(ctx, adminEmail, "ignored"), "seeding twice is a no-op")
	n, err := s.store.Users().Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	res, err := login(t, s, adminPassword, "")
	require.NoError(t, err, "the first password is kept")
	assert.Equal(t, RoleAdmin, res.User.Role)
}

func TestAuthService_Login(t *testing.T) {
	s, _ := newAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		wantCode int
	}{
		{"成功", adminEmail, adminPassword, 0},
		{"邮箱大小写不敏感", "ADMIN@campus.local", adminPassword, 0},
		{"密码错误", adminEmail, "wrong", errors.ErrInvalidCredential.Code},
		{"用户不存在", "ghost@campus.local", adminPassword, errors.ErrInvalidCredential.Code},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Login(ctx, &LoginRequest{Email: tt.email, Password: tt.password})
			if tt.wantCode != 0 {
				assert.True(t, errors.IsCode(err, tt.wantCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, res.Token)
			require.NotNil(t, res.ExpiresAt)
			assert.False(t, res.RequiresTwoFactor)

			sub, err := s.Authenticate(ctx, res.Token)
			require.NoError(t, err)
			assert.Equal(t, res.User.ID, sub)
		})
	}
}

func TestAuthService_Logout(t *testing.T) {
	s, _ := newAuthService(t)
	ctx := context.Background()
	res, err := login(t, s, adminPassword, "")
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx, res.Token))
	_, err = s.Authenticate(ctx, res.Token)
	assert.True(t, errors.IsCode(err, errors.ErrTokenRevoked.Code))
}

func TestAuthService_TwoFactor(t *testing.T) {
	s, c := newAuthService(t)
	ctx := context.Background()
	res, err := login(t, s, adminPassword, "")
	require.NoError(t, err)
	userID := res.User.ID

	setup, err := s.EnableTwoFactor(ctx, userID)
	require.NoError(t, err)
	assert.Contains(t, setup.OTPAuthURL, setup.Secret)

	assert.True(t, errors.IsCode(s.VerifyTwoFactor(ctx, userID, "000000"), errors.ErrTwoFactorCode.Code))
	code, err := TOTP(setup.Secret, c.t)
	require.NoError(t, err)
	require.NoError(t, s.VerifyTwoFactor(ctx, userID, code))

	_, err = s.EnableTwoFactor(ctx, userID)
	assert.True(t, errors.IsCode(err, errors.ErrConflict.Code))

	res, err = login(t, s, adminPassword, "")
	require.NoError(t, err)
	assert.True(t, res.RequiresTwoFactor)
	assert.Empty(t, res.Token)

	_, err = login(t, s, adminPassword, "123456")
	assert.True(t, errors.IsCode(err, errors.ErrTwoFactorCode.Code))

	res, err = login(t, s, adminPassword, code)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.True(t, res.User.TwoFactorEnabled)

	require.NoError(t, s.DisableTwoFactor(ctx, userID, code))
	res, err = login(t, s, adminPassword, "")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestAuthService_ChangePassword(t *testing.T) {
	s, _ := newAuthService(t)
	ctx := context.Background()
	res, err := login(t, s, adminPassword, "")
	require.NoError(t, err)

	err = s.ChangePassword(ctx, res.User.ID, &PasswordChange{CurrentPassword: "wrong", NewPassword: "Next@12345"})
	var verrs *validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.NotEmpty(t, verrs.ForField("currentPassword"))

	require.NoError(t, s.ChangePassword(ctx, res.User.ID, &PasswordChange{CurrentPassword: adminPassword, NewPassword: "Next@12345"}))
	_, err = login(t, s, adminPassword, "")
	assert.Error(t, err)
	_, err = login(t, s, "Next@12345", "")
	assert.NoError(t, err)
}

func TestAuthService_ForgotReset(t *testing.T) {
	s, c := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, s.ForgotPassword(ctx, "ghost@campus.local"))
	assert.Empty(t, s.resets, "unknown accounts get no grant")

	require.NoError(t, s.ForgotPassword(ctx, adminEmail))
	require.Len(t, s.resets, 1)
	var token string
	for k := range s.resets {
		token = k
	}

	require.NoError(t, s.ResetPassword(ctx, &PasswordReset{Token: token, NewPassword: "Reset@12345"}))
	_, err := login(t, s, "Reset@12345", "")
	require.NoError(t, err)

	err = s.ResetPassword(ctx, &PasswordReset{Token: token, NewPassword: "Again@12345"})
	var verrs *validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs, "tokens are single use")

	require.NoError(t, s.ForgotPassword(ctx, adminEmail))
	for k := range s.resets {
		token = k
	}
	c.t = c.t.Add(2 * resetTokenTTL)
	err = s.ResetPassword(ctx, &PasswordReset{Token: token, NewPassword: "Late@12345"})
	assert.ErrorAs(t, err, &verrs, "expired tokens are refused")
}

func TestAuthService_Profile(t *testing.T) {
	s, _ := newAuthService(t)
	ctx := context.Background()
	res, err := login(t, s, adminPassword, "")
	require.NoError(t, err)

	u, err := s.UpdateProfile(ctx, res.User.ID, &ProfileUpdate{FirstName: "Ada", Phone: "+15551234567"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.FirstName)
	assert.Equal(t, "Admin", u.LastName)
	assert.Equal(t, "+15551234567", u.Phone)

	u, err = s.SetAvatar(ctx, res.User.ID, "/avatars/a.png")
	require.NoError(t, err)
	assert.Equal(t, "/avatars/a.png", u.AvatarURL)

	_, err = s.Me(ctx, "missing")
	assert.True(t, errors.IsCode(err, errors.ErrUnauthorized.Code))
}
