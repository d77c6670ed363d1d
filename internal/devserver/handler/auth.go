package handler

import (
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/campus-portal/internal/devserver/biz"
	"github.com/kart-io/campus-portal/internal/devserver/middleware"
	"github.com/kart-io/campus-portal/pkg/utils/errors"
	"github.com/kart-io/campus-portal/pkg/utils/id"
	"github.com/kart-io/campus-portal/pkg/validator"
)

// MaxAvatarSize bounds avatar uploads.
const MaxAvatarSize = 2 << 20

var avatarTypes = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}

// AuthHandler serves /auth and /user/profile.
type AuthHandler struct {
	svc *biz.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *biz.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Verify adapts the service for middleware.Auth.
func (h *AuthHandler) Verify(c *gin.Context, token string) (string, error) {
	return h.svc.Authenticate(c.Request.Context(), token)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req biz.LoginRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	res, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	writer(c).OK(res)
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), c.GetString(middleware.KeyToken)); err != nil {
		fail(c, err)
		return
	}
	message(c, "Logged out successfully")
}

// Me handles GET /auth/me and GET /user/profile.
func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.svc.Me(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	writer(c).OK(u)
}

// UpdateProfile handles PATCH /user/profile.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var in biz.ProfileUpdate
	if err := bind(c, &in); err != nil {
		fail(c, err)
		return
	}
	u, err := h.svc.UpdateProfile(c.Request.Context(), userID(c), &in)
	if err != nil {
		fail(c, err)
		return
	}
	writer(c).OK(u)
}

// UploadAvatar handles POST /user/profile/avatar. The file is checked and
// discarded; the profile gets a URL naming it.
func (h *AuthHandler) UploadAvatar(c *gin.Context) {
	fh, err := c.FormFile("avatar")
	if err != nil {
		fail(c, validator.NewValidationError("avatar", "required", "avatar file is required"))
		return
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	switch {
	case !avatarTypes[ext]:
		fail(c, validator.NewValidationError("avatar", "oneof", "avatar must be a png, jpg, gif or webp image"))
		return
	case fh.Size > MaxAvatarSize:
		fail(c, validator.NewValidationError("avatar", "max", "avatar must be at most 2 MiB"))
		return
	}

	u, err := h.svc.SetAvatar(c.Request.Context(), userID(c), "/avatars/"+id.NewULID()+ext)
	if err != nil {
		fail(c, err)
		return
	}
	writer(c).OK(u)
}

// ChangePassword handles POST /auth/change-password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var in biz.PasswordChange
	if err := bind(c, &in); err != nil {
		fail(c, err)
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), userID(c), &in); err != nil {
		fail(c, err)
		return
	}
	message(c, "Password changed successfully")
}

type forgotRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword handles POST /auth/forgot-password.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var in forgotRequest
	if err := bind(c, &in); err != nil {
		fail(c, err)
		return
	}
	if err := h.svc.ForgotPassword(c.Request.Context(), in.Email); err != nil {
		fail(c, err)
		return
	}
	message(c, "If the account exists, a reset link has been sent")
}

// ResetPassword handles POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var in biz.PasswordReset
	if err := bind(c, &in); err != nil {
		fail(c, err)
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), &in); err != nil {
		fail(c, err)
		return
	}
	message(c, "Password reset successfully")
}

type otpRequest struct {
	Code string `json:"code" validate:"required,otp"`
}

// TwoFactor handles POST /auth/2fa/:step for enable, verify and disable.
func (h *AuthHandler) TwoFactor(c *gin.Context) {
	ctx := c.Request.Context()
	step := c.Param("step")
	if step == "enable" {
		setup, err := h.svc.EnableTwoFactor(ctx, userID(c))
		if err != nil {
			fail(c, err)
			return
		}
		writer(c).OK(setup)
		return
	}

	var in otpRequest
	if err := bind(c, &in); err != nil {
		fail(c, err)
		return
	}
	switch step {
	case "verify":
		if err := h.svc.VerifyTwoFactor(ctx, userID(c), in.Code); err != nil {
			fail(c, err)
			return
		}
		message(c, "Two-factor authentication enabled")
	case "disable":
		if err := h.svc.DisableTwoFactor(ctx, userID(c), in.Code); err != nil {
			fail(c, err)
			return
		}
		message(c, "Two-factor authentication disabled")
	default:
		fail(c, errors.ErrNotFound.WithMessagef("Unknown two-factor step %q", step))
	}
}
