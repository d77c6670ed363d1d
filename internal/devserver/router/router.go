// Package router mounts the dev backend routes.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/campus-portal/internal/devserver/handler"
	"github.com/kart-io/campus-portal/internal/devserver/middleware"
	"github.com/kart-io/campus-portal/pkg/component/storage"
	"github.com/kart-io/campus-portal/pkg/utils/response"
)

// Handlers groups what Register mounts.
type Handlers struct {
	Auth    *handler.AuthHandler
	Records *handler.RecordHandler
	Storage *storage.Manager
}

// Register mounts every route on r under prefix.
func Register(r gin.IRouter, prefix string, h *Handlers) {
	logger.Infow("Registering portal routes", "prefix", prefix)

	r.GET("/healthz", health(h.Storage))

	api := r.Group(prefix)

	// Public
	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/forgot-password", h.Auth.ForgotPassword)
		auth.POST("/reset-password", h.Auth.ResetPassword)
	}

	secured := api.Group("", middleware.Auth(h.Auth.Verify))
	{
		secured.POST("/auth/logout", h.Auth.Logout)
		secured.GET("/auth/me", h.Auth.Me)
		secured.POST("/auth/change-password", h.Auth.ChangePassword)
		secured.POST("/auth/2fa/:step", h.Auth.TwoFactor)

		secured.GET("/user/profile", h.Auth.Me)
		secured.PATCH("/user/profile", h.Auth.UpdateProfile)
		secured.POST("/user/profile/avatar", h.Auth.UploadAvatar)

		// Every other /group/name pair is a generic record collection.
		rec := h.Records
		secured.GET("/:group/:name", rec.List)
		secured.POST("/:group/:name", rec.Create)
		secured.GET("/:group/:name/deleted", rec.ListDeleted)
		secured.GET("/:group/:name/:id", rec.Get)
		secured.PATCH("/:group/:name/:id", rec.Update)
		secured.PUT("/:group/:name/:id", rec.Update)
		secured.DELETE("/:group/:name/:id", rec.Delete)
		secured.DELETE("/:group/:name/:id/permanently", rec.Purge)
		secured.POST("/:group/:name/:id/:action", rec.Action)
	}
}

func health(m *storage.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		statuses := m.HealthCheckAll(c.Request.Context(), nil)
		for _, s := range statuses {
			if !s.Healthy {
				c.JSON(http.StatusServiceUnavailable, &response.Response{
					Message:    "unhealthy",
					Data:       statuses,
					StatusCode: http.StatusServiceUnavailable,
				})
				return
			}
		}
		c.JSON(http.StatusOK, response.Success(statuses))
	}
}
