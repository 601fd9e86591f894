package routes

import (
	"net/http"
	"time"

	"fleetadmin/api/handler"
	"fleetadmin/api/middleware"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	PasswordReset  *handler.PasswordResetHandler
	AuthMiddleware middleware.AuthMiddleware
	OTPRate        *middleware.RateLimiter
	LoginRate      *middleware.RateLimiter
}

func NewRouter(
	e *echo.Echo,
	authHandler *handler.AuthHandler,
	passwordResetHandler *handler.PasswordResetHandler,
	authMiddleware middleware.AuthMiddleware,
) *Router {
	return &Router{
		Echo:           e,
		Auth:           authHandler,
		PasswordReset:  passwordResetHandler,
		AuthMiddleware: authMiddleware,
		OTPRate:        middleware.NewRateLimiter(rate.Every(6*time.Second), 5, 15*time.Minute),
		LoginRate:      middleware.NewRateLimiter(rate.Limit(2), 4, 10*time.Minute),
	}
}

func (r *Router) RegisterRoutes() {
	e := r.Echo

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	auth := e.Group("/api/auth", middleware.ClientInfo)
	auth.POST("/forgetPassword", r.PasswordReset.ForgetPassword, r.OTPRate.Middleware())
	auth.POST("/verifyOtp", r.PasswordReset.VerifyOTP, r.OTPRate.Middleware())
	auth.POST("/changePassword", r.PasswordReset.ChangePassword, r.OTPRate.Middleware())
	auth.POST("/login", r.Auth.Login, r.LoginRate.Middleware())
	auth.GET("/me", r.Auth.Me, r.AuthMiddleware.RequireAuth)
}
