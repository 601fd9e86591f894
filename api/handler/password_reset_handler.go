package handler

import (
	"errors"
	"net/http"

	"fleetadmin/internal/dto"
	"fleetadmin/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// PasswordResetHandler serves the forgot-password screens of the admin
// portal. Messages match what the portal displays verbatim.
type PasswordResetHandler struct {
	Service  *service.PasswordResetService
	Validate *validator.Validate
	Logger   logrus.FieldLogger
}

func NewPasswordResetHandler(svc *service.PasswordResetService, validate *validator.Validate, logger logrus.FieldLogger) *PasswordResetHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PasswordResetHandler{Service: svc, Validate: validate, Logger: logger}
}

func (h *PasswordResetHandler) ForgetPassword(c echo.Context) error {
	var req dto.PasswordForgotRequest
	if err := h.bind(c, &req); err != nil {
		return writeMessage(c, http.StatusBadRequest, "Email is required")
	}
	if err := h.Service.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return h.writeResetError(c, err, "Failed to send OTP. Please try again.")
	}
	return c.JSON(http.StatusOK, dto.ResultResponse{Success: true, Message: "OTP sent successfully to your email"})
}

func (h *PasswordResetHandler) VerifyOTP(c echo.Context) error {
	var req dto.VerifyOTPRequest
	if err := h.bind(c, &req); err != nil {
		return writeMessage(c, http.StatusBadRequest, "Email and a 6-digit OTP are required")
	}
	if err := h.Service.VerifyOTP(c.Request().Context(), req.Email, req.OTP); err != nil {
		return h.writeResetError(c, err, "Failed to verify OTP. Please try again.")
	}
	return c.JSON(http.StatusOK, dto.ResultResponse{Success: true, Message: "OTP verified successfully"})
}

func (h *PasswordResetHandler) ChangePassword(c echo.Context) error {
	var req dto.PasswordResetRequest
	if err := h.bind(c, &req); err != nil {
		return writeMessage(c, http.StatusBadRequest, "Email and new password are required")
	}
	if err := h.Service.ResetPassword(c.Request().Context(), req.Email, req.NewPassword); err != nil {
		return h.writeResetError(c, err, "Failed to reset password. Please try again.")
	}
	return c.JSON(http.StatusOK, dto.ResultResponse{Success: true, Message: "Password reset successfully"})
}

func (h *PasswordResetHandler) bind(c echo.Context, target any) error {
	if err := decodeJSON(c, target); err != nil {
		return err
	}
	return validateStruct(h.Validate, target)
}

func (h *PasswordResetHandler) writeResetError(c echo.Context, err error, fallback string) error {
	status, message := resetErrorResponse(err)
	if status == http.StatusInternalServerError {
		h.Logger.WithError(err).WithField("path", c.Path()).Error("password reset request failed")
		message = fallback
	}
	return writeMessage(c, status, message)
}

func resetErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "Email is required"
	case errors.Is(err, service.ErrUnknownAccount):
		return http.StatusNotFound, "No account found with this email address"
	case errors.Is(err, service.ErrNoActiveRequest):
		return http.StatusBadRequest, "No OTP request found. Please request a new OTP."
	case errors.Is(err, service.ErrOTPExpired):
		return http.StatusGone, "OTP has expired. Please request a new one."
	case errors.Is(err, service.ErrOTPMismatch):
		return http.StatusBadRequest, "Invalid OTP"
	case errors.Is(err, service.ErrNotVerified):
		return http.StatusBadRequest, "No verified OTP found. Please verify your OTP first."
	case errors.Is(err, service.ErrWeakPassword):
		return http.StatusBadRequest, "Password must be at least 8 characters long"
	case errors.Is(err, service.ErrPasswordTooLong):
		return http.StatusBadRequest, "Password must be at most 72 bytes long"
	}
	return http.StatusInternalServerError, ""
}
