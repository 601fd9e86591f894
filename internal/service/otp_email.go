package service

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

const passwordResetOTPSubject = "Password Reset OTP - FleetCo Admin"

var (
	//go:embed templates/password_reset_otp.html
	emailTemplates embed.FS

	passwordResetOTPTemplate = template.Must(template.ParseFS(emailTemplates, "templates/password_reset_otp.html"))
)

type passwordResetOTPEmail struct {
	Name          string
	Code          string
	ExpiryMinutes int
	Year          int
}

func renderPasswordResetOTP(data passwordResetOTPEmail) (string, error) {
	if strings.TrimSpace(data.Name) == "" {
		data.Name = "there"
	}
	var body bytes.Buffer
	if err := passwordResetOTPTemplate.Execute(&body, data); err != nil {
		return "", fmt.Errorf("render password reset otp template: %w", err)
	}
	return body.String(), nil
}
