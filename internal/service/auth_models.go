package service

import (
	"context"

	"fleetadmin/internal/entity"
)

type LoginInput struct {
	Email    string
	Password string
}

type LoginResult struct {
	AccessToken string
	ExpiresIn   int64
	User        *entity.SystemUser
}

// ClientInfo describes the caller of an operation for the audit trail.
type ClientInfo struct {
	IPAddress *string
	UserAgent *string
}

type clientInfoKey struct{}

func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

func clientInfoFrom(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info
}
