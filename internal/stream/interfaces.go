package stream

import (
	"context"
	"time"
)

// Service is the surface the handlers consume. Failures from any of these
// calls bubble to the caller untouched; there is no retry here.
type Service interface {
	UpsertUsers(ctx context.Context, users []User) error
	CreateCall(ctx context.Context, callType, callID string, data CallData) error
	GenerateUserToken(userID string, issuedAt, expiresAt time.Time) (string, error)
}

var _ Service = (*Client)(nil)
