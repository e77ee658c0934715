package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/addissystems/orgadmin/pkg/constants"
)

var (
	ErrNoActor  = errors.New("no acting user found in context")
	ErrNoLogger = errors.New("logger not found")
)

// Params carries request metadata the engine needs for audit records. The
// transport layer fills it in; nothing here implies a particular transport.
type Params struct {
	IP        string
	UserAgent string
}

func WithParams(ctx context.Context, params *Params) context.Context {
	return context.WithValue(ctx, constants.ParamsKey, params)
}

func UseParams(ctx context.Context) (*Params, bool) {
	params, ok := ctx.Value(constants.ParamsKey).(*Params)
	return params, ok
}

// UseIP returns the source address from the context, empty when the request
// is system-initiated.
func UseIP(ctx context.Context) (string, bool) {
	params, ok := UseParams(ctx)
	if !ok {
		return "", false
	}
	return params.IP, true
}

// WithActorID stamps the authenticated user's id onto the context.
// Authentication itself happens upstream; the engine only consumes the
// identity.
func WithActorID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.UserKey, id)
}

func UseActorID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(constants.UserKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrNoActor
	}
	return id, nil
}

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

// UseLogger returns the request-scoped logger, falling back to a standard
// logger so library code never has to nil-check.
func UseLogger(ctx context.Context) *logrus.Entry {
	logger, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry)
	if !ok {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return logger
}
