package api

import (
	"context"
	"errors"
)

type keyType string

const (
	adminKey keyType = "admin"
)

// ctxWithAdmin adds the authenticated admin subject to the context
func ctxWithAdmin(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, adminKey, subject)
}

// ctxGetAdmin retrieves the admin subject set by the auth middleware
func ctxGetAdmin(ctx context.Context) (string, error) {
	if ctxValue := ctx.Value(adminKey); ctxValue == nil {
		return "", errors.New("key not found in context")
	} else if valueAsString, ok := ctxValue.(string); !ok {
		return "", errors.New("value is not of type `string`")
	} else {
		return valueAsString, nil
	}
}
