package utils

import (
	"context"

	"equipment-registry/pkg/contextkeys"
	apperrors "equipment-registry/pkg/errors"
)

func GetUserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(string)
	if !ok || userID == "" {
		return "", apperrors.ErrUserIDNotFoundInContext
	}
	return userID, nil
}
