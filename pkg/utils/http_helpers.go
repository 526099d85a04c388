package utils

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "equipment-registry/pkg/errors"
)

// ParseIDParam читает положительный :id из пути.
func ParseIDParam(ctx echo.Context, what string) (uint64, error) {
	raw := ctx.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		if err == nil {
			err = apperrors.ErrBadRequest
		}
		return 0, apperrors.NewHttpError(
			http.StatusBadRequest,
			"Неверный формат ID "+what,
			err,
			map[string]interface{}{"param": raw},
		)
	}
	return id, nil
}
