package controllers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	apperrors "equipment-registry/pkg/errors"
)

// domainStatus - HTTP-код для доменных ошибок. Порядок важен: первая совпавшая побеждает.
var domainStatus = []struct {
	err  error
	code int
}{
	{apperrors.ErrNotFound, http.StatusNotFound},
	{apperrors.ErrInvalidMask, http.StatusBadRequest},
	{apperrors.ErrMaskMismatch, http.StatusBadRequest},
	{apperrors.ErrDuplicateSerialNumber, http.StatusConflict},
	{apperrors.ErrMaskConflict, http.StatusConflict},
	{apperrors.ErrTypeInUse, http.StatusBadRequest},
	{apperrors.ErrAlreadyDeleted, http.StatusBadRequest},
	{apperrors.ErrNotDeleted, http.StatusBadRequest},
	{apperrors.ErrBadRequest, http.StatusBadRequest},
}

// toHttpError переводит ошибку сервиса в HttpError. typeNotFoundCode - код для
// ErrEquipmentTypeNotFound: 404, если тип - сам ресурс, 400, если он пришел в теле запроса.
// Ошибки валидации возвращаются как есть, их форматирует utils.ErrorResponse.
func toHttpError(err error, fallback string, typeNotFoundCode int) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return err
	}

	var invalidInput *apperrors.InvalidInputError
	if errors.As(err, &invalidInput) {
		return apperrors.NewHttpError(http.StatusBadRequest, invalidInput.Message, nil, nil)
	}

	if errors.Is(err, apperrors.ErrEquipmentTypeNotFound) {
		return apperrors.NewHttpError(typeNotFoundCode, "Указанный тип оборудования не существует", nil, nil)
	}

	for _, m := range domainStatus {
		if errors.Is(err, m.err) {
			return apperrors.NewHttpError(m.code, err.Error(), nil, nil)
		}
	}

	return apperrors.NewHttpError(http.StatusInternalServerError, fallback, err, nil)
}
