package validation

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"equipment-registry/config"
	"equipment-registry/pkg/serialmask"
)

// registerRules регистрирует теги, которые мы используем в struct tags
func registerRules(v *validator.Validate) error {
	if err := v.RegisterValidation("serial_mask", isSerialMask); err != nil {
		return err
	}
	if err := v.RegisterValidation("notblank", isNotBlank); err != nil {
		return err
	}
	if err := v.RegisterValidation("max_batch", isWithinBatchLimit); err != nil {
		return err
	}
	return nil
}

// isSerialMask - маска состоит только из символов N, A, a, X, Z
func isSerialMask(fl validator.FieldLevel) bool {
	return serialmask.Validate(fl.Field().String()) == nil
}

// isNotBlank - строка не пустая после обрезки пробелов
func isNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// isWithinBatchLimit - в пакете не больше config.MaxBatchSize() элементов
func isWithinBatchLimit(fl validator.FieldLevel) bool {
	limit := config.MaxBatchSize()
	return limit <= 0 || fl.Field().Len() <= limit
}
