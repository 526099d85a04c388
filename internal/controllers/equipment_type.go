package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"equipment-registry/internal/dto"
	"equipment-registry/internal/services"
	"equipment-registry/pkg/api"
	apperrors "equipment-registry/pkg/errors"
	"equipment-registry/pkg/utils"
)

type EquipmentTypeController struct {
	equipmentTypeService services.EquipmentTypeServiceInterface
	logger               *zap.Logger
}

func NewEquipmentTypeController(service services.EquipmentTypeServiceInterface, logger *zap.Logger) *EquipmentTypeController {
	return &EquipmentTypeController{equipmentTypeService: service, logger: logger}
}

func (c *EquipmentTypeController) GetEquipmentTypes(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.equipmentTypeService.GetEquipmentTypes(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("Ошибка получения списка типов оборудования", zap.Error(err))
		return utils.ErrorResponse(ctx, toHttpError(err, "Не удалось получить список типов оборудования", http.StatusNotFound), c.logger)
	}
	return api.SuccessList(ctx, "Успешно", res, total, filter)
}

func (c *EquipmentTypeController) FindEquipmentType(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "типа оборудования")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.equipmentTypeService.FindEquipmentType(ctx.Request().Context(), id)
	if err != nil {
		c.logger.Warn("Ошибка поиска типа оборудования", zap.Uint64("id", id), zap.Error(err))
		return utils.ErrorResponse(ctx, toHttpError(err, "Не удалось найти тип оборудования", http.StatusNotFound), c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Тип оборудования найден", res)
}

func (c *EquipmentTypeController) CreateEquipmentType(ctx echo.Context) error {
	var payload dto.CreateEquipmentTypeDTO
	if err := ctx.Bind(&payload); err != nil {
		c.logger.Error("Ошибка привязки данных для создания типа оборудования", zap.Error(err))
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных в теле запроса", err, nil),
			c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.equipmentTypeService.CreateEquipmentType(ctx.Request().Context(), payload)
	if err != nil {
		c.logger.Error("Ошибка создания типа оборудования", zap.Error(err))
		return utils.ErrorResponse(ctx, toHttpError(err, "Не удалось создать тип оборудования", http.StatusNotFound), c.logger)
	}
	return api.SuccessOne(ctx, http.StatusCreated, "Тип оборудования успешно создан", res)
}

// UpdateEquipmentType - PUT и PATCH; не присланные поля не меняются.
func (c *EquipmentTypeController) UpdateEquipmentType(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "типа оборудования")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.UpdateEquipmentTypeDTO
	if err := ctx.Bind(&payload); err != nil {
		c.logger.Error("Ошибка привязки данных для обновления типа оборудования", zap.Error(err))
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных в теле запроса", err, nil),
			c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.equipmentTypeService.UpdateEquipmentType(ctx.Request().Context(), id, payload)
	if err != nil {
		c.logger.Warn("Ошибка обновления типа оборудования", zap.Uint64("id", id), zap.Error(err))
		return utils.ErrorResponse(ctx, toHttpError(err, "Не удалось обновить тип оборудования", http.StatusNotFound), c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Тип оборудования успешно обновлен", res)
}

func (c *EquipmentTypeController) DeleteEquipmentType(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "типа оборудования")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.equipmentTypeService.DeleteEquipmentType(ctx.Request().Context(), id); err != nil {
		c.logger.Warn("Ошибка удаления типа оборудования", zap.Uint64("id", id), zap.Error(err))
		return utils.ErrorResponse(ctx, toHttpError(err, "Не удалось удалить тип оборудования", http.StatusNotFound), c.logger)
	}
	return api.NoContent(ctx)
}
