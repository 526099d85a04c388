package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/aarondl/null/v8"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"equipment-registry/internal/dto"
	"equipment-registry/internal/repositories"
	"equipment-registry/internal/services"
	"equipment-registry/pkg/api"
	apperrors "equipment-registry/pkg/errors"
	"equipment-registry/pkg/utils"
	"equipment-registry/pkg/validation"
)

const equipmentImportContext = "equipment_import"

type EquipmentController struct {
	equipmentService services.EquipmentServiceInterface
	importService    services.EquipmentImportServiceInterface
	logger           *zap.Logger
}

func NewEquipmentController(
	service services.EquipmentServiceInterface,
	importService services.EquipmentImportServiceInterface,
	logger *zap.Logger,
) *EquipmentController {
	return &EquipmentController{
		equipmentService: service,
		importService:    importService,
		logger:           logger,
	}
}

// batchStatus: 201 - все создано, 400 - ничего не создано, 207 - частично.
func batchStatus(result *dto.BatchCreateResultDTO) int {
	switch {
	case len(result.Errors) == 0:
		return http.StatusCreated
	case len(result.CreatedEquipment) == 0:
		return http.StatusBadRequest
	default:
		return http.StatusMultiStatus
	}
}

// parseDeletedScope: по умолчанию только активные, is_deleted=true - только удаленные, is_deleted=all - все.
func parseDeletedScope(raw string) (repositories.DeletedScope, bool) {
	switch raw {
	case "":
		return repositories.ScopeActive, true
	case "all":
		return repositories.ScopeAll, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return repositories.ScopeActive, false
	}
	if v {
		return repositories.ScopeDeleted, true
	}
	return repositories.ScopeActive, true
}

// ----- РАБОЧИЕ МЕТОДЫ КОНТРОЛЛЕРА -----

func (c *EquipmentController) GetEquipments(ctx echo.Context) error {
	query := ctx.Request().URL.Query()
	scope, ok := parseDeletedScope(query.Get("is_deleted"))
	if !ok {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Параметр is_deleted должен быть true, false или all", nil, nil),
			c.logger)
	}
	filter := utils.ParseFilterFromQuery(query)

	res, total, err := c.equipmentService.GetEquipments(ctx.Request().Context(), filter, scope)
	if err != nil {
		c.logger.Error("GetEquipments: ошибка при получении списка оборудования", zap.Error(err))
		return utils.ErrorResponse(ctx, toHttpError(err, "Не удалось получить список оборудования", http.StatusBadRequest), c.logger)
	}

	return api.SuccessList(ctx, "Список оборудования успешно получен", res, total, filter)
}

func (c *EquipmentController) FindEquipment(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "оборудования")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.equipmentService.FindEquipment(ctx.Request().Context(), id)
	if err != nil {
		c.logger.Warn("FindEquipment: ошибка при поиске оборудования", zap.Uint64("id", id), zap.Error(err))
		return utils.ErrorResponse(ctx, toHttpError(err, "Не удалось найти оборудование", http.StatusBadRequest), c.logger)
	}

	return api.SuccessOne(ctx, http.StatusOK, "Оборудование успешно найдено", res)
}

// CreateEquipment - пакетное создание. Ответ без общей обертки: {created_equipment, errors}.
func (c *EquipmentController) CreateEquipment(ctx echo.Context) error {
	var payload dto.CreateEquipmentDTO
	if err := ctx.Bind(&payload); err != nil {
		c.logger.Error("CreateEquipment: ошибка привязки данных", zap.Error(err))
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных в теле запроса", err, nil),
			c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		c.logger.Warn("CreateEquipment: ошибка валидации данных", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.equipmentService.Execute(ctx.Request().Context(), services.NewCreateEquipmentCommand(payload))
	if err != nil {
		c.logger.Error("CreateEquipment: ошибка при создании оборудования", zap.Uint64("equipment_type_id", payload.EquipmentTypeID), zap.Error(err))
		return utils.ErrorResponse(ctx, toHttpError(err, "Не удалось создать оборудование", http.StatusBadRequest), c.logger)
	}

	return ctx.JSON(batchStatus(res.Batch), res.Batch)
}

// ImportEquipment принимает multipart: file (xlsx), equipment_type_id, note.
func (c *EquipmentController) ImportEquipment(ctx echo.Context) error {
	typeID, err := strconv.ParseUint(ctx.FormValue("equipment_type_id"), 10, 64)
	if err != nil || typeID == 0 {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Поле equipment_type_id обязательно", err, nil),
			c.logger)
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Файл не передан", err, nil),
			c.logger)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusInternalServerError, "Не удалось открыть файл", err, nil),
			c.logger)
	}
	defer file.Close()

	if err := validation.ValidateFile(fileHeader, file, equipmentImportContext); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, err.Error(), nil, nil),
			c.logger)
	}

	var note null.String
	if values, err := ctx.FormParams(); err == nil && values.Has("note") {
		note = null.StringFrom(values.Get("note"))
	}

	res, err := c.importService.ImportSerialNumbers(ctx.Request().Context(), typeID, note, file)
	if err != nil {
		c.logger.Error("ImportEquipment: ошибка импорта", zap.String("file", fileHeader.Filename), zap.Error(err))
		return utils.ErrorResponse(ctx, toHttpError(err, "Не удалось импортировать оборудование", http.StatusBadRequest), c.logger)
	}

	return ctx.JSON(batchStatus(res), res)
}

// UpdateEquipment обслуживает PUT и PATCH. PUT требует тип и серийный номер,
// PATCH меняет только присланные поля.
func (c *EquipmentController) UpdateEquipment(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "оборудования")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	body, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Не удалось прочитать тело запроса", err, nil),
			c.logger)
	}

	var payload dto.UpdateEquipmentDTO
	sent, err := utils.SentFields(body)
	if err == nil {
		err = json.Unmarshal(body, &payload)
	}
	if err != nil {
		c.logger.Warn("UpdateEquipment: ошибка привязки данных", zap.Error(err))
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных в теле запроса", err, nil),
			c.logger)
	}
	payload.NoteSet = sent["note"]

	if ctx.Request().Method == http.MethodPut && (payload.EquipmentTypeID == nil || payload.SerialNumber == nil) {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Для PUT обязательны поля equipment_type_id и serial_number", nil, nil),
			c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		c.logger.Warn("UpdateEquipment: ошибка валидации данных", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.equipmentService.Execute(ctx.Request().Context(), services.NewUpdateEquipmentCommand(id, payload))
	if err != nil {
		c.logger.Warn("UpdateEquipment: ошибка при обновлении оборудования", zap.Uint64("id", id), zap.Error(err))
		return utils.ErrorResponse(ctx, toHttpError(err, "Не удалось обновить оборудование", http.StatusBadRequest), c.logger)
	}

	return api.SuccessOne(ctx, http.StatusOK, "Оборудование успешно обновлено", res.Equipment)
}

func (c *EquipmentController) DeleteEquipment(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "оборудования")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.equipmentService.DeleteEquipment(ctx.Request().Context(), id); err != nil {
		c.logger.Warn("DeleteEquipment: ошибка при удалении оборудования", zap.Uint64("id", id), zap.Error(err))
		return utils.ErrorResponse(ctx, toHttpError(err, "Не удалось удалить оборудование", http.StatusBadRequest), c.logger)
	}

	return api.NoContent(ctx)
}

func (c *EquipmentController) RestoreEquipment(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "оборудования")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.equipmentService.RestoreEquipment(ctx.Request().Context(), id)
	if err != nil {
		c.logger.Warn("RestoreEquipment: ошибка при восстановлении оборудования", zap.Uint64("id", id), zap.Error(err))
		return utils.ErrorResponse(ctx, toHttpError(err, "Не удалось восстановить оборудование", http.StatusBadRequest), c.logger)
	}

	return api.SuccessOne(ctx, http.StatusOK, "Оборудование успешно восстановлено", res)
}
