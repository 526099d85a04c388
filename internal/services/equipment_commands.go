package services

import (
	"github.com/aarondl/null/v8"

	"equipment-registry/internal/dto"
)

// EquipmentCommand - закрытый набор операций над оборудованием.
// Разбирается одним switch в EquipmentService.Execute.
type EquipmentCommand interface {
	equipmentCommand()
}

// CreateEquipmentCommand - пакетное создание.
type CreateEquipmentCommand struct {
	EquipmentTypeID uint64
	SerialNumbers   []string
	Note            null.String
}

// UpdateEquipmentCommand - изменение одной записи. nil-поля не меняются,
// Note применяется только при NoteSet.
type UpdateEquipmentCommand struct {
	ID              uint64
	EquipmentTypeID *uint64
	SerialNumber    *string
	Note            null.String
	NoteSet         bool
}

func (CreateEquipmentCommand) equipmentCommand() {}
func (UpdateEquipmentCommand) equipmentCommand() {}

// touchesIdentity - меняется ли тип или серийный номер.
func (c UpdateEquipmentCommand) touchesIdentity() bool {
	return c.EquipmentTypeID != nil || c.SerialNumber != nil
}

func NewCreateEquipmentCommand(payload dto.CreateEquipmentDTO) CreateEquipmentCommand {
	return CreateEquipmentCommand{
		EquipmentTypeID: payload.EquipmentTypeID,
		SerialNumbers:   payload.SerialNumbers,
		Note:            payload.Note,
	}
}

func NewUpdateEquipmentCommand(id uint64, payload dto.UpdateEquipmentDTO) UpdateEquipmentCommand {
	return UpdateEquipmentCommand{
		ID:              id,
		EquipmentTypeID: payload.EquipmentTypeID,
		SerialNumber:    payload.SerialNumber,
		Note:            payload.Note,
		NoteSet:         payload.NoteSet,
	}
}

// CommandResult - заполнено ровно одно поле, в зависимости от команды.
type CommandResult struct {
	Batch     *dto.BatchCreateResultDTO
	Equipment *dto.EquipmentDTO
}
