package dto

import "github.com/aarondl/null/v8"

// CreateEquipmentDTO - пакетное создание: один тип, много серийных номеров, общее примечание.
// Размер пакета ограничен тем же лимитом, что и импорт из xlsx.
type CreateEquipmentDTO struct {
	EquipmentTypeID uint64      `json:"equipment_type_id" validate:"required,gt=0"`
	SerialNumbers   []string    `json:"serial_numbers" validate:"required,min=1,max_batch,dive,notblank,max=255"`
	Note            null.String `json:"note"`
}

// UpdateEquipmentDTO - для PUT и PATCH.
// NoteSet выставляет контроллер, если поле note пришло в теле (в том числе как null).
type UpdateEquipmentDTO struct {
	EquipmentTypeID *uint64     `json:"equipment_type_id,omitempty" validate:"omitempty,gt=0"`
	SerialNumber    *string     `json:"serial_number,omitempty" validate:"omitempty,notblank,max=255"`
	Note            null.String `json:"note"`
	NoteSet         bool        `json:"-"`
}

// EquipmentDTO - сериализованная запись оборудования.
type EquipmentDTO struct {
	ID            uint64                `json:"id"`
	EquipmentType ShortEquipmentTypeDTO `json:"equipment_type"`
	SerialNumber  string                `json:"serial_number"`
	Note          null.String           `json:"note"`
	IsDeleted     bool                  `json:"is_deleted"`
}

type BatchItemErrorDTO struct {
	SerialNumber string `json:"serial_number"`
	Code         string `json:"code"`
	Error        string `json:"error"`
}

// BatchCreateResultDTO - ответ на пакетное создание, порядок совпадает с порядком во входном списке.
type BatchCreateResultDTO struct {
	CreatedEquipment []EquipmentDTO      `json:"created_equipment"`
	Errors           []BatchItemErrorDTO `json:"errors"`
}
