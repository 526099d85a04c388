package entities

import (
	"github.com/aarondl/null/v8"

	"equipment-registry/pkg/types"
)

type Equipment struct {
	ID              uint64      `json:"id"`
	EquipmentTypeID uint64      `json:"equipment_type_id"`
	SerialNumber    string      `json:"serial_number"`
	Note            null.String `json:"note"`
	IsDeleted       bool        `json:"is_deleted"`

	types.BaseEntity

	// Связанные данные (не колонка в таблице)
	EquipmentType *EquipmentType `db:"-"`
}
