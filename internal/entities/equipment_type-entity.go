package entities

import (
	"equipment-registry/pkg/types"
)

type EquipmentType struct {
	ID               uint64 `json:"id"`
	Name             string `json:"name"`
	SerialNumberMask string `json:"serial_number_mask"`

	types.BaseEntity
}
