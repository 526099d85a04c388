package dto

type CreateEquipmentTypeDTO struct {
	Name             string `json:"name" validate:"required,notblank,max=255"`
	SerialNumberMask string `json:"serial_number_mask" validate:"required,max=255,serial_mask"`
}

// UpdateEquipmentTypeDTO - для PUT и PATCH; не переданные поля не меняются.
type UpdateEquipmentTypeDTO struct {
	Name             *string `json:"name,omitempty" validate:"omitempty,notblank,max=255"`
	SerialNumberMask *string `json:"serial_number_mask,omitempty" validate:"omitempty,max=255,serial_mask"`
}

type EquipmentTypeDTO struct {
	ID               uint64 `json:"id"`
	Name             string `json:"name"`
	SerialNumberMask string `json:"serial_number_mask"`
	CreatedAt        string `json:"created_at,omitempty"`
	UpdatedAt        string `json:"updated_at,omitempty"`
}

type ShortEquipmentTypeDTO struct {
	ID               uint64 `json:"id"`
	Name             string `json:"name"`
	SerialNumberMask string `json:"serial_number_mask"`
}
