package services

import (
	"context"

	"github.com/jackc/pgx/v5"

	"equipment-registry/internal/repositories"
)

// SerialGuard проверяет, занята ли пара (тип, серийный номер) среди не удаленных записей.
// Только читает. excludeID исключает саму обновляемую запись.
type SerialGuard struct {
	equipmentRepository repositories.EquipmentRepositoryInterface
}

func NewSerialGuard(equipmentRepository repositories.EquipmentRepositoryInterface) *SerialGuard {
	return &SerialGuard{equipmentRepository: equipmentRepository}
}

func (g *SerialGuard) Exists(ctx context.Context, tx pgx.Tx, equipmentTypeID uint64, serialNumber string, excludeID *uint64) (bool, error) {
	return g.equipmentRepository.ExistsActive(ctx, tx, equipmentTypeID, serialNumber, excludeID)
}
