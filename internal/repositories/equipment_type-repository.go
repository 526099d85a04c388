package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"equipment-registry/internal/entities"
	"equipment-registry/internal/infrastructure/bd"
	apperrors "equipment-registry/pkg/errors"
	"equipment-registry/pkg/types"
)

const equipmentTypeTable = "equipment_types"

var equipmentTypeColumns = []string{"et.id", "et.name", "et.serial_number_mask", "et.created_at", "et.updated_at"}

// ЕДИНАЯ КАРТА ПОЛЕЙ (Фильтр + Сортировка)
var equipmentTypeMap = map[string]string{
	"id":                 "et.id",
	"name":               "et.name",
	"serial_number_mask": "et.serial_number_mask",
	"created_at":         "et.created_at",
	"updated_at":         "et.updated_at",
}

type EquipmentTypeRepositoryInterface interface {
	GetEquipmentTypes(ctx context.Context, filter types.Filter) ([]entities.EquipmentType, uint64, error)
	FindEquipmentType(ctx context.Context, tx pgx.Tx, id uint64) (*entities.EquipmentType, error)
	CreateEquipmentType(ctx context.Context, equipmentType entities.EquipmentType) (*entities.EquipmentType, error)
	UpdateEquipmentType(ctx context.Context, tx pgx.Tx, id uint64, equipmentType entities.EquipmentType) error
	DeleteEquipmentType(ctx context.Context, tx pgx.Tx, id uint64) error
}

type EquipmentTypeRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewEquipmentTypeRepository(storage *pgxpool.Pool, logger *zap.Logger) EquipmentTypeRepositoryInterface {
	return &EquipmentTypeRepository{storage: storage, logger: logger}
}

func (r *EquipmentTypeRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func scanEquipmentType(row pgx.Row) (*entities.EquipmentType, error) {
	var et entities.EquipmentType
	err := row.Scan(&et.ID, &et.Name, &et.SerialNumberMask, &et.CreatedAt, &et.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования equipment_type: %w", err)
	}
	return &et, nil
}

func (r *EquipmentTypeRepository) GetEquipmentTypes(ctx context.Context, filter types.Filter) ([]entities.EquipmentType, uint64, error) {
	countFilter := filter
	countFilter.WithPagination = false
	countFilter.Sort = nil

	countBuilder := psql.Select("COUNT(et.id)").From(equipmentTypeTable + " AS et")
	countBuilder = bd.ApplySearch(countBuilder, filter.Search, "et.name", "et.serial_number_mask")
	countBuilder = bd.ApplyListParams(countBuilder, countFilter, equipmentTypeMap)

	sqlCount, argsCount, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.EquipmentType{}, 0, nil
	}

	baseBuilder := psql.Select(equipmentTypeColumns...).From(equipmentTypeTable + " AS et")
	baseBuilder = bd.ApplySearch(baseBuilder, filter.Search, "et.name", "et.serial_number_mask")
	baseBuilder = bd.ApplyListParams(baseBuilder, filter, equipmentTypeMap)
	if len(filter.Sort) == 0 {
		baseBuilder = baseBuilder.OrderBy("et.id ASC")
	}

	query, args, err := baseBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := make([]entities.EquipmentType, 0, filter.Limit)
	for rows.Next() {
		et, err := scanEquipmentType(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *et)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

// FindEquipmentType внутри транзакции блокирует строку до её конца.
func (r *EquipmentTypeRepository) FindEquipmentType(ctx context.Context, tx pgx.Tx, id uint64) (*entities.EquipmentType, error) {
	builder := psql.Select(equipmentTypeColumns...).From(equipmentTypeTable + " AS et").Where(sq.Eq{"et.id": id})
	if tx != nil {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для FindEquipmentType: %w", err)
	}
	return scanEquipmentType(r.getQuerier(tx).QueryRow(ctx, query, args...))
}

func (r *EquipmentTypeRepository) CreateEquipmentType(ctx context.Context, equipmentType entities.EquipmentType) (*entities.EquipmentType, error) {
	query := `
		INSERT INTO equipment_types (name, serial_number_mask, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, name, serial_number_mask, created_at, updated_at
	`
	created, err := scanEquipmentType(r.storage.QueryRow(ctx, query, equipmentType.Name, equipmentType.SerialNumberMask))
	if err != nil {
		if pgErrorCode(err) == pgCheckViolation {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidMask, err)
		}
		return nil, err
	}
	return created, nil
}

func (r *EquipmentTypeRepository) UpdateEquipmentType(ctx context.Context, tx pgx.Tx, id uint64, equipmentType entities.EquipmentType) error {
	query := `
		UPDATE equipment_types
		SET name = $1, serial_number_mask = $2, updated_at = NOW()
		WHERE id = $3
	`
	result, err := r.getQuerier(tx).Exec(ctx, query, equipmentType.Name, equipmentType.SerialNumberMask, id)
	if err != nil {
		if pgErrorCode(err) == pgCheckViolation {
			return fmt.Errorf("%w: %v", apperrors.ErrInvalidMask, err)
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *EquipmentTypeRepository) DeleteEquipmentType(ctx context.Context, tx pgx.Tx, id uint64) error {
	result, err := r.getQuerier(tx).Exec(ctx, `DELETE FROM equipment_types WHERE id = $1`, id)
	if err != nil {
		// ON DELETE RESTRICT: на тип ссылаются (в том числе удаленные) записи оборудования
		if pgErrorCode(err) == pgForeignKeyViolation {
			r.logger.Warn("Удаление типа оборудования заблокировано внешним ключом", zap.Uint64("id", id))
			return fmt.Errorf("%w: %v", apperrors.ErrTypeInUse, err)
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
