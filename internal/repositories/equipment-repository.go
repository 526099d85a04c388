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

const equipmentTable = "equipments"

var equipmentColumns = []string{
	"e.id", "e.equipment_type_id", "e.serial_number", "e.note", "e.is_deleted", "e.created_at", "e.updated_at",
	"et.id", "et.name", "et.serial_number_mask",
}

// ЕДИНАЯ КАРТА ПОЛЕЙ (Фильтр + Сортировка)
var equipmentMap = map[string]string{
	"id":                  "e.id",
	"equipment_type_id":   "e.equipment_type_id",
	"equipment_type_name": "et.name",
	"serial_number":       "e.serial_number",
	"note":                "e.note",
	"created_at":          "e.created_at",
	"updated_at":          "e.updated_at",
}

// DeletedScope - какие записи попадают в список.
type DeletedScope int

const (
	ScopeActive DeletedScope = iota
	ScopeDeleted
	ScopeAll
)

type EquipmentRepositoryInterface interface {
	GetEquipments(ctx context.Context, filter types.Filter, scope DeletedScope) ([]entities.Equipment, uint64, error)
	FindEquipment(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error)
	ExistsActive(ctx context.Context, tx pgx.Tx, equipmentTypeID uint64, serialNumber string, excludeID *uint64) (bool, error)
	CreateEquipment(ctx context.Context, equipment entities.Equipment) (*entities.Equipment, error)
	UpdateEquipment(ctx context.Context, tx pgx.Tx, id uint64, equipment entities.Equipment) error
	SoftDeleteEquipment(ctx context.Context, tx pgx.Tx, id uint64) error
	UndeleteEquipment(ctx context.Context, tx pgx.Tx, id uint64) error

	// Для проверок со стороны типов оборудования
	HasActiveByType(ctx context.Context, tx pgx.Tx, equipmentTypeID uint64) (bool, error)
	ActiveSerialNumbersByType(ctx context.Context, tx pgx.Tx, equipmentTypeID uint64) ([]string, error)
}

type EquipmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewEquipmentRepository(storage *pgxpool.Pool, logger *zap.Logger) EquipmentRepositoryInterface {
	return &EquipmentRepository{storage: storage, logger: logger}
}

func (r *EquipmentRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

// -----------------------------------------------------------
// SCAN
// -----------------------------------------------------------

func scanEquipment(row pgx.Row) (*entities.Equipment, error) {
	var e entities.Equipment
	var et entities.EquipmentType

	err := row.Scan(
		&e.ID, &e.EquipmentTypeID, &e.SerialNumber, &e.Note, &e.IsDeleted, &e.CreatedAt, &e.UpdatedAt,
		&et.ID, &et.Name, &et.SerialNumberMask,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования equipment: %w", err)
	}

	e.EquipmentType = &et
	return &e, nil
}

func (r *EquipmentRepository) baseSelect(columns ...string) sq.SelectBuilder {
	return psql.Select(columns...).
		From(equipmentTable + " AS e").
		Join(equipmentTypeTable + " AS et ON et.id = e.equipment_type_id")
}

func applyScope(builder sq.SelectBuilder, scope DeletedScope) sq.SelectBuilder {
	switch scope {
	case ScopeDeleted:
		return builder.Where(sq.Eq{"e.is_deleted": true})
	case ScopeAll:
		return builder
	default:
		return builder.Where(sq.Eq{"e.is_deleted": false})
	}
}

// -----------------------------------------------------------
// GET (Список)
// -----------------------------------------------------------

func (r *EquipmentRepository) GetEquipments(ctx context.Context, filter types.Filter, scope DeletedScope) ([]entities.Equipment, uint64, error) {
	searchColumns := []string{"e.serial_number", "e.note", "et.name"}

	countFilter := filter
	countFilter.WithPagination = false
	countFilter.Sort = nil

	countBuilder := applyScope(r.baseSelect("COUNT(e.id)"), scope)
	countBuilder = bd.ApplySearch(countBuilder, filter.Search, searchColumns...)
	countBuilder = bd.ApplyListParams(countBuilder, countFilter, equipmentMap)

	sqlCount, argsCount, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.Equipment{}, 0, nil
	}

	baseBuilder := applyScope(r.baseSelect(equipmentColumns...), scope)
	baseBuilder = bd.ApplySearch(baseBuilder, filter.Search, searchColumns...)
	baseBuilder = bd.ApplyListParams(baseBuilder, filter, equipmentMap)
	if len(filter.Sort) == 0 {
		baseBuilder = baseBuilder.OrderBy("e.id DESC")
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

	list := make([]entities.Equipment, 0, filter.Limit)
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

// -----------------------------------------------------------
// FIND ONE / EXISTS
// -----------------------------------------------------------

// FindEquipment внутри транзакции блокирует строку оборудования до её конца.
func (r *EquipmentRepository) FindEquipment(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	builder := r.baseSelect(equipmentColumns...).Where(sq.Eq{"e.id": id})
	if tx != nil {
		builder = builder.Suffix("FOR UPDATE OF e")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для FindEquipment: %w", err)
	}
	return scanEquipment(r.getQuerier(tx).QueryRow(ctx, query, args...))
}

// ExistsActive проверяет пару (тип, серийный номер) среди не удаленных записей.
func (r *EquipmentRepository) ExistsActive(ctx context.Context, tx pgx.Tx, equipmentTypeID uint64, serialNumber string, excludeID *uint64) (bool, error) {
	where := sq.And{
		sq.Eq{"equipment_type_id": equipmentTypeID},
		sq.Eq{"serial_number": serialNumber},
		sq.Eq{"is_deleted": false},
	}
	if excludeID != nil {
		where = append(where, sq.NotEq{"id": *excludeID})
	}

	query, args, err := psql.Select("1").From(equipmentTable).Where(where).
		Prefix("SELECT EXISTS(").Suffix(")").ToSql()
	if err != nil {
		return false, err
	}

	var exists bool
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *EquipmentRepository) HasActiveByType(ctx context.Context, tx pgx.Tx, equipmentTypeID uint64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM equipments WHERE equipment_type_id = $1 AND is_deleted = FALSE)`
	var exists bool
	if err := r.getQuerier(tx).QueryRow(ctx, query, equipmentTypeID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *EquipmentRepository) ActiveSerialNumbersByType(ctx context.Context, tx pgx.Tx, equipmentTypeID uint64) ([]string, error) {
	query := `SELECT serial_number FROM equipments WHERE equipment_type_id = $1 AND is_deleted = FALSE ORDER BY id`
	rows, err := r.getQuerier(tx).Query(ctx, query, equipmentTypeID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// -----------------------------------------------------------
// CRUD
// -----------------------------------------------------------

// CreateEquipment пишет одну запись вне транзакции: каждая вставка коммитится сама.
func (r *EquipmentRepository) CreateEquipment(ctx context.Context, equipment entities.Equipment) (*entities.Equipment, error) {
	query := `
		INSERT INTO equipments (equipment_type_id, serial_number, note, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, FALSE, NOW(), NOW())
		RETURNING id, is_deleted, created_at, updated_at
	`
	created := equipment
	err := r.storage.QueryRow(ctx, query, equipment.EquipmentTypeID, equipment.SerialNumber, equipment.Note).
		Scan(&created.ID, &created.IsDeleted, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			return nil, fmt.Errorf("%w: %v", apperrors.ErrDuplicateSerialNumber, err)
		case pgForeignKeyViolation:
			return nil, fmt.Errorf("%w: %v", apperrors.ErrEquipmentTypeNotFound, err)
		}
		return nil, err
	}
	return &created, nil
}

func (r *EquipmentRepository) UpdateEquipment(ctx context.Context, tx pgx.Tx, id uint64, equipment entities.Equipment) error {
	query := `
		UPDATE equipments
		SET equipment_type_id = $1, serial_number = $2, note = $3, updated_at = NOW()
		WHERE id = $4
	`
	result, err := r.getQuerier(tx).Exec(ctx, query, equipment.EquipmentTypeID, equipment.SerialNumber, equipment.Note, id)
	if err != nil {
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %v", apperrors.ErrDuplicateSerialNumber, err)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %v", apperrors.ErrEquipmentTypeNotFound, err)
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *EquipmentRepository) SoftDeleteEquipment(ctx context.Context, tx pgx.Tx, id uint64) error {
	return r.setDeleted(ctx, tx, id, true)
}

func (r *EquipmentRepository) UndeleteEquipment(ctx context.Context, tx pgx.Tx, id uint64) error {
	return r.setDeleted(ctx, tx, id, false)
}

func (r *EquipmentRepository) setDeleted(ctx context.Context, tx pgx.Tx, id uint64, deleted bool) error {
	query := `UPDATE equipments SET is_deleted = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.getQuerier(tx).Exec(ctx, query, deleted, id)
	if err != nil {
		// восстановление снова включает запись в уникальный индекс
		if pgErrorCode(err) == pgUniqueViolation {
			r.logger.Warn("Восстановление оборудования конфликтует с активной записью", zap.Uint64("id", id))
			return fmt.Errorf("%w: %v", apperrors.ErrDuplicateSerialNumber, err)
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
