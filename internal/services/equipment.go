package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"equipment-registry/internal/dto"
	"equipment-registry/internal/entities"
	"equipment-registry/internal/observability/metrics"
	"equipment-registry/internal/repositories"
	apperrors "equipment-registry/pkg/errors"
	"equipment-registry/pkg/serialmask"
	"equipment-registry/pkg/types"
)

// Коды ошибок отдельных элементов пакетного создания.
const (
	ItemCodeMaskMismatch       = "MASK_MISMATCH"
	ItemCodeDuplicateSerial    = "DUPLICATE_SERIAL_NUMBER"
	ItemCodePersistenceFailure = "PERSISTENCE_FAILURE"
)

type EquipmentServiceInterface interface {
	GetEquipments(ctx context.Context, filter types.Filter, scope repositories.DeletedScope) ([]dto.EquipmentDTO, uint64, error)
	FindEquipment(ctx context.Context, id uint64) (*dto.EquipmentDTO, error)
	Execute(ctx context.Context, cmd EquipmentCommand) (*CommandResult, error)
	DeleteEquipment(ctx context.Context, id uint64) error
	RestoreEquipment(ctx context.Context, id uint64) (*dto.EquipmentDTO, error)
}

type EquipmentService struct {
	equipmentRepository repositories.EquipmentRepositoryInterface
	etRepository        repositories.EquipmentTypeRepositoryInterface
	types               EquipmentTypeLookup
	guard               *SerialGuard
	txManager           repositories.TxManagerInterface
	logger              *zap.Logger
}

func NewEquipmentService(
	equipmentRepository repositories.EquipmentRepositoryInterface,
	etRepository repositories.EquipmentTypeRepositoryInterface,
	typeLookup EquipmentTypeLookup,
	txManager repositories.TxManagerInterface,
	logger *zap.Logger,
) *EquipmentService {
	return &EquipmentService{
		equipmentRepository: equipmentRepository,
		etRepository:        etRepository,
		types:               typeLookup,
		guard:               NewSerialGuard(equipmentRepository),
		txManager:           txManager,
		logger:              logger,
	}
}

func equipmentEntityToDTO(entity *entities.Equipment) dto.EquipmentDTO {
	result := dto.EquipmentDTO{
		ID:           entity.ID,
		SerialNumber: entity.SerialNumber,
		Note:         entity.Note,
		IsDeleted:    entity.IsDeleted,
	}
	if entity.EquipmentType != nil {
		result.EquipmentType = dto.ShortEquipmentTypeDTO{
			ID:               entity.EquipmentType.ID,
			Name:             entity.EquipmentType.Name,
			SerialNumberMask: entity.EquipmentType.SerialNumberMask,
		}
	} else {
		result.EquipmentType = dto.ShortEquipmentTypeDTO{ID: entity.EquipmentTypeID}
	}
	return result
}

func maskMismatchMessage(serialNumber, mask string) string {
	return fmt.Sprintf("Серийный номер '%s' не соответствует маске '%s'.", serialNumber, mask)
}

func duplicateMessage(typeName, serialNumber string) string {
	return fmt.Sprintf("Оборудование с типом '%s' и серийным номером '%s' уже существует.", typeName, serialNumber)
}

func persistenceMessage(serialNumber string, err error) string {
	return fmt.Sprintf("%v '%s': %v", apperrors.ErrPersistence, serialNumber, err)
}

// -----------------------------------------------------------
// ЧТЕНИЕ
// -----------------------------------------------------------

func (s *EquipmentService) GetEquipments(ctx context.Context, filter types.Filter, scope repositories.DeletedScope) ([]dto.EquipmentDTO, uint64, error) {
	list, total, err := s.equipmentRepository.GetEquipments(ctx, filter, scope)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]dto.EquipmentDTO, 0, len(list))
	for i := range list {
		dtos = append(dtos, equipmentEntityToDTO(&list[i]))
	}
	return dtos, total, nil
}

// FindEquipment возвращает и удаленные записи: у них is_deleted = true.
func (s *EquipmentService) FindEquipment(ctx context.Context, id uint64) (*dto.EquipmentDTO, error) {
	entity, err := s.equipmentRepository.FindEquipment(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	result := equipmentEntityToDTO(entity)
	return &result, nil
}

// -----------------------------------------------------------
// КОМАНДЫ
// -----------------------------------------------------------

// Execute - единственная точка входа для создания и изменения.
func (s *EquipmentService) Execute(ctx context.Context, cmd EquipmentCommand) (*CommandResult, error) {
	switch c := cmd.(type) {
	case CreateEquipmentCommand:
		batch, err := s.CreateBatch(ctx, c)
		if err != nil {
			return nil, err
		}
		return &CommandResult{Batch: batch}, nil
	case UpdateEquipmentCommand:
		updated, err := s.UpdateEquipment(ctx, c)
		if err != nil {
			return nil, err
		}
		return &CommandResult{Equipment: updated}, nil
	default:
		return nil, fmt.Errorf("%w: неизвестная команда %T", apperrors.ErrBadRequest, cmd)
	}
}

// CreateBatch создает записи по одной, каждая вставка коммитится отдельно.
// Ошибка одного номера не останавливает остальные. Порядок в обоих списках
// результата совпадает с порядком входных номеров.
// Ошибка уровня вызова (тип не найден) возвращается до первой вставки.
func (s *EquipmentService) CreateBatch(ctx context.Context, cmd CreateEquipmentCommand) (*dto.BatchCreateResultDTO, error) {
	started := time.Now()

	equipmentType, err := s.types.GetType(ctx, cmd.EquipmentTypeID)
	if err != nil {
		return nil, err
	}
	pattern, err := serialmask.Compile(equipmentType.SerialNumberMask)
	if err != nil {
		s.logger.Error("У типа оборудования сохранена недопустимая маска",
			zap.Uint64("equipment_type_id", equipmentType.ID), zap.Error(err))
		return nil, err
	}

	result := &dto.BatchCreateResultDTO{
		CreatedEquipment: make([]dto.EquipmentDTO, 0, len(cmd.SerialNumbers)),
		Errors:           make([]dto.BatchItemErrorDTO, 0),
	}
	fail := func(serialNumber, code, message string) {
		metrics.IncBatchItem(code)
		result.Errors = append(result.Errors, dto.BatchItemErrorDTO{
			SerialNumber: serialNumber,
			Code:         code,
			Error:        message,
		})
	}

	// номера, уже созданные в этом пакете
	created := make(map[string]struct{}, len(cmd.SerialNumbers))

	for _, raw := range cmd.SerialNumbers {
		serialNumber := strings.TrimSpace(raw)
		if !pattern.Match(serialNumber) {
			fail(serialNumber, ItemCodeMaskMismatch, maskMismatchMessage(serialNumber, pattern.Mask()))
			continue
		}
		if _, ok := created[serialNumber]; ok {
			fail(serialNumber, ItemCodeDuplicateSerial, duplicateMessage(equipmentType.Name, serialNumber))
			continue
		}

		exists, err := s.guard.Exists(ctx, nil, equipmentType.ID, serialNumber, nil)
		if err != nil {
			s.logger.Error("Не удалось проверить уникальность серийного номера",
				zap.String("serial_number", serialNumber), zap.Error(err))
			fail(serialNumber, ItemCodePersistenceFailure, persistenceMessage(serialNumber, err))
			continue
		}
		if exists {
			fail(serialNumber, ItemCodeDuplicateSerial, duplicateMessage(equipmentType.Name, serialNumber))
			continue
		}

		entity, err := s.equipmentRepository.CreateEquipment(ctx, entities.Equipment{
			EquipmentTypeID: equipmentType.ID,
			SerialNumber:    serialNumber,
			Note:            cmd.Note,
		})
		if err != nil {
			// сюда же попадает гонка с параллельной вставкой того же номера
			s.logger.Error("Ошибка при создании оборудования",
				zap.String("serial_number", serialNumber), zap.Error(err))
			fail(serialNumber, ItemCodePersistenceFailure, persistenceMessage(serialNumber, err))
			continue
		}

		created[serialNumber] = struct{}{}
		entity.EquipmentType = equipmentType
		metrics.IncBatchItem(metrics.OutcomeCreated)
		result.CreatedEquipment = append(result.CreatedEquipment, equipmentEntityToDTO(entity))
	}

	outcome := metrics.BatchOutcome(len(result.CreatedEquipment), len(result.Errors))
	metrics.ObserveBatch(outcome, time.Since(started))
	s.logger.Info("Пакетное создание оборудования завершено",
		zap.Uint64("equipment_type_id", equipmentType.ID),
		zap.Int("created", len(result.CreatedEquipment)),
		zap.Int("failed", len(result.Errors)),
	)
	return result, nil
}

// ValidatedUpdate - запись после применения изменений и тип, с которым она проверена.
type ValidatedUpdate struct {
	Equipment   entities.Equipment
	Revalidated bool
}

// ValidateUpdate применяет изменения к existing и проверяет результат.
// Маска и уникальность проверяются, только если меняется тип или серийный номер;
// изменение одного примечания в хранилище не обращается.
func (s *EquipmentService) ValidateUpdate(ctx context.Context, tx pgx.Tx, existing *entities.Equipment, changes UpdateEquipmentCommand) (*ValidatedUpdate, error) {
	next := *existing
	if changes.NoteSet {
		next.Note = changes.Note
	}
	if !changes.touchesIdentity() {
		return &ValidatedUpdate{Equipment: next}, nil
	}

	if changes.SerialNumber != nil {
		next.SerialNumber = strings.TrimSpace(*changes.SerialNumber)
	}

	equipmentType := existing.EquipmentType
	if changes.EquipmentTypeID != nil {
		next.EquipmentTypeID = *changes.EquipmentTypeID
	}
	if equipmentType == nil || equipmentType.ID != next.EquipmentTypeID {
		loaded, err := s.etRepository.FindEquipmentType(ctx, tx, next.EquipmentTypeID)
		if err != nil {
			return nil, notFoundAsTypeNotFound(err)
		}
		equipmentType = loaded
	}
	next.EquipmentType = equipmentType

	if !serialmask.Match(next.SerialNumber, equipmentType.SerialNumberMask) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrMaskMismatch,
			maskMismatchMessage(next.SerialNumber, equipmentType.SerialNumberMask))
	}

	exists, err := s.guard.Exists(ctx, tx, next.EquipmentTypeID, next.SerialNumber, &existing.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrDuplicateSerialNumber,
			duplicateMessage(equipmentType.Name, next.SerialNumber))
	}

	return &ValidatedUpdate{Equipment: next, Revalidated: true}, nil
}

// UpdateEquipment меняет одну активную запись в транзакции с блокировкой строки.
func (s *EquipmentService) UpdateEquipment(ctx context.Context, cmd UpdateEquipmentCommand) (*dto.EquipmentDTO, error) {
	var updated entities.Equipment

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		existing, err := s.equipmentRepository.FindEquipment(ctx, tx, cmd.ID)
		if err != nil {
			return err
		}
		if existing.IsDeleted {
			return apperrors.ErrNotFound
		}

		validated, err := s.ValidateUpdate(ctx, tx, existing, cmd)
		if err != nil {
			return err
		}
		if err := s.equipmentRepository.UpdateEquipment(ctx, tx, cmd.ID, validated.Equipment); err != nil {
			return err
		}
		updated = validated.Equipment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Оборудование обновлено", zap.Uint64("id", cmd.ID))
	result := equipmentEntityToDTO(&updated)
	return &result, nil
}

// -----------------------------------------------------------
// УДАЛЕНИЕ / ВОССТАНОВЛЕНИЕ
// -----------------------------------------------------------

// DeleteEquipment - мягкое удаление, строка остается в таблице.
func (s *EquipmentService) DeleteEquipment(ctx context.Context, id uint64) error {
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		existing, err := s.equipmentRepository.FindEquipment(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing.IsDeleted {
			return apperrors.ErrAlreadyDeleted
		}
		return s.equipmentRepository.SoftDeleteEquipment(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("Оборудование помечено удаленным", zap.Uint64("id", id))
	return nil
}

// RestoreEquipment снимает пометку удаления. Номер должен по-прежнему
// подходить под маску типа и не совпадать с активной записью.
func (s *EquipmentService) RestoreEquipment(ctx context.Context, id uint64) (*dto.EquipmentDTO, error) {
	var restored *entities.Equipment

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		existing, err := s.equipmentRepository.FindEquipment(ctx, tx, id)
		if err != nil {
			return err
		}
		if !existing.IsDeleted {
			return apperrors.ErrNotDeleted
		}

		equipmentType, err := s.etRepository.FindEquipmentType(ctx, tx, existing.EquipmentTypeID)
		if err != nil {
			return notFoundAsTypeNotFound(err)
		}
		if !serialmask.Match(existing.SerialNumber, equipmentType.SerialNumberMask) {
			return fmt.Errorf("%w: %s", apperrors.ErrMaskMismatch,
				maskMismatchMessage(existing.SerialNumber, equipmentType.SerialNumberMask))
		}

		exists, err := s.guard.Exists(ctx, tx, existing.EquipmentTypeID, existing.SerialNumber, &existing.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateSerialNumber,
				duplicateMessage(equipmentType.Name, existing.SerialNumber))
		}

		if err := s.equipmentRepository.UndeleteEquipment(ctx, tx, id); err != nil {
			return err
		}
		existing.IsDeleted = false
		existing.EquipmentType = equipmentType
		restored = existing
		return nil
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotDeleted) && !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("Не удалось восстановить оборудование", zap.Uint64("id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("Оборудование восстановлено", zap.Uint64("id", id))
	result := equipmentEntityToDTO(restored)
	return &result, nil
}
