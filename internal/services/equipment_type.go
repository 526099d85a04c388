package services

import (
	"context"
	"encoding/json"
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

const equipmentTypeCacheKey = "equipment_type:%d"

// EquipmentTypeLookup - источник типа оборудования для проверки серийных номеров.
type EquipmentTypeLookup interface {
	GetType(ctx context.Context, id uint64) (*entities.EquipmentType, error)
}

type EquipmentTypeServiceInterface interface {
	EquipmentTypeLookup
	GetEquipmentTypes(ctx context.Context, filter types.Filter) ([]dto.EquipmentTypeDTO, uint64, error)
	FindEquipmentType(ctx context.Context, id uint64) (*dto.EquipmentTypeDTO, error)
	CreateEquipmentType(ctx context.Context, dto dto.CreateEquipmentTypeDTO) (*dto.EquipmentTypeDTO, error)
	UpdateEquipmentType(ctx context.Context, id uint64, dto dto.UpdateEquipmentTypeDTO) (*dto.EquipmentTypeDTO, error)
	DeleteEquipmentType(ctx context.Context, id uint64) error
}

type EquipmentTypeService struct {
	etRepository        repositories.EquipmentTypeRepositoryInterface
	equipmentRepository repositories.EquipmentRepositoryInterface
	txManager           repositories.TxManagerInterface
	cache               repositories.CacheRepositoryInterface
	cacheTTL            time.Duration
	logger              *zap.Logger
}

// NewEquipmentTypeService: cache может быть nil, тогда типы всегда читаются из БД.
func NewEquipmentTypeService(
	etRepo repositories.EquipmentTypeRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	txManager repositories.TxManagerInterface,
	cache repositories.CacheRepositoryInterface,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *EquipmentTypeService {
	return &EquipmentTypeService{
		etRepository:        etRepo,
		equipmentRepository: equipmentRepo,
		txManager:           txManager,
		cache:               cache,
		cacheTTL:            cacheTTL,
		logger:              logger,
	}
}

// etEntityToDTO переводит сущность EquipmentType в DTO
func etEntityToDTO(entity *entities.EquipmentType) *dto.EquipmentTypeDTO {
	if entity == nil {
		return nil
	}

	dtoResult := &dto.EquipmentTypeDTO{
		ID:               entity.ID,
		Name:             entity.Name,
		SerialNumberMask: entity.SerialNumberMask,
	}
	if entity.CreatedAt != nil {
		dtoResult.CreatedAt = entity.CreatedAt.Format("2006-01-02 15:04:05")
	}
	if entity.UpdatedAt != nil {
		dtoResult.UpdatedAt = entity.UpdatedAt.Format("2006-01-02 15:04:05")
	}
	return dtoResult
}

func notFoundAsTypeNotFound(err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.ErrEquipmentTypeNotFound
	}
	return err
}

// -----------------------------------------------------------
// CACHE
// -----------------------------------------------------------

// GetType читает тип через кеш. Ошибки Redis не прерывают запрос: пишем в лог и идем в БД.
func (s *EquipmentTypeService) GetType(ctx context.Context, id uint64) (*entities.EquipmentType, error) {
	key := fmt.Sprintf(equipmentTypeCacheKey, id)

	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			var cached entities.EquipmentType
			if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
				metrics.IncTypeCacheLookup("hit")
				return &cached, nil
			}
			s.logger.Warn("Поврежденная запись типа оборудования в кеше", zap.String("key", key))
		case errors.Is(err, repositories.ErrCacheMiss):
			metrics.IncTypeCacheLookup("miss")
		default:
			metrics.IncTypeCacheLookup("error")
			s.logger.Warn("Ошибка чтения типа оборудования из кеша", zap.String("key", key), zap.Error(err))
		}
	}

	entity, err := s.etRepository.FindEquipmentType(ctx, nil, id)
	if err != nil {
		return nil, notFoundAsTypeNotFound(err)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(entity); err == nil {
			if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
				s.logger.Warn("Не удалось записать тип оборудования в кеш", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return entity, nil
}

func (s *EquipmentTypeService) invalidate(ctx context.Context, id uint64) {
	if s.cache == nil {
		return
	}
	key := fmt.Sprintf(equipmentTypeCacheKey, id)
	if err := s.cache.Del(ctx, key); err != nil {
		s.logger.Warn("Не удалось сбросить кеш типа оборудования", zap.String("key", key), zap.Error(err))
	}
}

// -----------------------------------------------------------
// CRUD
// -----------------------------------------------------------

func (s *EquipmentTypeService) GetEquipmentTypes(ctx context.Context, filter types.Filter) ([]dto.EquipmentTypeDTO, uint64, error) {
	list, total, err := s.etRepository.GetEquipmentTypes(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]dto.EquipmentTypeDTO, 0, len(list))
	for i := range list {
		dtos = append(dtos, *etEntityToDTO(&list[i]))
	}
	return dtos, total, nil
}

func (s *EquipmentTypeService) FindEquipmentType(ctx context.Context, id uint64) (*dto.EquipmentTypeDTO, error) {
	entity, err := s.GetType(ctx, id)
	if err != nil {
		return nil, err
	}
	return etEntityToDTO(entity), nil
}

func (s *EquipmentTypeService) CreateEquipmentType(ctx context.Context, reqDTO dto.CreateEquipmentTypeDTO) (*dto.EquipmentTypeDTO, error) {
	if err := serialmask.Validate(reqDTO.SerialNumberMask); err != nil {
		return nil, err
	}

	entity := entities.EquipmentType{
		Name:             strings.TrimSpace(reqDTO.Name),
		SerialNumberMask: reqDTO.SerialNumberMask,
	}
	created, err := s.etRepository.CreateEquipmentType(ctx, entity)
	if err != nil {
		s.logger.Error("Ошибка при создании типа оборудования в репозитории", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Тип оборудования создан", zap.Uint64("id", created.ID), zap.String("mask", created.SerialNumberMask))
	return etEntityToDTO(created), nil
}

// UpdateEquipmentType не дает сменить маску, если ей не соответствует хотя бы одна активная запись этого типа.
func (s *EquipmentTypeService) UpdateEquipmentType(ctx context.Context, id uint64, reqDTO dto.UpdateEquipmentTypeDTO) (*dto.EquipmentTypeDTO, error) {
	var updated *entities.EquipmentType

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		existing, err := s.etRepository.FindEquipmentType(ctx, tx, id)
		if err != nil {
			return notFoundAsTypeNotFound(err)
		}

		next := *existing
		if reqDTO.Name != nil {
			next.Name = strings.TrimSpace(*reqDTO.Name)
		}
		if reqDTO.SerialNumberMask != nil && *reqDTO.SerialNumberMask != existing.SerialNumberMask {
			pattern, err := serialmask.Compile(*reqDTO.SerialNumberMask)
			if err != nil {
				return err
			}
			serials, err := s.equipmentRepository.ActiveSerialNumbersByType(ctx, tx, id)
			if err != nil {
				return err
			}
			var mismatched []string
			for _, sn := range serials {
				if !pattern.Match(sn) {
					mismatched = append(mismatched, sn)
				}
			}
			if len(mismatched) > 0 {
				return fmt.Errorf("%w: не подходит записей: %d, например '%s'", apperrors.ErrMaskConflict, len(mismatched), mismatched[0])
			}
			next.SerialNumberMask = pattern.Mask()
		}

		if err := s.etRepository.UpdateEquipmentType(ctx, tx, id, next); err != nil {
			return notFoundAsTypeNotFound(err)
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	now := time.Now()
	updated.UpdatedAt = &now
	return etEntityToDTO(updated), nil
}

// DeleteEquipmentType запрещен, пока есть активное оборудование этого типа.
// Удаленные записи держат тип через внешний ключ, это тоже ErrTypeInUse.
func (s *EquipmentTypeService) DeleteEquipmentType(ctx context.Context, id uint64) error {
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.etRepository.FindEquipmentType(ctx, tx, id); err != nil {
			return notFoundAsTypeNotFound(err)
		}
		inUse, err := s.equipmentRepository.HasActiveByType(ctx, tx, id)
		if err != nil {
			return err
		}
		if inUse {
			return apperrors.ErrTypeInUse
		}
		return notFoundAsTypeNotFound(s.etRepository.DeleteEquipmentType(ctx, tx, id))
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, id)
	s.logger.Info("Тип оборудования удален", zap.Uint64("id", id))
	return nil
}
