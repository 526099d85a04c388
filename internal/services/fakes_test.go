package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"equipment-registry/internal/entities"
	"equipment-registry/internal/repositories"
	apperrors "equipment-registry/pkg/errors"
	"equipment-registry/pkg/types"
)

// memStore - хранилище в памяти, реализует оба репозитория.
// Частичный уникальный индекс и внешний ключ повторяют схему БД.
type memStore struct {
	mu sync.Mutex

	types     map[uint64]entities.EquipmentType
	equipment map[uint64]entities.Equipment
	nextType  uint64
	nextEquip uint64

	calls map[string]int

	// ошибки, которые CreateEquipment вернет для конкретных номеров
	createErr map[string]error
	existsErr error
}

func newMemStore() *memStore {
	return &memStore{
		types:     make(map[uint64]entities.EquipmentType),
		equipment: make(map[uint64]entities.Equipment),
		calls:     make(map[string]int),
		createErr: make(map[string]error),
	}
}

func (m *memStore) hit(name string) { m.calls[name]++ }

func (m *memStore) callCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *memStore) resetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make(map[string]int)
}

func (m *memStore) addType(name, mask string) entities.EquipmentType {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextType++
	now := time.Now()
	et := entities.EquipmentType{ID: m.nextType, Name: name, SerialNumberMask: mask}
	et.CreatedAt, et.UpdatedAt = &now, &now
	m.types[et.ID] = et
	return et
}

func (m *memStore) addEquipment(typeID uint64, serial string, deleted bool) entities.Equipment {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextEquip++
	e := entities.Equipment{ID: m.nextEquip, EquipmentTypeID: typeID, SerialNumber: serial, IsDeleted: deleted}
	m.equipment[e.ID] = e
	return e
}

func (m *memStore) get(id uint64) entities.Equipment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.equipment[id]
}

func (m *memStore) activeDuplicate(typeID uint64, serial string, excludeID uint64) bool {
	for _, e := range m.equipment {
		if e.ID != excludeID && !e.IsDeleted && e.EquipmentTypeID == typeID && e.SerialNumber == serial {
			return true
		}
	}
	return false
}

func (m *memStore) withType(e entities.Equipment) *entities.Equipment {
	if et, ok := m.types[e.EquipmentTypeID]; ok {
		e.EquipmentType = &et
	}
	return &e
}

// --- EquipmentTypeRepositoryInterface ---

func (m *memStore) GetEquipmentTypes(ctx context.Context, filter types.Filter) ([]entities.EquipmentType, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("GetEquipmentTypes")
	list := make([]entities.EquipmentType, 0, len(m.types))
	for _, et := range m.types {
		list = append(list, et)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, uint64(len(list)), nil
}

func (m *memStore) FindEquipmentType(ctx context.Context, tx pgx.Tx, id uint64) (*entities.EquipmentType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("FindEquipmentType")
	et, ok := m.types[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &et, nil
}

func (m *memStore) CreateEquipmentType(ctx context.Context, equipmentType entities.EquipmentType) (*entities.EquipmentType, error) {
	created := m.addType(equipmentType.Name, equipmentType.SerialNumberMask)
	return &created, nil
}

func (m *memStore) UpdateEquipmentType(ctx context.Context, tx pgx.Tx, id uint64, equipmentType entities.EquipmentType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("UpdateEquipmentType")
	if _, ok := m.types[id]; !ok {
		return apperrors.ErrNotFound
	}
	equipmentType.ID = id
	m.types[id] = equipmentType
	return nil
}

func (m *memStore) DeleteEquipmentType(ctx context.Context, tx pgx.Tx, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("DeleteEquipmentType")
	if _, ok := m.types[id]; !ok {
		return apperrors.ErrNotFound
	}
	for _, e := range m.equipment {
		if e.EquipmentTypeID == id {
			return fmt.Errorf("%w: fk", apperrors.ErrTypeInUse)
		}
	}
	delete(m.types, id)
	return nil
}

// --- EquipmentRepositoryInterface ---

func (m *memStore) GetEquipments(ctx context.Context, filter types.Filter, scope repositories.DeletedScope) ([]entities.Equipment, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("GetEquipments")
	list := make([]entities.Equipment, 0)
	for _, e := range m.equipment {
		switch {
		case scope == repositories.ScopeActive && e.IsDeleted:
			continue
		case scope == repositories.ScopeDeleted && !e.IsDeleted:
			continue
		}
		list = append(list, *m.withType(e))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, uint64(len(list)), nil
}

func (m *memStore) FindEquipment(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("FindEquipment")
	e, ok := m.equipment[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return m.withType(e), nil
}

func (m *memStore) ExistsActive(ctx context.Context, tx pgx.Tx, equipmentTypeID uint64, serialNumber string, excludeID *uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("ExistsActive")
	if m.existsErr != nil {
		return false, m.existsErr
	}
	var exclude uint64
	if excludeID != nil {
		exclude = *excludeID
	}
	return m.activeDuplicate(equipmentTypeID, serialNumber, exclude), nil
}

func (m *memStore) CreateEquipment(ctx context.Context, equipment entities.Equipment) (*entities.Equipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("CreateEquipment")
	if err, ok := m.createErr[equipment.SerialNumber]; ok {
		return nil, err
	}
	if _, ok := m.types[equipment.EquipmentTypeID]; !ok {
		return nil, apperrors.ErrEquipmentTypeNotFound
	}
	if m.activeDuplicate(equipment.EquipmentTypeID, equipment.SerialNumber, 0) {
		return nil, fmt.Errorf("%w: unique", apperrors.ErrDuplicateSerialNumber)
	}
	m.nextEquip++
	now := time.Now()
	equipment.ID = m.nextEquip
	equipment.IsDeleted = false
	equipment.CreatedAt, equipment.UpdatedAt = &now, &now
	m.equipment[equipment.ID] = equipment
	created := equipment
	return &created, nil
}

func (m *memStore) UpdateEquipment(ctx context.Context, tx pgx.Tx, id uint64, equipment entities.Equipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("UpdateEquipment")
	existing, ok := m.equipment[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if m.activeDuplicate(equipment.EquipmentTypeID, equipment.SerialNumber, id) {
		return fmt.Errorf("%w: unique", apperrors.ErrDuplicateSerialNumber)
	}
	existing.EquipmentTypeID = equipment.EquipmentTypeID
	existing.SerialNumber = equipment.SerialNumber
	existing.Note = equipment.Note
	m.equipment[id] = existing
	return nil
}

func (m *memStore) SoftDeleteEquipment(ctx context.Context, tx pgx.Tx, id uint64) error {
	return m.setDeleted(id, true)
}

func (m *memStore) UndeleteEquipment(ctx context.Context, tx pgx.Tx, id uint64) error {
	return m.setDeleted(id, false)
}

func (m *memStore) setDeleted(id uint64, deleted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("setDeleted")
	e, ok := m.equipment[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if !deleted && m.activeDuplicate(e.EquipmentTypeID, e.SerialNumber, id) {
		return fmt.Errorf("%w: unique", apperrors.ErrDuplicateSerialNumber)
	}
	e.IsDeleted = deleted
	m.equipment[id] = e
	return nil
}

func (m *memStore) HasActiveByType(ctx context.Context, tx pgx.Tx, equipmentTypeID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("HasActiveByType")
	for _, e := range m.equipment {
		if e.EquipmentTypeID == equipmentTypeID && !e.IsDeleted {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ActiveSerialNumbersByType(ctx context.Context, tx pgx.Tx, equipmentTypeID uint64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("ActiveSerialNumbersByType")
	var out []string
	for _, e := range m.equipment {
		if e.EquipmentTypeID == equipmentTypeID && !e.IsDeleted {
			out = append(out, e.SerialNumber)
		}
	}
	sort.Strings(out)
	return out, nil
}

// fakeTxManager вызывает fn без транзакции.
type fakeTxManager struct {
	calls int
}

func (f *fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	f.calls++
	return fn(nil)
}

type memCache struct {
	mu     sync.Mutex
	data   map[string]string
	broken bool
	dels   []string
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string]string)}
}

var errCacheDown = errors.New("redis down")

func (c *memCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return errCacheDown
	}
	switch v := value.(type) {
	case []byte:
		c.data[key] = string(v)
	case string:
		c.data[key] = v
	default:
		c.data[key] = fmt.Sprint(v)
	}
	return nil
}

func (c *memCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return "", errCacheDown
	}
	v, ok := c.data[key]
	if !ok {
		return "", repositories.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dels = append(c.dels, keys...)
	if c.broken {
		return errCacheDown
	}
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

var (
	_ repositories.EquipmentRepositoryInterface     = (*memStore)(nil)
	_ repositories.EquipmentTypeRepositoryInterface = (*memStore)(nil)
	_ repositories.TxManagerInterface               = (*fakeTxManager)(nil)
	_ repositories.CacheRepositoryInterface         = (*memCache)(nil)
)
