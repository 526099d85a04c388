package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipment-registry/internal/dto"
	apperrors "equipment-registry/pkg/errors"
	"equipment-registry/pkg/types"
)

func TestCreateEquipmentType(t *testing.T) {
	ctx := context.Background()
	f := newEquipmentFixture()

	created, err := f.types.CreateEquipmentType(ctx, dto.CreateEquipmentTypeDTO{Name: "  D-Link  ", SerialNumberMask: "NXXAAXZXaa"})
	require.NoError(t, err)
	assert.Equal(t, "D-Link", created.Name)
	assert.Equal(t, "NXXAAXZXaa", created.SerialNumberMask)
	assert.NotEmpty(t, created.CreatedAt)

	_, err = f.types.CreateEquipmentType(ctx, dto.CreateEquipmentTypeDTO{Name: "Bad", SerialNumberMask: "NNB"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidMask)

	list, total, err := f.types.GetEquipmentTypes(ctx, types.Filter{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	assert.Len(t, list, 1)
}

func TestGetType_ReadThroughCache(t *testing.T) {
	ctx := context.Background()
	f := newEquipmentFixture()
	et := f.store.addType("Банкомат", "NNNN")

	first, err := f.types.GetType(ctx, et.ID)
	require.NoError(t, err)
	second, err := f.types.GetType(ctx, et.ID)
	require.NoError(t, err)

	assert.Equal(t, first.SerialNumberMask, second.SerialNumberMask)
	assert.Equal(t, 1, f.store.callCount("FindEquipmentType"))
	assert.Contains(t, f.cache.data, "equipment_type:1")

	_, err = f.types.GetType(ctx, 999)
	assert.ErrorIs(t, err, apperrors.ErrEquipmentTypeNotFound)
}

func TestGetType_BrokenCacheFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	f := newEquipmentFixture()
	et := f.store.addType("Банкомат", "NNNN")
	f.cache.broken = true

	found, err := f.types.GetType(ctx, et.ID)
	require.NoError(t, err)
	assert.Equal(t, "NNNN", found.SerialNumberMask)

	_, err = f.types.GetType(ctx, et.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.callCount("FindEquipmentType"))
}

func TestGetType_WithoutCache(t *testing.T) {
	f := newEquipmentFixture()
	svc := NewEquipmentTypeService(f.store, f.store, f.tx, nil, 0, f.service.logger)
	et := f.store.addType("Банкомат", "NNNN")

	found, err := svc.GetType(context.Background(), et.ID)
	require.NoError(t, err)
	assert.Equal(t, et.ID, found.ID)
}

func TestUpdateEquipmentType(t *testing.T) {
	ctx := context.Background()
	ptr := func(s string) *string { return &s }

	t.Run("маска не подходит существующему оборудованию", func(t *testing.T) {
		f := newEquipmentFixture()
		et := f.store.addType("Банкомат", "NNNN")
		f.store.addEquipment(et.ID, "1234", false)

		_, err := f.types.UpdateEquipmentType(ctx, et.ID, dto.UpdateEquipmentTypeDTO{SerialNumberMask: ptr("AAAA")})
		require.ErrorIs(t, err, apperrors.ErrMaskConflict)
		assert.Contains(t, err.Error(), "1234")
		assert.Equal(t, 0, f.store.callCount("UpdateEquipmentType"))
	})

	t.Run("удаленное оборудование не мешает смене маски", func(t *testing.T) {
		f := newEquipmentFixture()
		et := f.store.addType("Банкомат", "NNNN")
		f.store.addEquipment(et.ID, "1234", true)

		res, err := f.types.UpdateEquipmentType(ctx, et.ID, dto.UpdateEquipmentTypeDTO{SerialNumberMask: ptr("AAAA")})
		require.NoError(t, err)
		assert.Equal(t, "AAAA", res.SerialNumberMask)
		assert.Equal(t, "Банкомат", res.Name)
	})

	t.Run("смена маски сбрасывает кеш", func(t *testing.T) {
		f := newEquipmentFixture()
		et := f.store.addType("Банкомат", "NNNN")
		_, err := f.types.GetType(ctx, et.ID)
		require.NoError(t, err)

		_, err = f.types.UpdateEquipmentType(ctx, et.ID, dto.UpdateEquipmentTypeDTO{SerialNumberMask: ptr("NNNNN")})
		require.NoError(t, err)
		assert.Contains(t, f.cache.dels, "equipment_type:1")

		fresh, err := f.types.GetType(ctx, et.ID)
		require.NoError(t, err)
		assert.Equal(t, "NNNNN", fresh.SerialNumberMask)
	})

	t.Run("недопустимая маска", func(t *testing.T) {
		f := newEquipmentFixture()
		et := f.store.addType("Банкомат", "NNNN")

		_, err := f.types.UpdateEquipmentType(ctx, et.ID, dto.UpdateEquipmentTypeDTO{SerialNumberMask: ptr("N?N")})
		assert.ErrorIs(t, err, apperrors.ErrInvalidMask)
	})

	t.Run("только имя", func(t *testing.T) {
		f := newEquipmentFixture()
		et := f.store.addType("Банкомат", "NNNN")
		f.store.addEquipment(et.ID, "1234", false)

		res, err := f.types.UpdateEquipmentType(ctx, et.ID, dto.UpdateEquipmentTypeDTO{Name: ptr("АТМ")})
		require.NoError(t, err)
		assert.Equal(t, "АТМ", res.Name)
		assert.Equal(t, 0, f.store.callCount("ActiveSerialNumbersByType"))
	})

	t.Run("не найден", func(t *testing.T) {
		f := newEquipmentFixture()
		_, err := f.types.UpdateEquipmentType(ctx, 5, dto.UpdateEquipmentTypeDTO{Name: ptr("x")})
		assert.ErrorIs(t, err, apperrors.ErrEquipmentTypeNotFound)
	})
}

func TestUpdateEquipmentType_BatchSeesFreshType(t *testing.T) {
	ctx := context.Background()
	f := newEquipmentFixture()
	et := f.store.addType("Банкомат", "NNNN")

	// тип попадает в кеш
	_, err := f.service.Execute(ctx, CreateEquipmentCommand{EquipmentTypeID: et.ID, SerialNumbers: []string{"1111"}})
	require.NoError(t, err)

	name := "АТМ"
	_, err = f.types.UpdateEquipmentType(ctx, et.ID, dto.UpdateEquipmentTypeDTO{Name: &name})
	require.NoError(t, err)

	res, err := f.service.Execute(ctx, CreateEquipmentCommand{EquipmentTypeID: et.ID, SerialNumbers: []string{"2222"}})
	require.NoError(t, err)
	require.Len(t, res.Batch.CreatedEquipment, 1)
	assert.Equal(t, "АТМ", res.Batch.CreatedEquipment[0].EquipmentType.Name)
}

func TestDeleteEquipmentType(t *testing.T) {
	ctx := context.Background()

	t.Run("есть активное оборудование", func(t *testing.T) {
		f := newEquipmentFixture()
		et := f.store.addType("Банкомат", "NNNN")
		f.store.addEquipment(et.ID, "1234", false)

		err := f.types.DeleteEquipmentType(ctx, et.ID)
		assert.ErrorIs(t, err, apperrors.ErrTypeInUse)
		assert.Equal(t, 0, f.store.callCount("DeleteEquipmentType"))
	})

	t.Run("есть только удаленное оборудование", func(t *testing.T) {
		f := newEquipmentFixture()
		et := f.store.addType("Банкомат", "NNNN")
		f.store.addEquipment(et.ID, "1234", true)

		assert.ErrorIs(t, f.types.DeleteEquipmentType(ctx, et.ID), apperrors.ErrTypeInUse)
	})

	t.Run("свободный тип", func(t *testing.T) {
		f := newEquipmentFixture()
		et := f.store.addType("Банкомат", "NNNN")
		_, err := f.types.GetType(ctx, et.ID)
		require.NoError(t, err)

		require.NoError(t, f.types.DeleteEquipmentType(ctx, et.ID))
		assert.NotContains(t, f.cache.data, "equipment_type:1")

		_, err = f.types.FindEquipmentType(ctx, et.ID)
		assert.ErrorIs(t, err, apperrors.ErrEquipmentTypeNotFound)
	})

	t.Run("не найден", func(t *testing.T) {
		f := newEquipmentFixture()
		assert.ErrorIs(t, f.types.DeleteEquipmentType(ctx, 7), apperrors.ErrEquipmentTypeNotFound)
	})
}
