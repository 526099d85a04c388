package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"equipment-registry/internal/repositories"
	apperrors "equipment-registry/pkg/errors"
	"equipment-registry/pkg/types"
)

type equipmentFixture struct {
	store   *memStore
	tx      *fakeTxManager
	cache   *memCache
	types   *EquipmentTypeService
	service *EquipmentService
}

func newEquipmentFixture() *equipmentFixture {
	store := newMemStore()
	tx := &fakeTxManager{}
	cache := newMemCache()
	logger := zap.NewNop()
	typeService := NewEquipmentTypeService(store, store, tx, cache, time.Minute, logger)
	return &equipmentFixture{
		store:   store,
		tx:      tx,
		cache:   cache,
		types:   typeService,
		service: NewEquipmentService(store, store, typeService, tx, logger),
	}
}

func serials(t *testing.T, res *CommandResult) []string {
	t.Helper()
	require.NotNil(t, res.Batch)
	out := make([]string, 0, len(res.Batch.CreatedEquipment))
	for _, e := range res.Batch.CreatedEquipment {
		out = append(out, e.SerialNumber)
	}
	return out
}

func TestCreateBatch_AllValid(t *testing.T) {
	f := newEquipmentFixture()
	et := f.store.addType("TP-Link", "NNAA")

	res, err := f.service.Execute(context.Background(), CreateEquipmentCommand{
		EquipmentTypeID: et.ID,
		SerialNumbers:   []string{"12AB", "34CD"},
		Note:            null.StringFrom("склад"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"12AB", "34CD"}, serials(t, res))
	assert.Empty(t, res.Batch.Errors)
	for _, e := range res.Batch.CreatedEquipment {
		assert.Equal(t, et.ID, e.EquipmentType.ID)
		assert.Equal(t, "NNAA", e.EquipmentType.SerialNumberMask)
		assert.Equal(t, "склад", e.Note.String)
		assert.False(t, e.IsDeleted)
	}
}

func TestCreateBatch_PartialSuccessKeepsOrder(t *testing.T) {
	f := newEquipmentFixture()
	et := f.store.addType("TP-Link", "NNAA")
	f.store.addEquipment(et.ID, "99ZZ", false)

	res, err := f.service.Execute(context.Background(), CreateEquipmentCommand{
		EquipmentTypeID: et.ID,
		SerialNumbers:   []string{"12AB", "1BAB", "99ZZ", "34CD", "12AB"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"12AB", "34CD"}, serials(t, res))
	require.Len(t, res.Batch.Errors, 3)
	assert.Equal(t, "1BAB", res.Batch.Errors[0].SerialNumber)
	assert.Equal(t, ItemCodeMaskMismatch, res.Batch.Errors[0].Code)
	assert.Equal(t, "99ZZ", res.Batch.Errors[1].SerialNumber)
	assert.Equal(t, ItemCodeDuplicateSerial, res.Batch.Errors[1].Code)
	// повтор внутри пакета
	assert.Equal(t, "12AB", res.Batch.Errors[2].SerialNumber)
	assert.Equal(t, ItemCodeDuplicateSerial, res.Batch.Errors[2].Code)
}

func TestCreateBatch_DeletedRecordDoesNotBlock(t *testing.T) {
	f := newEquipmentFixture()
	et := f.store.addType("Банкомат", "NNNN")
	f.store.addEquipment(et.ID, "1234", true)

	res, err := f.service.Execute(context.Background(), CreateEquipmentCommand{
		EquipmentTypeID: et.ID,
		SerialNumbers:   []string{"1234"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1234"}, serials(t, res))
	assert.Empty(t, res.Batch.Errors)
}

func TestCreateBatch_SameSerialOtherTypeAllowed(t *testing.T) {
	f := newEquipmentFixture()
	first := f.store.addType("Банкомат", "NNNN")
	second := f.store.addType("Терминал", "NNNN")
	f.store.addEquipment(first.ID, "1234", false)

	res, err := f.service.Execute(context.Background(), CreateEquipmentCommand{
		EquipmentTypeID: second.ID,
		SerialNumbers:   []string{"1234"},
	})
	require.NoError(t, err)
	assert.Len(t, res.Batch.CreatedEquipment, 1)
}

func TestCreateBatch_PersistenceFailureDoesNotStopBatch(t *testing.T) {
	f := newEquipmentFixture()
	et := f.store.addType("Банкомат", "NNNN")
	f.store.createErr["2222"] = errors.New("connection reset")

	res, err := f.service.Execute(context.Background(), CreateEquipmentCommand{
		EquipmentTypeID: et.ID,
		SerialNumbers:   []string{"1111", "2222", "3333"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"1111", "3333"}, serials(t, res))
	require.Len(t, res.Batch.Errors, 1)
	assert.Equal(t, ItemCodePersistenceFailure, res.Batch.Errors[0].Code)
	assert.Contains(t, res.Batch.Errors[0].Error, "connection reset")
}

func TestCreateBatch_RacingInsertIsPersistenceFailure(t *testing.T) {
	f := newEquipmentFixture()
	et := f.store.addType("Банкомат", "NNNN")
	// проверка прошла, а вставка упала на уникальном индексе
	f.store.createErr["1111"] = apperrors.ErrDuplicateSerialNumber

	res, err := f.service.Execute(context.Background(), CreateEquipmentCommand{
		EquipmentTypeID: et.ID,
		SerialNumbers:   []string{"1111"},
	})
	require.NoError(t, err)
	require.Len(t, res.Batch.Errors, 1)
	assert.Equal(t, ItemCodePersistenceFailure, res.Batch.Errors[0].Code)
	assert.Empty(t, res.Batch.CreatedEquipment)
}

func TestCreateBatch_GuardFailureIsPersistenceFailure(t *testing.T) {
	f := newEquipmentFixture()
	et := f.store.addType("Банкомат", "NNNN")
	f.store.existsErr = errors.New("timeout")

	res, err := f.service.Execute(context.Background(), CreateEquipmentCommand{
		EquipmentTypeID: et.ID,
		SerialNumbers:   []string{"1111"},
	})
	require.NoError(t, err)
	require.Len(t, res.Batch.Errors, 1)
	assert.Equal(t, ItemCodePersistenceFailure, res.Batch.Errors[0].Code)
	assert.Equal(t, 0, f.store.callCount("CreateEquipment"))
}

func TestCreateBatch_UnknownTypeFailsWholeCall(t *testing.T) {
	f := newEquipmentFixture()

	res, err := f.service.Execute(context.Background(), CreateEquipmentCommand{
		EquipmentTypeID: 42,
		SerialNumbers:   []string{"1111"},
	})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, apperrors.ErrEquipmentTypeNotFound)
	assert.Equal(t, 0, f.store.callCount("CreateEquipment"))
}

func TestCreateBatch_TrimsSerialNumbers(t *testing.T) {
	f := newEquipmentFixture()
	et := f.store.addType("Банкомат", "NNNN")

	res, err := f.service.Execute(context.Background(), CreateEquipmentCommand{
		EquipmentTypeID: et.ID,
		SerialNumbers:   []string{" 1111 "},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1111"}, serials(t, res))
}

type unknownCommand struct{}

func (unknownCommand) equipmentCommand() {}

func TestExecute_UnknownCommand(t *testing.T) {
	f := newEquipmentFixture()
	_, err := f.service.Execute(context.Background(), unknownCommand{})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestValidateUpdate_NoteOnlySkipsStore(t *testing.T) {
	f := newEquipmentFixture()
	et := f.store.addType("Банкомат", "NNNN")
	e := f.store.addEquipment(et.ID, "1111", false)
	existing, err := f.store.FindEquipment(context.Background(), nil, e.ID)
	require.NoError(t, err)
	f.store.resetCalls()

	validated, err := f.service.ValidateUpdate(context.Background(), nil, existing, UpdateEquipmentCommand{
		ID:      e.ID,
		Note:    null.StringFrom("новое"),
		NoteSet: true,
	})
	require.NoError(t, err)
	assert.False(t, validated.Revalidated)
	assert.Equal(t, "новое", validated.Equipment.Note.String)
	assert.Equal(t, "1111", validated.Equipment.SerialNumber)
	assert.Equal(t, 0, f.store.callCount("ExistsActive"))
	assert.Equal(t, 0, f.store.callCount("FindEquipmentType"))
}

func TestUpdateEquipment(t *testing.T) {
	ctx := context.Background()
	ptr := func(s string) *string { return &s }

	t.Run("смена номера", func(t *testing.T) {
		f := newEquipmentFixture()
		et := f.store.addType("Банкомат", "NNNN")
		e := f.store.addEquipment(et.ID, "1111", false)

		res, err := f.service.Execute(ctx, UpdateEquipmentCommand{ID: e.ID, SerialNumber: ptr("2222")})
		require.NoError(t, err)
		assert.Equal(t, "2222", res.Equipment.SerialNumber)
		assert.Equal(t, "2222", f.store.get(e.ID).SerialNumber)
		assert.Equal(t, 1, f.tx.calls)
	})

	t.Run("тот же номер не считается дубликатом", func(t *testing.T) {
		f := newEquipmentFixture()
		et := f.store.addType("Банкомат", "NNNN")
		e := f.store.addEquipment(et.ID, "1111", false)

		_, err := f.service.Execute(ctx, UpdateEquipmentCommand{ID: e.ID, SerialNumber: ptr("1111")})
		require.NoError(t, err)
	})

	t.Run("номер не по маске", func(t *testing.T) {
		f := newEquipmentFixture()
		et := f.store.addType("Банкомат", "NNNN")
		e := f.store.addEquipment(et.ID, "1111", false)

		_, err := f.service.Execute(ctx, UpdateEquipmentCommand{ID: e.ID, SerialNumber: ptr("11A1")})
		assert.ErrorIs(t, err, apperrors.ErrMaskMismatch)
		assert.Equal(t, "1111", f.store.get(e.ID).SerialNumber)
	})

	t.Run("дубликат активной записи", func(t *testing.T) {
		f := newEquipmentFixture()
		et := f.store.addType("Банкомат", "NNNN")
		f.store.addEquipment(et.ID, "2222", false)
		e := f.store.addEquipment(et.ID, "1111", false)

		_, err := f.service.Execute(ctx, UpdateEquipmentCommand{ID: e.ID, SerialNumber: ptr("2222")})
		assert.ErrorIs(t, err, apperrors.ErrDuplicateSerialNumber)
	})

	t.Run("смена типа проверяет маску нового типа", func(t *testing.T) {
		f := newEquipmentFixture()
		digitsType := f.store.addType("Банкомат", "NNNN")
		lettersType := f.store.addType("Роутер", "AAAA")
		e := f.store.addEquipment(digitsType.ID, "1111", false)

		_, err := f.service.Execute(ctx, UpdateEquipmentCommand{ID: e.ID, EquipmentTypeID: &lettersType.ID})
		assert.ErrorIs(t, err, apperrors.ErrMaskMismatch)

		res, err := f.service.Execute(ctx, UpdateEquipmentCommand{
			ID: e.ID, EquipmentTypeID: &lettersType.ID, SerialNumber: ptr("ABCD"),
		})
		require.NoError(t, err)
		assert.Equal(t, lettersType.ID, res.Equipment.EquipmentType.ID)
		assert.Equal(t, "Роутер", res.Equipment.EquipmentType.Name)
	})

	t.Run("несуществующий тип", func(t *testing.T) {
		f := newEquipmentFixture()
		et := f.store.addType("Банкомат", "NNNN")
		e := f.store.addEquipment(et.ID, "1111", false)
		missing := uint64(999)

		_, err := f.service.Execute(ctx, UpdateEquipmentCommand{ID: e.ID, EquipmentTypeID: &missing})
		assert.ErrorIs(t, err, apperrors.ErrEquipmentTypeNotFound)
	})

	t.Run("удаленная запись не обновляется", func(t *testing.T) {
		f := newEquipmentFixture()
		et := f.store.addType("Банкомат", "NNNN")
		e := f.store.addEquipment(et.ID, "1111", true)

		_, err := f.service.Execute(ctx, UpdateEquipmentCommand{ID: e.ID, SerialNumber: ptr("2222")})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("явный null очищает примечание", func(t *testing.T) {
		f := newEquipmentFixture()
		et := f.store.addType("Банкомат", "NNNN")
		e := f.store.addEquipment(et.ID, "1111", false)
		_, err := f.service.Execute(ctx, UpdateEquipmentCommand{ID: e.ID, Note: null.StringFrom("x"), NoteSet: true})
		require.NoError(t, err)

		res, err := f.service.Execute(ctx, UpdateEquipmentCommand{ID: e.ID, NoteSet: true})
		require.NoError(t, err)
		assert.False(t, res.Equipment.Note.Valid)
		assert.False(t, f.store.get(e.ID).Note.Valid)
	})
}

func TestDeleteEquipment(t *testing.T) {
	ctx := context.Background()
	f := newEquipmentFixture()
	et := f.store.addType("Банкомат", "NNNN")
	e := f.store.addEquipment(et.ID, "1111", false)

	require.NoError(t, f.service.DeleteEquipment(ctx, e.ID))
	assert.True(t, f.store.get(e.ID).IsDeleted)

	assert.ErrorIs(t, f.service.DeleteEquipment(ctx, e.ID), apperrors.ErrAlreadyDeleted)
	assert.ErrorIs(t, f.service.DeleteEquipment(ctx, 999), apperrors.ErrNotFound)

	// удаленная запись по-прежнему читается по id
	found, err := f.service.FindEquipment(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, found.IsDeleted)
}

func TestRestoreEquipment(t *testing.T) {
	ctx := context.Background()

	t.Run("восстановление", func(t *testing.T) {
		f := newEquipmentFixture()
		et := f.store.addType("Банкомат", "NNNN")
		e := f.store.addEquipment(et.ID, "1111", true)

		res, err := f.service.RestoreEquipment(ctx, e.ID)
		require.NoError(t, err)
		assert.False(t, res.IsDeleted)
		assert.False(t, f.store.get(e.ID).IsDeleted)
	})

	t.Run("не удалена", func(t *testing.T) {
		f := newEquipmentFixture()
		et := f.store.addType("Банкомат", "NNNN")
		e := f.store.addEquipment(et.ID, "1111", false)

		_, err := f.service.RestoreEquipment(ctx, e.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotDeleted)
	})

	t.Run("есть активный дубликат", func(t *testing.T) {
		f := newEquipmentFixture()
		et := f.store.addType("Банкомат", "NNNN")
		e := f.store.addEquipment(et.ID, "1111", true)
		f.store.addEquipment(et.ID, "1111", false)

		_, err := f.service.RestoreEquipment(ctx, e.ID)
		assert.ErrorIs(t, err, apperrors.ErrDuplicateSerialNumber)
		assert.True(t, f.store.get(e.ID).IsDeleted)
	})

	t.Run("маска типа изменилась", func(t *testing.T) {
		f := newEquipmentFixture()
		et := f.store.addType("Банкомат", "AAAA")
		e := f.store.addEquipment(et.ID, "1111", true)

		_, err := f.service.RestoreEquipment(ctx, e.ID)
		assert.ErrorIs(t, err, apperrors.ErrMaskMismatch)
	})
}

func TestGetEquipments_Scopes(t *testing.T) {
	ctx := context.Background()
	f := newEquipmentFixture()
	et := f.store.addType("Банкомат", "NNNN")
	f.store.addEquipment(et.ID, "1111", false)
	f.store.addEquipment(et.ID, "2222", true)

	active, total, err := f.service.GetEquipments(ctx, types.Filter{}, repositories.ScopeActive)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	assert.Equal(t, "1111", active[0].SerialNumber)

	deleted, _, err := f.service.GetEquipments(ctx, types.Filter{}, repositories.ScopeDeleted)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, "2222", deleted[0].SerialNumber)

	all, total, err := f.service.GetEquipments(ctx, types.Filter{}, repositories.ScopeAll)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, uint64(2), total)
}
