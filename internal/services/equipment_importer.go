package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aarondl/null/v8"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"equipment-registry/internal/dto"
	apperrors "equipment-registry/pkg/errors"
)

type EquipmentImportServiceInterface interface {
	ImportSerialNumbers(ctx context.Context, equipmentTypeID uint64, note null.String, file io.Reader) (*dto.BatchCreateResultDTO, error)
}

// EquipmentImportService читает серийные номера из xlsx и передает их в пакетное создание.
type EquipmentImportService struct {
	equipment EquipmentServiceInterface
	maxRows   int
	logger    *zap.Logger
}

func NewEquipmentImportService(equipment EquipmentServiceInterface, maxRows int, logger *zap.Logger) *EquipmentImportService {
	return &EquipmentImportService{equipment: equipment, maxRows: maxRows, logger: logger}
}

func (s *EquipmentImportService) ImportSerialNumbers(ctx context.Context, equipmentTypeID uint64, note null.String, file io.Reader) (*dto.BatchCreateResultDTO, error) {
	serialNumbers, err := s.readSerialNumbers(file)
	if err != nil {
		return nil, err
	}
	if len(serialNumbers) == 0 {
		return nil, apperrors.NewInvalidInputError("в файле не найдено ни одного серийного номера")
	}

	s.logger.Info("Импорт оборудования из файла",
		zap.Uint64("equipment_type_id", equipmentTypeID), zap.Int("rows", len(serialNumbers)))

	result, err := s.equipment.Execute(ctx, CreateEquipmentCommand{
		EquipmentTypeID: equipmentTypeID,
		SerialNumbers:   serialNumbers,
		Note:            note,
	})
	if err != nil {
		return nil, err
	}
	return result.Batch, nil
}

// readSerialNumbers берет первый лист. Если в первых строках есть заголовок
// со словом "серийный" или "serial", читается его колонка под ним,
// иначе первая колонка с первой строки.
// Пустые ячейки и строки итогов ("Итого", "Всего") серийными номерами не считаются
// и в пакет не попадают; их число пишется в лог. Любое другое значение уходит
// в пакетное создание и получает свой результат.
func (s *EquipmentImportService) readSerialNumbers(file io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("не удалось прочитать xlsx: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewInvalidInputError("в файле нет листов")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения листа %s: %w", sheets[0], err)
	}

	column, start := findSerialColumn(rows)

	serialNumbers := make([]string, 0, len(rows))
	skipped := 0
	for i := start; i < len(rows); i++ {
		value := safeGet(rows[i], column)
		if isTrash(value) {
			if value != "" {
				skipped++
			}
			continue
		}
		if s.maxRows > 0 && len(serialNumbers) >= s.maxRows {
			return nil, apperrors.NewInvalidInputError("слишком много строк в файле, максимум %d", s.maxRows)
		}
		serialNumbers = append(serialNumbers, value)
	}
	if skipped > 0 {
		s.logger.Info("Пропущены строки итогов", zap.Int("rows", skipped))
	}
	return serialNumbers, nil
}

const headerScanDepth = 10

func findSerialColumn(rows [][]string) (column, start int) {
	for rIdx := 0; rIdx < len(rows) && rIdx < headerScanDepth; rIdx++ {
		for cIdx, cell := range rows[rIdx] {
			c := strings.ToLower(strings.TrimSpace(cell))
			if strings.Contains(c, "серийн") || strings.Contains(c, "serial") {
				return cIdx, rIdx + 1
			}
		}
	}
	return 0, 0
}

func safeGet(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// isTrash - пустая ячейка или строка итогов, которая начинается с "итого"/"всего".
func isTrash(val string) bool {
	v := strings.ToLower(val)
	return v == "" || strings.HasPrefix(v, "итого") || strings.HasPrefix(v, "всего")
}
