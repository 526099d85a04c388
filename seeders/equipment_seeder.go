package seeders

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	upperLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerLetters = "abcdefghijklmnopqrstuvwxyz"
	digits       = "0123456789"
	zSymbols     = "-_@"
)

// sampleSerial строит n-й серийный номер, подходящий под маску.
// Разные n дают разные номера, пока хватает емкости маски.
func sampleSerial(mask string, n int) string {
	out := make([]byte, len(mask))
	for i := len(mask) - 1; i >= 0; i-- {
		var alphabet string
		switch mask[i] {
		case 'N':
			alphabet = digits
		case 'A':
			alphabet = upperLetters
		case 'a':
			alphabet = lowerLetters
		case 'X':
			alphabet = digits + upperLetters
		case 'Z':
			alphabet = zSymbols
		default:
			return ""
		}
		out[i] = alphabet[n%len(alphabet)]
		n /= len(alphabet)
	}
	return string(out)
}

// seedEquipments добавляет perType демонстрационных записей на каждый тип.
// Уже существующие пары (тип, номер) пропускаются.
func seedEquipments(ctx context.Context, db *pgxpool.Pool, perType int) error {
	log.Println("  - Наполнение таблицы 'equipments'...")

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, "SELECT id, serial_number_mask FROM equipment_types ORDER BY id")
	if err != nil {
		return fmt.Errorf("ошибка получения типов оборудования: %w", err)
	}
	type typeRow struct {
		ID   uint64
		Mask string
	}
	typesList, err := pgx.CollectRows(rows, pgx.RowToStructByPos[typeRow])
	if err != nil {
		return err
	}
	if len(typesList) == 0 {
		return fmt.Errorf("таблица equipment_types пуста, сначала запустите -types")
	}

	query := `INSERT INTO equipments (equipment_type_id, serial_number, note, is_deleted, created_at, updated_at)
			  VALUES ($1, $2, $3, FALSE, NOW(), NOW())
			  ON CONFLICT DO NOTHING`

	inserted := 0
	for _, t := range typesList {
		for n := 1; n <= perType; n++ {
			serial := sampleSerial(t.Mask, n)
			if serial == "" {
				return fmt.Errorf("тип %d: недопустимая маска '%s'", t.ID, t.Mask)
			}
			tag, err := tx.Exec(ctx, query, t.ID, serial, "демо-запись")
			if err != nil {
				return err
			}
			inserted += int(tag.RowsAffected())
		}
	}

	log.Printf("    - Добавлено записей: %d", inserted)
	return tx.Commit(ctx)
}
