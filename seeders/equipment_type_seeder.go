package seeders

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"equipment-registry/pkg/serialmask"
)

// КЛЮЧИК: true - полностью очистить таблицы оборудования и записать типы с нуля.
// false - только добавить новые типы, не трогая существующие.
const fullSync_EquipmentTypes = false

func seedEquipmentTypes(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Наполнение таблицы 'equipment_types'...")

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if fullSync_EquipmentTypes {
		log.Println("    - Стратегия: Полная перезапись (TRUNCATE)")
		if _, err := tx.Exec(ctx, "TRUNCATE TABLE equipments, equipment_types RESTART IDENTITY CASCADE"); err != nil {
			return err
		}
	} else {
		log.Println("    - Стратегия: Только добавление новых типов (ADDITIVE)")
	}

	// у имени нет уникального индекса, поэтому проверяем вручную
	query := `INSERT INTO equipment_types (name, serial_number_mask, created_at, updated_at)
			  SELECT $1, $2, NOW(), NOW()
			  WHERE NOT EXISTS (SELECT 1 FROM equipment_types WHERE name = $1)`

	for _, item := range equipmentTypesData {
		if err := serialmask.Validate(item.Mask); err != nil {
			return fmt.Errorf("тип '%s': %w", item.Name, err)
		}
		if _, err := tx.Exec(ctx, query, item.Name, item.Mask); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
