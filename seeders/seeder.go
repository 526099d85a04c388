package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedEquipmentTypes наполняет справочник типов оборудования.
func SeedEquipmentTypes(db *pgxpool.Pool) {
	ctx := context.Background()
	log.Println("▶️  Запуск наполнения типов оборудования...")

	if err := seedEquipmentTypes(ctx, db); err != nil {
		log.Fatalf("❌ Ошибка наполнения Типов оборудования: %v", err)
	}
	log.Println("✅ Наполнение типов оборудования завершено!")
}

// SeedDemoEquipment создает демонстрационное оборудование. Зависит от типов.
func SeedDemoEquipment(db *pgxpool.Pool, perType int) {
	ctx := context.Background()
	log.Println("▶️  Запуск наполнения демонстрационного оборудования...")

	if err := seedEquipments(ctx, db, perType); err != nil {
		log.Fatalf("❌ Ошибка наполнения Оборудования: %v", err)
	}
	log.Println("✅ Наполнение оборудования завершено!")
}
