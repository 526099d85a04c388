package main

import (
	"context"
	"flag"
	"log"

	"equipment-registry/pkg/config"
	"equipment-registry/pkg/database/postgresql"
	"equipment-registry/seeders"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 СИСТЕМА СИДЕРОВ (Наполнение БД)           ")
	log.Println("======================================================")

	// --- Определяем флаги ---
	runTypes := flag.Bool("types", false, "Запустить наполнение типов оборудования")
	runEquipment := flag.Bool("equipment", false, "Создать демонстрационное оборудование")
	perType := flag.Int("per-type", 5, "Сколько записей оборудования создать на каждый тип")
	runAll := flag.Bool("all", false, "Запустить все сидеры (эквивалентно -types -equipment)")

	flag.Parse()

	// Если ни один флаг не указан - показываем справку
	if !*runTypes && !*runEquipment && !*runAll {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Примеры использования:")
		log.Println("  go run ./seeders/cmd/seed -types")
		log.Println("  go run ./seeders/cmd/seed -all -per-type 20")
		log.Println("======================================================")
		return
	}

	ctx := context.Background()
	cfg := config.New()

	if cfg.Postgres.RunMigrations {
		if err := postgresql.Migrate(ctx, cfg.Postgres.DSN); err != nil {
			log.Fatalf("❌ Ошибка применения миграций: %v", err)
		}
	}

	dbPool, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("❌ Не удалось подключиться к БД: %v", err)
	}
	defer dbPool.Close()

	log.Println("======================================================")

	// Запуск сидеров в правильном порядке
	if *runAll || *runTypes {
		seeders.SeedEquipmentTypes(dbPool)
		log.Println("======================================================")
	}

	if *runAll || *runEquipment {
		seeders.SeedDemoEquipment(dbPool, *perType)
		log.Println("======================================================")
	}

	log.Println("✅ Все указанные операции сидирования успешно завершены.")
	log.Println("======================================================")
}
