package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"equipment-registry/config"
	"equipment-registry/internal/controllers"
	"equipment-registry/internal/repositories"
	"equipment-registry/internal/services"
	appconfig "equipment-registry/pkg/config"
	"equipment-registry/pkg/middleware"
	"equipment-registry/pkg/service"
)

type Loggers struct {
	Main      *zap.Logger
	Auth      *zap.Logger
	Equipment *zap.Logger
}

// InitRouter собирает репозитории, сервисы и контроллеры. redisClient может быть nil: кеш типов отключается.
func InitRouter(e *echo.Echo, dbConn *pgxpool.Pool, redisClient *redis.Client, jwtSvc service.JWTService, loggers *Loggers, cfg *appconfig.Config) {
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	// --- 0. ОБЩИЕ КОМПОНЕНТЫ ---
	e.GET("/healthz", healthHandler(dbConn))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, loggers.Auth)
	txManager := repositories.NewTxManager(dbConn)

	var cacheRepo repositories.CacheRepositoryInterface
	if redisClient != nil {
		cacheRepo = repositories.NewRedisCacheRepository(redisClient)
	}

	// --- 1. РЕПОЗИТОРИИ ---
	equipmentTypeRepo := repositories.NewEquipmentTypeRepository(dbConn, loggers.Main)
	equipmentRepo := repositories.NewEquipmentRepository(dbConn, loggers.Equipment)

	// --- 2. СЕРВИСЫ ---
	equipmentTypeService := services.NewEquipmentTypeService(
		equipmentTypeRepo, equipmentRepo, txManager, cacheRepo, cfg.Cache.EquipmentTypeTTL, loggers.Main,
	)
	equipmentService := services.NewEquipmentService(
		equipmentRepo, equipmentTypeRepo, equipmentTypeService, txManager, loggers.Equipment,
	)
	importService := services.NewEquipmentImportService(
		equipmentService, config.MaxBatchSize(), loggers.Equipment,
	)

	// --- 3. КОНТРОЛЛЕРЫ ---
	equipmentTypeCtrl := controllers.NewEquipmentTypeController(equipmentTypeService, loggers.Main)
	equipmentCtrl := controllers.NewEquipmentController(equipmentService, importService, loggers.Equipment)

	// --- 4. РОУТЕРЫ ---
	secureGroup := api.Group("", authMW.Auth)

	runEquipmentTypeRouter(secureGroup, equipmentTypeCtrl)
	runEquipmentRouter(secureGroup, equipmentCtrl)

	loggers.Main.Info("INIT_ROUTER: Создание маршрутов завершено")
}
