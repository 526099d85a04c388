package routes

import (
	"github.com/labstack/echo/v4"

	"equipment-registry/internal/controllers"
)

func runEquipmentRouter(secureGroup *echo.Group, ctrl *controllers.EquipmentController) {
	g := secureGroup.Group("/equipment")
	g.GET("", ctrl.GetEquipments)
	g.GET("/:id", ctrl.FindEquipment)
	g.POST("", ctrl.CreateEquipment)
	g.POST("/import", ctrl.ImportEquipment)
	g.PUT("/:id", ctrl.UpdateEquipment)
	g.PATCH("/:id", ctrl.UpdateEquipment)
	g.DELETE("/:id", ctrl.DeleteEquipment)
	g.POST("/:id/restore", ctrl.RestoreEquipment)
}
