package routes

import (
	"github.com/labstack/echo/v4"

	"equipment-registry/internal/controllers"
)

func runEquipmentTypeRouter(secureGroup *echo.Group, ctrl *controllers.EquipmentTypeController) {
	g := secureGroup.Group("/equipment-type")
	g.GET("", ctrl.GetEquipmentTypes)
	g.GET("/:id", ctrl.FindEquipmentType)
	g.POST("", ctrl.CreateEquipmentType)
	g.PUT("/:id", ctrl.UpdateEquipmentType)
	g.PATCH("/:id", ctrl.UpdateEquipmentType)
	g.DELETE("/:id", ctrl.DeleteEquipmentType)
}
