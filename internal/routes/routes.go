package routes

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/clinicq/clinicq-backend/config"
	queueControllers "github.com/clinicq/clinicq-backend/internal/queue/controllers"
	queueRepository "github.com/clinicq/clinicq-backend/internal/queue/repository"
	queueRoutes "github.com/clinicq/clinicq-backend/internal/queue/routes"
	queueServices "github.com/clinicq/clinicq-backend/internal/queue/services"
	staffControllers "github.com/clinicq/clinicq-backend/internal/staff/controllers"
	staffServices "github.com/clinicq/clinicq-backend/internal/staff/services"
	"github.com/clinicq/clinicq-backend/ws"
)

// Init builds the service graph and registers every route on the echo instance.
func Init(e *echo.Echo, db *sql.DB, hub *ws.Hub, cfg *config.Config) {
	repo := queueRepository.NewMySQLRepository(db)
	queueService := queueServices.NewQueueService(repo, hub, cfg.AvgConsultationMinutes)
	staffService := staffServices.NewStaffService(db)

	queueController := queueControllers.NewQueueController(queueService)
	staffController := staffControllers.NewStaffController(staffService)

	api := e.Group("/api")
	api.POST("/login", staffController.Login)
	queueRoutes.RegisterQueueRoutes(api, queueController)

	e.GET("/ws", ws.ServeWS(hub))
}
