package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/clinicq/clinicq-backend/internal/common/middlewares"
	"github.com/clinicq/clinicq-backend/internal/queue/controllers"
)

// RegisterQueueRoutes wires the queue endpoints onto the /api group.
// Registration, queue reads, payment confirmation and the clinic list are
// public; mutations driven from the portal require a staff token.
func RegisterQueueRoutes(api *echo.Group, qc *controllers.QueueController) {
	api.POST("/register-patient", qc.RegisterPatient)
	api.GET("/queue", qc.GetQueue)
	api.GET("/queue/:clinicId", qc.GetQueue)
	api.POST("/confirm-payment/:queueId", qc.ConfirmPayment)
	api.GET("/clinics", qc.ListClinics)

	api.POST("/queue/:queueId/status", qc.UpdateStatus, middlewares.JWTMiddleware())
	api.POST("/queue/:queueId/priority", qc.UpdatePriority, middlewares.JWTMiddleware())
	api.POST("/queue/:queueId/vitals", qc.AttachVitals, middlewares.JWTMiddleware())
}
