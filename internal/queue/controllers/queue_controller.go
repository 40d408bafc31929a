package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/clinicq/clinicq-backend/internal/queue/models"
	"github.com/clinicq/clinicq-backend/internal/queue/repository"
	"github.com/clinicq/clinicq-backend/internal/queue/services"
)

type QueueController struct {
	Service *services.QueueService
}

func NewQueueController(service *services.QueueService) *QueueController {
	return &QueueController{Service: service}
}

// RegisterPatient handles POST /api/register-patient.
func (qc *QueueController) RegisterPatient(c echo.Context) error {
	var req services.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}

	patient, entry, err := qc.Service.RegisterPatient(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":  http.StatusCreated,
		"message": "Patient registered",
		"data": map[string]interface{}{
			"patient":     patient,
			"queue_entry": entry,
		},
	})
}

// GetQueue handles GET /api/queue/:clinicId and GET /api/queue?clinic_id=.
// The public display omits unpaid entries; staff pass include_unpaid=true.
func (qc *QueueController) GetQueue(c echo.Context) error {
	clinicIDStr := c.Param("clinicId")
	if clinicIDStr == "" {
		clinicIDStr = c.QueryParam("clinic_id")
	}
	if clinicIDStr == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "clinic id is required",
			"data":    nil,
		})
	}
	clinicID, err := strconv.ParseInt(clinicIDStr, 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "clinic id must be a number",
			"data":    nil,
		})
	}

	includeUnpaid := c.QueryParam("include_unpaid") == "true"

	entries, err := qc.Service.Snapshot(c.Request().Context(), clinicID, includeUnpaid)
	if err != nil {
		return writeError(c, err)
	}
	if entries == nil {
		entries = []models.QueueEntry{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Queue retrieved",
		"data":    entries,
	})
}

// UpdateStatus handles POST /api/queue/:queueId/status.
func (qc *QueueController) UpdateStatus(c echo.Context) error {
	entryID, err := pathID(c, "queueId")
	if err != nil {
		return writeError(c, err)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}
	status, err := models.ParseStatus(body.Status)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": err.Error(),
			"data":    nil,
		})
	}

	entry, err := qc.Service.ChangeStatus(c.Request().Context(), entryID, status)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Status updated",
		"data":    entry,
	})
}

// ConfirmPayment handles POST /api/confirm-payment/:queueId, the callback
// fired after the simulated UPI payment succeeds.
func (qc *QueueController) ConfirmPayment(c echo.Context) error {
	entryID, err := pathID(c, "queueId")
	if err != nil {
		return writeError(c, err)
	}

	entry, err := qc.Service.ConfirmPayment(c.Request().Context(), entryID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Payment confirmed",
		"data":    entry,
	})
}

// UpdatePriority handles POST /api/queue/:queueId/priority.
func (qc *QueueController) UpdatePriority(c echo.Context) error {
	entryID, err := pathID(c, "queueId")
	if err != nil {
		return writeError(c, err)
	}

	var body struct {
		Priority int `json:"priority"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}

	entry, err := qc.Service.SetPriority(c.Request().Context(), entryID, body.Priority)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Priority updated",
		"data":    entry,
	})
}

// AttachVitals handles POST /api/queue/:queueId/vitals.
func (qc *QueueController) AttachVitals(c echo.Context) error {
	entryID, err := pathID(c, "queueId")
	if err != nil {
		return writeError(c, err)
	}

	var body struct {
		Vitals      string `json:"vitals"`
		VisitReason string `json:"visit_reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}

	entry, err := qc.Service.AttachVitals(c.Request().Context(), entryID, body.Vitals, body.VisitReason)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Vitals recorded",
		"data":    entry,
	})
}

// ListClinics handles GET /api/clinics.
func (qc *QueueController) ListClinics(c echo.Context) error {
	clinics, err := qc.Service.ListClinics(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	if clinics == nil {
		clinics = []models.Clinic{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Clinics retrieved",
		"data":    clinics,
	})
}

var errBadID = errors.New("id must be a number")

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, errBadID
	}
	return id, nil
}

// writeError maps the service/repository error taxonomy onto HTTP codes,
// always with a human-readable reason in the envelope.
func writeError(c echo.Context, err error) error {
	code := http.StatusInternalServerError
	message := err.Error()

	switch {
	case errors.Is(err, errBadID),
		errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInvalidTransition):
		code = http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, services.ErrClinicBusy),
		errors.Is(err, repository.ErrConstraint):
		code = http.StatusConflict
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("queue request failed")
		message = "internal server error"
	}

	return c.JSON(code, map[string]interface{}{
		"status":  code,
		"message": message,
		"data":    nil,
	})
}
