package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/garyjia/business-trip/internal/application/port"
	"github.com/garyjia/business-trip/internal/application/service"
	"github.com/garyjia/business-trip/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	trips   service.TripService
	reports service.ReportService
	health  HealthChecker
	logger  Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(trips service.TripService, reports service.ReportService, health HealthChecker, logger Logger) *Handlers {
	return &Handlers{
		trips:   trips,
		reports: reports,
		health:  health,
		logger:  logger,
	}
}

// bindJSON decodes the body strictly and runs the binding validator
func bindJSON(c *gin.Context, obj any) error {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(obj); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := binding.Validator.ValidateStruct(obj); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK

	if h.health != nil {
		resp.Components = h.health.Health(c.Request.Context())
		for _, state := range resp.Components {
			if state != "ok" && state != "disabled" {
				resp.Status = "unhealthy"
				status = http.StatusServiceUnavailable
				break
			}
		}
	}

	c.JSON(status, Response{Success: status == http.StatusOK, Data: resp})
}

// ListTrips handles GET /api/trips
func (h *Handlers) ListTrips(c *gin.Context) {
	filter := port.TripFilter{
		RequesterID: c.Query("requester_id"),
		Status:      workflow.State(strings.ToUpper(c.Query("status"))),
	}
	var err error
	if v := c.Query("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil {
			badRequest(c, "invalid limit")
			return
		}
	}
	if v := c.Query("offset"); v != "" {
		if filter.Offset, err = strconv.Atoi(v); err != nil {
			badRequest(c, "invalid offset")
			return
		}
	}

	trips, err := h.trips.ListTrips(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, "list trips", err)
		return
	}

	out := make([]TripResponse, 0, len(trips))
	for _, t := range trips {
		out = append(out, toTripResponse(t))
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: out})
}

// CreateTrip handles POST /api/trips
func (h *Handlers) CreateTrip(c *gin.Context) {
	var req CreateTripRequest
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, err.Error())
		return
	}
	plan, err := req.toPlan()
	if err != nil {
		h.writeError(c, "create trip", err)
		return
	}

	trip, err := h.trips.CreateTrip(c.Request.Context(), service.CreateTripInput{
		RequesterID: req.RequesterID,
		TripPlan:    plan,
	})
	if err != nil {
		h.writeError(c, "create trip", err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: toTripResponse(trip)})
}

// GetTrip handles GET /api/trips/:id
func (h *Handlers) GetTrip(c *gin.Context) {
	trip, err := h.trips.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "get trip", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toTripResponse(trip)})
}

// ReviseTrip handles PUT /api/trips/:id
func (h *Handlers) ReviseTrip(c *gin.Context) {
	var req ReviseTripRequest
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, err.Error())
		return
	}
	plan, err := req.toPlan()
	if err != nil {
		h.writeError(c, "revise trip", err)
		return
	}

	trip, err := h.trips.ReviseTrip(c.Request.Context(), service.ReviseTripInput{
		TripID:      c.Param("id"),
		RequesterID: req.RequesterID,
		TripPlan:    plan,
	})
	if err != nil {
		h.writeError(c, "revise trip", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toTripResponse(trip)})
}

// ApproveTrip handles POST /api/trips/:id/approve
func (h *Handlers) ApproveTrip(c *gin.Context) {
	var req ManagerRequest
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, err.Error())
		return
	}

	trip, err := h.trips.ApproveTrip(c.Request.Context(), c.Param("id"), req.ManagerID)
	if err != nil {
		h.writeError(c, "approve trip", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toTripResponse(trip)})
}

// RejectTrip handles POST /api/trips/:id/reject
func (h *Handlers) RejectTrip(c *gin.Context) {
	var req RejectRequest
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, err.Error())
		return
	}

	trip, err := h.trips.RejectTrip(c.Request.Context(), c.Param("id"), req.ManagerID, req.Reason)
	if err != nil {
		h.writeError(c, "reject trip", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toTripResponse(trip)})
}

// GetEstimatedCost handles GET /api/trips/:id/estimate
func (h *Handlers) GetEstimatedCost(c *gin.Context) {
	est, err := h.trips.GetEstimatedCost(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "get estimate", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toEstimateResponse(*est)})
}

// GetHistory handles GET /api/trips/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	records, err := h.trips.GetHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "get history", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toHistoryResponses(records)})
}

// SubmitSettlement handles POST /api/trips/:id/settlement
func (h *Handlers) SubmitSettlement(c *gin.Context) {
	var req SubmitSettlementRequest
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, err.Error())
		return
	}
	in, err := req.toInput(c.Param("id"))
	if err != nil {
		h.writeError(c, "submit settlement", err)
		return
	}

	trip, err := h.trips.SubmitSettlement(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, "submit settlement", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toTripResponse(trip)})
}

// DraftSettlement handles GET /api/trips/:id/settlement/draft
func (h *Handlers) DraftSettlement(c *gin.Context) {
	draft, err := h.trips.DraftSettlement(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "draft settlement", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: DraftResponse{
		TripID: draft.TripID,
		Items:  toItemResponses(draft.Items),
		Totals: toTotalsResponse(draft.Totals),
	}})
}

// GetSettlementTotals handles GET /api/trips/:id/settlement/totals
func (h *Handlers) GetSettlementTotals(c *gin.Context) {
	totals, err := h.trips.GetSettlementTotals(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "get settlement totals", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toTotalsResponse(*totals)})
}

// SettlementReport handles GET /api/trips/:id/settlement/report
func (h *Handlers) SettlementReport(c *gin.Context) {
	content, name, err := h.reports.SettlementReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "settlement report", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, service.ReportContentType, content)
}

// ApproveSettlement handles POST /api/trips/:id/settlement/approve
func (h *Handlers) ApproveSettlement(c *gin.Context) {
	var req ManagerRequest
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, err.Error())
		return
	}

	trip, err := h.trips.ApproveSettlement(c.Request.Context(), c.Param("id"), req.ManagerID)
	if err != nil {
		h.writeError(c, "approve settlement", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toTripResponse(trip)})
}

// ReturnSettlement handles POST /api/trips/:id/settlement/return
func (h *Handlers) ReturnSettlement(c *gin.Context) {
	var req ManagerRequest
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, err.Error())
		return
	}

	trip, err := h.trips.ReturnSettlementForCorrection(c.Request.Context(), c.Param("id"), req.ManagerID)
	if err != nil {
		h.writeError(c, "return settlement", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toTripResponse(trip)})
}
