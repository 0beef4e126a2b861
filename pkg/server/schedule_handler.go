package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/limaJavier/examscheduling/pkg/errors"
	"github.com/limaJavier/examscheduling/pkg/export"
	"github.com/limaJavier/examscheduling/pkg/model"
	"github.com/limaJavier/examscheduling/pkg/service"
)

type scheduler interface {
	ParseInput(bytes []byte) (model.ModelInput, error)
	Generate(ctx context.Context, input model.ModelInput) (*service.Run, error)
	Get(ctx context.Context, id string) (*service.Run, error)
	VerifyDocument(ctx context.Context, inputJson, scheduleJson map[string]any) (*service.VerificationResult, error)
}

type verifyRequest struct {
	Input    map[string]any `json:"input" binding:"required"`
	Schedule map[string]any `json:"schedule" binding:"required"`
}

// ScheduleHandler exposes scheduling endpoints.
type ScheduleHandler struct {
	service scheduler
}

func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Generate schedules the raw input document sent as body and responds with the published schedule.
func (h *ScheduleHandler) Generate(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "cannot read request body"))
		return
	}
	input, err := h.service.ParseInput(body)
	if err != nil {
		respondError(c, err)
		return
	}
	run, err := h.service.Generate(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, export.Publish(run.Timetable), runMeta(run))
}

func (h *ScheduleHandler) Get(c *gin.Context) {
	run, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, export.Publish(run.Timetable), runMeta(run))
}

// Verify checks an uploaded schedule against its input.
func (h *ScheduleHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid verify payload"))
		return
	}
	result, err := h.service.VerifyDocument(c.Request.Context(), req.Input, req.Schedule)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, result, nil)
}

func runMeta(run *service.Run) map[string]any {
	return map[string]any{
		"run_id":     run.ID,
		"sessions":   len(run.Timetable),
		"nodes":      run.Nodes,
		"backtracks": run.Backtracks,
		"cached":     run.Cached,
	}
}
