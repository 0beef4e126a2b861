package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/limaJavier/examscheduling/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data  any              `json:"data,omitempty"`
	Error *appErrors.Error `json:"error,omitempty"`
	Meta  map[string]any   `json:"meta,omitempty"`
}

func respond(c *gin.Context, status int, data any, meta map[string]any) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, Envelope{Data: data, Meta: meta})
}

func respondError(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

func created(c *gin.Context, data any, meta map[string]any) {
	respond(c, http.StatusCreated, data, meta)
}
