package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"mgtrako/internal/service"
)

// ReportHandler serves dashboards.
type ReportHandler struct {
	svc service.ReportService
}

// NewReportHandler creates a new report handler.
func NewReportHandler(svc service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Summary godoc
// @Summary Reporting summary
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Summary
// @Failure 403 {object} errors.ErrorResponse
// @Router /reports [get]
func (h *ReportHandler) Summary(c echo.Context) error {
	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	summary, err := h.svc.Summary(c.Request().Context(), actor)
	if err != nil {
		return respond(err)
	}
	return c.JSON(http.StatusOK, summary)
}

// AdminStats godoc
// @Summary Admin dashboard counters
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.AdminStats
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/stats [get]
func (h *ReportHandler) AdminStats(c echo.Context) error {
	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	stats, err := h.svc.AdminStats(c.Request().Context(), actor)
	if err != nil {
		return respond(err)
	}
	return c.JSON(http.StatusOK, stats)
}
