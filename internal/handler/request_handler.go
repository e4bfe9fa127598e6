package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"mgtrako/internal/errors"
	"mgtrako/internal/model"
	"mgtrako/internal/repository"
	"mgtrako/internal/service"
)

// RequestHandler serves the must-go request lifecycle.
type RequestHandler struct {
	svc service.RequestService
}

// NewRequestHandler creates a new request handler.
func NewRequestHandler(svc service.RequestService) *RequestHandler {
	return &RequestHandler{svc: svc}
}

// ListRequests godoc
// @Summary List must-go requests
// @Description Newest first. Search matches shipment, part and trailer numbers.
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param status query string false "PENDING, IN_PROGRESS or COMPLETED"
// @Param search query string false "Search text"
// @Param created_by query string false "Creator user ID"
// @Param include_deleted query bool false "Admins only"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} service.RequestView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /requests [get]
func (h *RequestHandler) ListRequests(c echo.Context) error {
	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	filter, err := parseFilter(c)
	if err != nil {
		return respond(err)
	}

	views, err := h.svc.List(c.Request().Context(), actor, filter)
	if err != nil {
		return respond(err)
	}
	return c.JSON(http.StatusOK, views)
}

func parseFilter(c echo.Context) (repository.RequestFilter, error) {
	filter := repository.RequestFilter{Search: strings.TrimSpace(c.QueryParam("search"))}
	verr := &errors.ValidationError{}

	if raw := c.QueryParam("status"); raw != "" {
		status, ok := model.ParseRequestStatus(raw)
		if !ok {
			verr.Add("status", "must be one of PENDING, IN_PROGRESS, COMPLETED")
		} else {
			filter.Status = &status
		}
	}
	if raw := c.QueryParam("created_by"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			verr.Add("created_by", "must be a user id")
		} else {
			filter.CreatedBy = &id
		}
	}
	if raw := c.QueryParam("include_deleted"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			verr.Add("include_deleted", "must be true or false")
		}
		filter.IncludeDeleted = b
	}
	filter.Limit = intParam(c, "limit", verr)
	filter.Offset = intParam(c, "offset", verr)

	if verr.HasErrors() {
		return filter, verr
	}
	return filter, nil
}

func intParam(c echo.Context, name string, verr *errors.ValidationError) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		verr.Add(name, "must be a non-negative integer")
		return 0
	}
	return n
}

// CreateRequest godoc
// @Summary Create a must-go request
// @Description pallet_count is computed from the parts when omitted.
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.RequestInput true "Request"
// @Success 201 {object} service.RequestView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /requests [post]
func (h *RequestHandler) CreateRequest(c echo.Context) error {
	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	var in service.RequestInput
	if err := c.Bind(&in); err != nil {
		return invalidBody()
	}

	view, err := h.svc.Create(c.Request().Context(), actor, in)
	if err != nil {
		return respond(err)
	}
	return c.JSON(http.StatusCreated, view)
}

// GetRequest godoc
// @Summary Get a must-go request with its trailers, parts and history
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} service.RequestView
// @Failure 404 {object} errors.ErrorResponse
// @Router /requests/{id} [get]
func (h *RequestHandler) GetRequest(c echo.Context) error {
	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	view, err := h.svc.Get(c.Request().Context(), actor, id)
	if err != nil {
		return respond(err)
	}
	return c.JSON(http.StatusOK, view)
}

// UpdateRequest godoc
// @Summary Edit a must-go request
// @Description Replaces the request's contents and logs every change.
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param request body service.RequestInput true "Request"
// @Success 200 {object} service.RequestView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /requests/{id} [put]
func (h *RequestHandler) UpdateRequest(c echo.Context) error {
	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in service.RequestInput
	if err := c.Bind(&in); err != nil {
		return invalidBody()
	}

	view, err := h.svc.Edit(c.Request().Context(), actor, id, in)
	if err != nil {
		return respond(err)
	}
	return c.JSON(http.StatusOK, view)
}

// UpdateStatus godoc
// @Summary Change status and/or add a note
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param request body service.UpdateStatusInput true "Status update"
// @Success 200 {object} service.RequestView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /requests/{id}/status [patch]
func (h *RequestHandler) UpdateStatus(c echo.Context) error {
	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in service.UpdateStatusInput
	if err := c.Bind(&in); err != nil {
		return invalidBody()
	}

	view, err := h.svc.UpdateStatus(c.Request().Context(), actor, id, in)
	if err != nil {
		return respond(err)
	}
	return c.JSON(http.StatusOK, view)
}

// DeleteRequest godoc
// @Summary Soft-delete a must-go request
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} service.RequestView
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /requests/{id} [delete]
func (h *RequestHandler) DeleteRequest(c echo.Context) error {
	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	view, err := h.svc.SoftDelete(c.Request().Context(), actor, id)
	if err != nil {
		return respond(err)
	}
	return c.JSON(http.StatusOK, view)
}

// RestoreRequest godoc
// @Summary Restore a soft-deleted must-go request
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} service.RequestView
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /requests/{id}/restore [post]
func (h *RequestHandler) RestoreRequest(c echo.Context) error {
	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	view, err := h.svc.Restore(c.Request().Context(), actor, id)
	if err != nil {
		return respond(err)
	}
	return c.JSON(http.StatusOK, view)
}
