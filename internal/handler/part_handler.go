package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"mgtrako/internal/service"
)

// PartHandler serves the part catalog.
type PartHandler struct {
	svc service.PartService
}

// NewPartHandler creates a new part catalog handler.
func NewPartHandler(svc service.PartService) *PartHandler {
	return &PartHandler{svc: svc}
}

// ListParts godoc
// @Summary List catalog parts
// @Tags parts
// @Produce json
// @Security BearerAuth
// @Param search query string false "Matches part number or description"
// @Success 200 {array} model.PartInfo
// @Router /parts [get]
func (h *PartHandler) ListParts(c echo.Context) error {
	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	parts, err := h.svc.List(c.Request().Context(), actor, c.QueryParam("search"))
	if err != nil {
		return respond(err)
	}
	return c.JSON(http.StatusOK, parts)
}

// CreatePart godoc
// @Summary Add a catalog part
// @Tags parts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param part body service.PartInput true "Part"
// @Success 201 {object} model.PartInfo
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /parts [post]
func (h *PartHandler) CreatePart(c echo.Context) error {
	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	var in service.PartInput
	if err := c.Bind(&in); err != nil {
		return invalidBody()
	}

	part, err := h.svc.Create(c.Request().Context(), actor, in)
	if err != nil {
		return respond(err)
	}
	return c.JSON(http.StatusCreated, part)
}

// GetPart godoc
// @Summary Get a catalog part
// @Tags parts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Part ID"
// @Success 200 {object} model.PartInfo
// @Failure 404 {object} errors.ErrorResponse
// @Router /parts/{id} [get]
func (h *PartHandler) GetPart(c echo.Context) error {
	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	part, err := h.svc.Get(c.Request().Context(), actor, id)
	if err != nil {
		return respond(err)
	}
	return c.JSON(http.StatusOK, part)
}

// UpdatePart godoc
// @Summary Update a catalog part
// @Tags parts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Part ID"
// @Param part body service.PartInput true "Part"
// @Success 200 {object} model.PartInfo
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /parts/{id} [put]
func (h *PartHandler) UpdatePart(c echo.Context) error {
	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in service.PartInput
	if err := c.Bind(&in); err != nil {
		return invalidBody()
	}

	part, err := h.svc.Update(c.Request().Context(), actor, id, in)
	if err != nil {
		return respond(err)
	}
	return c.JSON(http.StatusOK, part)
}

// DeletePart godoc
// @Summary Delete a catalog part
// @Description Fails with 409 while any request carries the part number.
// @Tags parts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Part ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /parts/{id} [delete]
func (h *PartHandler) DeletePart(c echo.Context) error {
	actor, err := mustActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), actor, id); err != nil {
		return respond(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "part deleted successfully",
	})
}
