package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"mgtrako/internal/errors"
	"mgtrako/internal/service"
)

const maxUploadBytes = 10 << 20

// BulkHandler accepts spreadsheet and pasted-text uploads.
type BulkHandler struct {
	svc service.BulkService
}

// NewBulkHandler creates a new bulk upload handler.
func NewBulkHandler(svc service.BulkService) *BulkHandler {
	return &BulkHandler{svc: svc}
}

// Upload godoc
// @Summary Create requests in bulk
// @Description Rows are grouped by split_criteria and each group becomes one request. Failed groups are reported by 1-based row number.
// @Tags requests
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file false "xlsx workbook"
// @Param text formData string false "URL-encoded tab or comma separated text"
// @Param split_criteria formData string false "shipment (default), trailer, route or part"
// @Success 200 {object} service.BulkResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /bulk-upload [post]
func (h *BulkHandler) Upload(c echo.Context) error {
	actor, err := mustActor(c)
	if err != nil {
		return err
	}

	in := service.BulkUploadInput{
		Text:          c.FormValue("text"),
		SplitCriteria: c.FormValue("split_criteria"),
	}
	if in.SplitCriteria == "" {
		in.SplitCriteria = c.FormValue("splitCriteria")
	}

	if fh, err := c.FormFile("file"); err == nil {
		if fh.Size > maxUploadBytes {
			return respond(errors.NewValidationError("file", "must be at most 10 MB"))
		}
		f, err := fh.Open()
		if err != nil {
			return badRequest("could not read uploaded file", "INVALID_FILE")
		}
		defer f.Close()

		data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
		if err != nil {
			return badRequest("could not read uploaded file", "INVALID_FILE")
		}
		in.File = data
		in.FileName = fh.Filename
		in.ContentType = fh.Header.Get(echo.HeaderContentType)
	} else if err != http.ErrMissingFile {
		return invalidBody()
	}

	result, err := h.svc.Upload(c.Request().Context(), actor, in)
	if err != nil {
		return respond(err)
	}
	return c.JSON(http.StatusOK, result)
}
