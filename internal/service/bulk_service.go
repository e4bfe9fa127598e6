package service

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	apperrors "mgtrako/internal/errors"
	"mgtrako/internal/policy"
	"mgtrako/internal/storage"
)

// BulkUploadInput carries either a spreadsheet or pasted text.
type BulkUploadInput struct {
	FileName      string
	ContentType   string
	File          []byte
	Text          string
	SplitCriteria string
}

// RowError lists why one group, numbered from 1, was not created.
type RowError struct {
	Row    int      `json:"row"`
	Errors []string `json:"errors"`
}

// BulkResult reports the outcome of every group in an upload.
type BulkResult struct {
	Success        bool       `json:"success"`
	TotalRows      int        `json:"total_rows"`
	SuccessfulRows int        `json:"successful_rows"`
	FailedRows     int        `json:"failed_rows"`
	Errors         []RowError `json:"errors"`
	ArchiveKey     string     `json:"archive_key,omitempty"`
}

// BulkService creates many requests from one upload.
type BulkService interface {
	Upload(ctx context.Context, actor policy.Actor, in BulkUploadInput) (*BulkResult, error)
}

type bulkService struct {
	requests RequestService
	archiver storage.Archiver
	logger   *zap.Logger
}

// NewBulkService creates a bulk upload service. archiver may be nil, in
// which case uploaded files are not kept.
func NewBulkService(requests RequestService, archiver storage.Archiver, logger *zap.Logger) BulkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &bulkService{requests: requests, archiver: archiver, logger: logger}
}

// Upload creates each group in its own transaction. A failing group is
// recorded and the rest still go through.
func (s *bulkService) Upload(ctx context.Context, actor policy.Actor, in BulkUploadInput) (*BulkResult, error) {
	if !policy.CanCreateRequest(actor) {
		return nil, apperrors.ErrForbidden
	}

	criteria, err := ParseSplitCriteria(in.SplitCriteria)
	if err != nil {
		return nil, err
	}

	var records []BulkRecord
	switch {
	case len(in.File) > 0:
		records, err = ParseSpreadsheet(bytes.NewReader(in.File))
	case strings.TrimSpace(in.Text) != "":
		records, err = ParseText(in.Text)
	default:
		return nil, apperrors.NewValidationError("file", "no file or text provided")
	}
	if err != nil {
		return nil, err
	}

	groups := GroupRows(records, criteria)
	if len(groups) == 0 {
		return nil, apperrors.NewValidationError("file", "no data found to process")
	}

	result := &BulkResult{TotalRows: len(groups), Errors: []RowError{}}
	if len(in.File) > 0 && s.archiver != nil {
		key, err := s.archiver.Archive(ctx, in.FileName, in.ContentType, in.File)
		if err != nil {
			s.logger.Warn("archive bulk upload", zap.String("file", in.FileName), zap.Error(err))
		} else {
			result.ArchiveKey = key
		}
	}

	for i, group := range groups {
		row := i + 1
		if problems := group.Problems(); len(problems) > 0 {
			result.fail(row, problems)
			continue
		}

		if _, err := s.requests.Create(ctx, actor, group.Input()); err != nil {
			result.fail(row, rowMessages(err))
			continue
		}
		result.SuccessfulRows++
	}

	result.Success = result.FailedRows == 0
	s.logger.Info("bulk upload processed",
		zap.String("user_id", actor.ID.String()),
		zap.String("split_criteria", string(criteria)),
		zap.Int("total", result.TotalRows),
		zap.Int("failed", result.FailedRows),
	)
	return result, nil
}

func (r *BulkResult) fail(row int, messages []string) {
	r.FailedRows++
	r.Errors = append(r.Errors, RowError{Row: row, Errors: messages})
}

func rowMessages(err error) []string {
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		return verr.Messages()
	}
	return []string{"Database error: " + err.Error()}
}
