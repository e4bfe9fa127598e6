package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "mgtrako/internal/errors"
	"mgtrako/internal/model"
	"mgtrako/internal/policy"
	"mgtrako/internal/reconcile"
	"mgtrako/internal/repository"
	"mgtrako/internal/shipment"
)

// Audit log actions written by the lifecycle operations.
const (
	logMarkedDeleted = "Request marked as deleted"
	logRestored      = "Request restored from deleted state"
)

// RequestInput is the editable content of a must-go request, used for both
// create and edit. A nil PalletCount is computed from the parts.
type RequestInput struct {
	ShipmentNumber  string                  `json:"shipment_number" validate:"required"`
	Plant           string                  `json:"plant" validate:"plant"`
	PalletCount     *int                    `json:"pallet_count,omitempty"`
	RouteInfo       string                  `json:"route_info"`
	AdditionalNotes string                  `json:"additional_notes"`
	Trailers        []shipment.TrailerGroup `json:"trailers" validate:"required,min=1,dive"`
}

// UpdateStatusInput moves a request to another status, adds a note, or both.
type UpdateStatusInput struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// RequestView is a loaded request together with its trailer-grouped parts
// and what the caller may do with it.
type RequestView struct {
	Request         *model.MustGoRequest    `json:"request"`
	Trailers        []shipment.TrailerGroup `json:"trailers"`
	CanEdit         bool                    `json:"can_edit"`
	CanUpdateStatus bool                    `json:"can_update_status"`
}

// RequestService runs the must-go request lifecycle. Every operation takes
// the acting user explicitly.
type RequestService interface {
	Create(ctx context.Context, actor policy.Actor, in RequestInput) (*RequestView, error)
	Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*RequestView, error)
	List(ctx context.Context, actor policy.Actor, filter repository.RequestFilter) ([]RequestView, error)
	UpdateStatus(ctx context.Context, actor policy.Actor, id uuid.UUID, in UpdateStatusInput) (*RequestView, error)
	Edit(ctx context.Context, actor policy.Actor, id uuid.UUID, in RequestInput) (*RequestView, error)
	SoftDelete(ctx context.Context, actor policy.Actor, id uuid.UUID) (*RequestView, error)
	Restore(ctx context.Context, actor policy.Actor, id uuid.UUID) (*RequestView, error)
}

type requestService struct {
	store     repository.Store
	validator *RequestValidator
	logger    *zap.Logger
	now       func() time.Time
}

// NewRequestService creates a new request lifecycle service.
func NewRequestService(store repository.Store, validator *RequestValidator, logger *zap.Logger) RequestService {
	if validator == nil {
		validator = NewRequestValidator(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &requestService{
		store:     store,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates the payload and writes the request, its trailers, parts
// and creation log in one transaction.
func (s *requestService) Create(ctx context.Context, actor policy.Actor, in RequestInput) (*RequestView, error) {
	if !policy.CanCreateRequest(actor) {
		return nil, apperrors.ErrForbidden
	}

	in, err := s.validator.Validate(in)
	if err != nil {
		return nil, err
	}

	var id uuid.UUID
	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		req := &model.MustGoRequest{
			ShipmentNumber:  in.ShipmentNumber,
			Plant:           optional(in.Plant),
			PalletCount:     *in.PalletCount,
			Status:          model.RequestStatusPending,
			RouteInfo:       optional(in.RouteInfo),
			AdditionalNotes: optional(in.AdditionalNotes),
			Notes:           datatypes.JSONSlice[string]{},
			CreatedBy:       actor.ID,
		}
		if err := tx.Requests().Create(ctx, req); err != nil {
			return fmt.Errorf("insert request: %w", err)
		}
		if err := writeContents(ctx, tx, req.ID, in.Trailers); err != nil {
			return err
		}

		id = req.ID
		action := fmt.Sprintf("Request created with %d part number(s)", shipment.PartCount(in.Trailers))
		return tx.Logs().Create(ctx, s.logEntry(req.ID, actor, action, s.now()))
	})
	if err != nil {
		return nil, s.fail("create request", uuid.Nil, err)
	}

	return s.view(ctx, actor, id)
}

func (s *requestService) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*RequestView, error) {
	return s.view(ctx, actor, id)
}

// List honours IncludeDeleted only for actors allowed to see deleted requests.
func (s *requestService) List(ctx context.Context, actor policy.Actor, filter repository.RequestFilter) ([]RequestView, error) {
	if !policy.CanViewDeleted(actor) {
		filter.IncludeDeleted = false
	}

	requests, err := s.store.Requests().List(ctx, filter)
	if err != nil {
		return nil, s.fail("list requests", uuid.Nil, err)
	}

	views := make([]RequestView, 0, len(requests))
	for i := range requests {
		views = append(views, newView(actor, &requests[i]))
	}
	return views, nil
}

// UpdateStatus sets a new status and/or appends a note, logging one combined
// entry. Setting the status the request already has is not a change.
func (s *requestService) UpdateStatus(ctx context.Context, actor policy.Actor, id uuid.UUID, in UpdateStatusInput) (*RequestView, error) {
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		req, err := s.loadVisible(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if !policy.CanUpdateStatus(actor, req) {
			return apperrors.ErrForbidden
		}

		status, note, err := parseStatusInput(in)
		if err != nil {
			return err
		}
		if status == req.Status {
			status = ""
		}
		if status == "" && note == "" {
			return nil
		}

		fields := map[string]interface{}{}
		if status != "" {
			fields["status"] = status
		}
		if note != "" {
			notes := append(datatypes.JSONSlice[string]{}, req.Notes...)
			fields["notes"] = append(notes, note)
		}
		if err := tx.Requests().UpdateFields(ctx, id, fields); err != nil {
			return fmt.Errorf("update request: %w", err)
		}

		return tx.Logs().Create(ctx, s.logEntry(id, actor, statusAction(status, note), s.now()))
	})
	if err != nil {
		return nil, s.fail("update status", id, err)
	}

	return s.view(ctx, actor, id)
}

func parseStatusInput(in UpdateStatusInput) (model.RequestStatus, string, error) {
	rawStatus := strings.TrimSpace(in.Status)
	note := strings.TrimSpace(in.Note)

	var status model.RequestStatus
	if rawStatus != "" {
		parsed, ok := model.ParseRequestStatus(rawStatus)
		if !ok {
			return "", "", apperrors.NewValidationError("status", "must be one of "+statusList())
		}
		status = parsed
	}
	if status == "" && note == "" {
		return "", "", apperrors.NewValidationError("status", "status or note is required")
	}
	return status, note, nil
}

func statusAction(status model.RequestStatus, note string) string {
	switch {
	case status != "" && note != "":
		return fmt.Sprintf("Status updated to %s with note: %s", status, note)
	case status != "":
		return fmt.Sprintf("Status updated to %s", status)
	default:
		return "Note added: " + note
	}
}

// Edit replaces the request's contents and logs what changed. Trailer links
// and parts are deleted and recreated rather than patched. The payload is
// only checked once the caller is known to be allowed to edit the request.
func (s *requestService) Edit(ctx context.Context, actor policy.Actor, id uuid.UUID, in RequestInput) (*RequestView, error) {
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		req, err := s.loadVisible(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if !policy.CanEditRequest(actor, req) {
			return apperrors.ErrForbidden
		}

		in, err = s.validator.Validate(in)
		if err != nil {
			return err
		}

		diff := reconcile.Diff(reconcile.SnapshotOf(req), reconcile.Snapshot{
			ShipmentNumber:  in.ShipmentNumber,
			Plant:           in.Plant,
			PalletCount:     *in.PalletCount,
			RouteInfo:       in.RouteInfo,
			AdditionalNotes: in.AdditionalNotes,
			Trailers:        in.Trailers,
		})

		fields := map[string]interface{}{
			"shipment_number":  in.ShipmentNumber,
			"plant":            optional(in.Plant),
			"pallet_count":     *in.PalletCount,
			"route_info":       optional(in.RouteInfo),
			"additional_notes": optional(in.AdditionalNotes),
		}
		if err := tx.Requests().UpdateFields(ctx, id, fields); err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		if err := tx.Requests().ClearContents(ctx, id); err != nil {
			return fmt.Errorf("clear request contents: %w", err)
		}
		if err := writeContents(ctx, tx, id, in.Trailers); err != nil {
			return err
		}

		now := s.now()
		messages := diff.Messages()
		logs := make([]model.RequestLog, 0, len(messages))
		for _, action := range messages {
			logs = append(logs, *s.logEntry(id, actor, action, now))
		}
		return tx.Logs().CreateBatch(ctx, logs)
	})
	if err != nil {
		return nil, s.fail("edit request", id, err)
	}

	return s.view(ctx, actor, id)
}

func (s *requestService) SoftDelete(ctx context.Context, actor policy.Actor, id uuid.UUID) (*RequestView, error) {
	return s.setDeleted(ctx, actor, id, true)
}

func (s *requestService) Restore(ctx context.Context, actor policy.Actor, id uuid.UUID) (*RequestView, error) {
	return s.setDeleted(ctx, actor, id, false)
}

func (s *requestService) setDeleted(ctx context.Context, actor policy.Actor, id uuid.UUID, deleted bool) (*RequestView, error) {
	if !policy.CanDeleteRequest(actor) {
		return nil, apperrors.ErrForbidden
	}

	op, action := "restore request", logRestored
	if deleted {
		op, action = "delete request", logMarkedDeleted
	}

	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		req, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if req.Deleted == deleted {
			if deleted {
				return apperrors.Conflict("request is already deleted")
			}
			return apperrors.Conflict("request is not deleted")
		}

		now := s.now()
		fields := map[string]interface{}{"deleted": deleted, "deleted_at": nil}
		if deleted {
			fields["deleted_at"] = now
		}
		if err := tx.Requests().UpdateFields(ctx, id, fields); err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		return tx.Logs().Create(ctx, s.logEntry(id, actor, action, now))
	})
	if err != nil {
		return nil, s.fail(op, id, err)
	}

	return s.view(ctx, actor, id)
}

// writeContents upserts the trailers, links them to the request and inserts
// the parts.
func writeContents(ctx context.Context, tx repository.Store, requestID uuid.UUID, groups []shipment.TrailerGroup) error {
	parts, trailers, err := shipment.Flatten(ctx, requestID, groups, tx.Trailers().Upsert)
	if err != nil {
		return err
	}
	if err := tx.Requests().LinkTrailers(ctx, requestID, trailers); err != nil {
		return fmt.Errorf("link trailers: %w", err)
	}
	if err := tx.Requests().CreateParts(ctx, parts); err != nil {
		return fmt.Errorf("insert parts: %w", err)
	}
	return nil
}

func (s *requestService) load(ctx context.Context, store repository.Store, id uuid.UUID) (*model.MustGoRequest, error) {
	req, err := store.Requests().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("request", id.String())
		}
		return nil, fmt.Errorf("load request: %w", err)
	}
	return req, nil
}

// loadVisible hides soft-deleted requests from actors who may not see them.
func (s *requestService) loadVisible(ctx context.Context, store repository.Store, actor policy.Actor, id uuid.UUID) (*model.MustGoRequest, error) {
	req, err := s.load(ctx, store, id)
	if err != nil {
		return nil, err
	}
	if req.Deleted && !policy.CanViewDeleted(actor) {
		return nil, apperrors.NewNotFoundError("request", id.String())
	}
	return req, nil
}

func (s *requestService) view(ctx context.Context, actor policy.Actor, id uuid.UUID) (*RequestView, error) {
	req, err := s.loadVisible(ctx, s.store, actor, id)
	if err != nil {
		return nil, s.fail("get request", id, err)
	}
	v := newView(actor, req)
	return &v, nil
}

func newView(actor policy.Actor, req *model.MustGoRequest) RequestView {
	return RequestView{
		Request:         req,
		Trailers:        shipment.Group(req.PartDetails),
		CanEdit:         policy.CanEditRequest(actor, req),
		CanUpdateStatus: policy.CanUpdateStatus(actor, req),
	}
}

func (s *requestService) logEntry(requestID uuid.UUID, actor policy.Actor, action string, at time.Time) *model.RequestLog {
	return &model.RequestLog{
		RequestID:   requestID,
		Action:      action,
		PerformedBy: actor.ID,
		Timestamp:   at,
	}
}

// fail passes domain errors through and logs everything else.
func (s *requestService) fail(op string, id uuid.UUID, err error) error {
	if isDomainError(err) {
		return err
	}
	fields := []zap.Field{zap.String("op", op), zap.Error(err)}
	if id != uuid.Nil {
		fields = append(fields, zap.String("request_id", id.String()))
	}
	s.logger.Error("request operation failed", fields...)
	return fmt.Errorf("%s: %w", op, err)
}

func isDomainError(err error) bool {
	var verr *apperrors.ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, apperrors.ErrNotFound) ||
		errors.Is(err, apperrors.ErrForbidden) ||
		errors.Is(err, apperrors.ErrConflict)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func statusList() string {
	statuses := model.RequestStatuses()
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}
