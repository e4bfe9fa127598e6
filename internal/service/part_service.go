package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "mgtrako/internal/errors"
	"mgtrako/internal/model"
	"mgtrako/internal/policy"
	"mgtrako/internal/repository"
)

// PartInput is the editable content of a catalog entry.
type PartInput struct {
	PartNumber  string          `json:"part_number" validate:"required"`
	Description string          `json:"description"`
	Weight      decimal.Decimal `json:"weight"`
	Dimensions  string          `json:"dimensions"`
}

// PartService manages the part catalog.
type PartService interface {
	Create(ctx context.Context, actor policy.Actor, in PartInput) (*model.PartInfo, error)
	Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.PartInfo, error)
	List(ctx context.Context, actor policy.Actor, search string) ([]model.PartInfo, error)
	Update(ctx context.Context, actor policy.Actor, id uuid.UUID, in PartInput) (*model.PartInfo, error)
	Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error
}

type partService struct {
	store    repository.Store
	validate *validator.Validate
}

// NewPartService creates a new part catalog service.
func NewPartService(store repository.Store, v *validator.Validate) PartService {
	if v == nil {
		v = NewValidator()
	}
	return &partService{store: store, validate: v}
}

func (s *partService) Create(ctx context.Context, actor policy.Actor, in PartInput) (*model.PartInfo, error) {
	if !policy.IsActive(actor) {
		return nil, apperrors.ErrForbidden
	}
	in, err := s.check(in)
	if err != nil {
		return nil, err
	}

	if err := s.ensureUnique(ctx, in.PartNumber, uuid.Nil); err != nil {
		return nil, err
	}

	part := &model.PartInfo{
		PartNumber:  in.PartNumber,
		Description: in.Description,
		Weight:      in.Weight,
		Dimensions:  in.Dimensions,
	}
	if err := s.store.Parts().Create(ctx, part); err != nil {
		return nil, fmt.Errorf("create part: %w", err)
	}
	return part, nil
}

func (s *partService) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.PartInfo, error) {
	if !policy.IsActive(actor) {
		return nil, apperrors.ErrForbidden
	}
	return s.find(ctx, id)
}

// List matches search against part number and description.
func (s *partService) List(ctx context.Context, actor policy.Actor, search string) ([]model.PartInfo, error) {
	if !policy.IsActive(actor) {
		return nil, apperrors.ErrForbidden
	}
	parts, err := s.store.Parts().List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}
	return parts, nil
}

func (s *partService) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, in PartInput) (*model.PartInfo, error) {
	if !policy.IsActive(actor) {
		return nil, apperrors.ErrForbidden
	}
	in, err := s.check(in)
	if err != nil {
		return nil, err
	}

	part, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, in.PartNumber, id); err != nil {
		return nil, err
	}

	part.PartNumber = in.PartNumber
	part.Description = in.Description
	part.Weight = in.Weight
	part.Dimensions = in.Dimensions
	if err := s.store.Parts().Update(ctx, part); err != nil {
		return nil, fmt.Errorf("update part: %w", err)
	}
	return part, nil
}

// Delete refuses to remove a part number that any request still carries.
func (s *partService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	if !policy.IsActive(actor) {
		return apperrors.ErrForbidden
	}
	part, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	inUse, err := s.store.Requests().HasPartNumber(ctx, part.PartNumber)
	if err != nil {
		return fmt.Errorf("check part usage: %w", err)
	}
	if inUse {
		return apperrors.Conflict("part is referenced by existing requests")
	}

	if err := s.store.Parts().Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFoundError("part", id.String())
		}
		return fmt.Errorf("delete part: %w", err)
	}
	return nil
}

func (s *partService) check(in PartInput) (PartInput, error) {
	in.PartNumber = strings.TrimSpace(in.PartNumber)
	in.Description = strings.TrimSpace(in.Description)
	in.Dimensions = strings.TrimSpace(in.Dimensions)

	if err := s.validate.Struct(in); err != nil {
		return in, ToValidationError(err)
	}
	if in.Weight.IsNegative() {
		return in, apperrors.NewValidationError("weight", "must not be negative")
	}
	return in, nil
}

func (s *partService) find(ctx context.Context, id uuid.UUID) (*model.PartInfo, error) {
	part, err := s.store.Parts().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("part", id.String())
		}
		return nil, fmt.Errorf("load part: %w", err)
	}
	return part, nil
}

// ensureUnique fails when another part, other than self, already uses the number.
func (s *partService) ensureUnique(ctx context.Context, partNumber string, self uuid.UUID) error {
	existing, err := s.store.Parts().FindByPartNumber(ctx, partNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("check part number: %w", err)
	}
	if existing.ID != self {
		return apperrors.Conflict("part number already exists")
	}
	return nil
}
