package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/navaja-dev/barber-academy-api/internal/models"
	appErrors "github.com/navaja-dev/barber-academy-api/pkg/errors"
)

type instructorRepository interface {
	List(ctx context.Context, search string, activeOnly bool) ([]models.Instructor, error)
	FindByID(ctx context.Context, id int64) (*models.Instructor, error)
	Create(ctx context.Context, instructor *models.Instructor) error
	Update(ctx context.Context, instructor *models.Instructor) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// InstructorRequest describes create/update payloads.
type InstructorRequest struct {
	FullName  string `json:"full_name" validate:"required"`
	Document  string `json:"document"`
	Phone     string `json:"phone"`
	Email     string `json:"email" validate:"omitempty,email"`
	Specialty string `json:"specialty"`
}

// InstructorService manages the instructor roster.
type InstructorService struct {
	repo      instructorRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInstructorService constructs InstructorService.
func NewInstructorService(repo instructorRepository, validate *validator.Validate, logger *zap.Logger) *InstructorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstructorService{repo: repo, validator: validate, logger: logger}
}

// List returns instructors, optionally narrowed to active ones.
func (s *InstructorService) List(ctx context.Context, search string, activeOnly bool) ([]models.Instructor, error) {
	instructors, err := s.repo.List(ctx, search, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}
	return instructors, nil
}

// Get returns an instructor by id.
func (s *InstructorService) Get(ctx context.Context, id int64) (*models.Instructor, error) {
	instructor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	return instructor, nil
}

// Create validates and persists a new instructor.
func (s *InstructorService) Create(ctx context.Context, req InstructorRequest) (*models.Instructor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}
	instructor := &models.Instructor{
		FullName:  req.FullName,
		Document:  req.Document,
		Phone:     req.Phone,
		Email:     req.Email,
		Specialty: req.Specialty,
		Active:    true,
	}
	if err := s.repo.Create(ctx, instructor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create instructor")
	}
	return instructor, nil
}

// Update rewrites an existing instructor.
func (s *InstructorService) Update(ctx context.Context, id int64, req InstructorRequest) (*models.Instructor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}
	instructor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	instructor.FullName = req.FullName
	instructor.Document = req.Document
	instructor.Phone = req.Phone
	instructor.Email = req.Email
	instructor.Specialty = req.Specialty
	if err := s.repo.Update(ctx, instructor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update instructor")
	}
	return instructor, nil
}

// Deactivate marks an instructor inactive.
func (s *InstructorService) Deactivate(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate instructor")
	}
	return nil
}
