package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/construtora/agenda-api/internal/models"
	appErrors "github.com/construtora/agenda-api/pkg/errors"
)

type departmentRepository interface {
	List(ctx context.Context, includeInactive bool) ([]models.Department, error)
	FindByID(ctx context.Context, id string) (*models.Department, error)
	FindByName(ctx context.Context, name string) (*models.Department, error)
	Create(ctx context.Context, department *models.Department) error
	Update(ctx context.Context, department *models.Department) error
	Delete(ctx context.Context, id string) error
}

type departmentMemberRepository interface {
	CountActiveByDepartment(ctx context.Context, department string) (int, error)
	RenameDepartment(ctx context.Context, from, to string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// DepartmentRequest is the payload for creating or updating a department.
type DepartmentRequest struct {
	Name        string `json:"nome" validate:"required,max=80"`
	Description string `json:"descricao" validate:"max=500"`
	Active      *bool  `json:"ativo"`
}

// DepartmentService manages the department list used by the roster.
type DepartmentService struct {
	repo      departmentRepository
	members   departmentMemberRepository
	views     viewInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDepartmentService constructs a DepartmentService.
func NewDepartmentService(repo departmentRepository, members departmentMemberRepository, views viewInvalidator, validate *validator.Validate, logger *zap.Logger) *DepartmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &DepartmentService{repo: repo, members: members, views: views, validator: validate, logger: logger}
}

// List returns departments ordered by name.
func (s *DepartmentService) List(ctx context.Context, includeInactive bool) ([]models.Department, error) {
	departments, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list departments")
	}
	return departments, nil
}

// Create adds a department with a unique name.
func (s *DepartmentService) Create(ctx context.Context, req DepartmentRequest, actorID string, meta models.RequestMeta) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid department payload")
	}
	name := strings.TrimSpace(req.Name)
	if err := s.ensureNameFree(ctx, name, ""); err != nil {
		return nil, err
	}

	department := &models.Department{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Active:      req.Active == nil || *req.Active,
	}
	if err := s.repo.Create(ctx, department); err != nil {
		return nil, appErrors.Internal(err, "failed to create department")
	}

	s.audit(ctx, actorID, department.ID, nil, department, meta)
	return department, nil
}

// Update renames or toggles a department. A rename is applied to every member.
func (s *DepartmentService) Update(ctx context.Context, id string, req DepartmentRequest, actorID string, meta models.RequestMeta) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid department payload")
	}

	department, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	old := *department

	name := strings.TrimSpace(req.Name)
	renamed := name != department.Name
	if !strings.EqualFold(name, department.Name) {
		if err := s.ensureNameFree(ctx, name, id); err != nil {
			return nil, err
		}
	}

	department.Name = name
	department.Description = strings.TrimSpace(req.Description)
	if req.Active != nil {
		if !*req.Active && department.Active {
			if err := s.ensureUnused(ctx, old.Name); err != nil {
				return nil, err
			}
		}
		department.Active = *req.Active
	}

	if err := s.repo.Update(ctx, department); err != nil {
		return nil, appErrors.Internal(err, "failed to update department")
	}
	if renamed {
		if err := s.members.RenameDepartment(ctx, old.Name, department.Name); err != nil {
			return nil, appErrors.Internal(err, "failed to move users to the renamed department")
		}
		if s.views != nil {
			s.views.InvalidateCalendars(ctx)
		}
	}

	s.audit(ctx, actorID, department.ID, &old, department, meta)
	return department, nil
}

// Delete removes a department that no active user references.
func (s *DepartmentService) Delete(ctx context.Context, id string, actorID string, meta models.RequestMeta) error {
	department, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ensureUnused(ctx, department.Name); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return appErrors.Internal(err, "failed to delete department")
	}

	s.audit(ctx, actorID, department.ID, department, nil, meta)
	return nil
}

func (s *DepartmentService) get(ctx context.Context, id string) (*models.Department, error) {
	department, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Internal(err, "failed to load department")
	}
	return department, nil
}

func (s *DepartmentService) ensureNameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.repo.FindByName(ctx, name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return appErrors.Internal(err, "failed to check department name")
	case existing.ID != selfID:
		return appErrors.Clone(appErrors.ErrConflict, "department name already exists")
	}
	return nil
}

func (s *DepartmentService) ensureUnused(ctx context.Context, name string) error {
	count, err := s.members.CountActiveByDepartment(ctx, name)
	if err != nil {
		return appErrors.Internal(err, "failed to count department members")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("department still has %d active users", count))
	}
	return nil
}

func (s *DepartmentService) audit(ctx context.Context, actorID, departmentID string, oldValue, newValue *models.Department, meta models.RequestMeta) {
	entry := &models.AuditLog{
		ID:         uuid.NewString(),
		UserID:     &actorID,
		Action:     models.AuditActionDepartmentChange,
		Resource:   "departments",
		ResourceID: &departmentID,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}
	if oldValue != nil {
		entry.OldValues, _ = json.Marshal(oldValue)
	}
	if newValue != nil {
		entry.NewValues, _ = json.Marshal(newValue)
	}
	if err := s.members.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record department audit log", zap.Error(err))
	}
}
