package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/construtora/agenda-api/internal/models"
	appErrors "github.com/construtora/agenda-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type userDepartmentLookup interface {
	FindByName(ctx context.Context, name string) (*models.Department, error)
}

// CreateUserRequest represents payload for creating users.
type CreateUserRequest struct {
	Name       string            `json:"nome" validate:"required,max=120"`
	Email      string            `json:"email" validate:"required,email"`
	Password   string            `json:"senha" validate:"required,min=6"`
	JobTitle   string            `json:"cargo" validate:"max=120"`
	Department string            `json:"departamento"`
	Permission models.Permission `json:"permissoes" validate:"required,oneof=admin editor viewer"`
	Active     *bool             `json:"ativo"`
}

// UpdateUserRequest payload for updating users.
type UpdateUserRequest struct {
	Name       string            `json:"nome" validate:"required,max=120"`
	JobTitle   string            `json:"cargo" validate:"max=120"`
	Department string            `json:"departamento"`
	Permission models.Permission `json:"permissoes" validate:"required,oneof=admin editor viewer"`
	Active     *bool             `json:"ativo"`
}

// UserService handles roster management workflows.
type UserService struct {
	repo        userRepository
	departments userDepartmentLookup
	views       viewInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, departments userDepartmentLookup, views viewInvalidator, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &UserService{repo: repo, departments: departments, views: views, validator: validate, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list users")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	return users, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	return user, nil
}

// Create adds a new roster member.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest, actorID string, meta models.RequestMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create user payload")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to check email uniqueness")
	}

	department, err := s.resolveDepartment(ctx, req.Department)
	if err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(passwordHash),
		JobTitle:     strings.TrimSpace(req.JobTitle),
		Department:   department,
		Permission:   req.Permission,
		Active:       active,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Internal(err, "failed to create user")
	}

	s.audit(ctx, actorID, models.AuditActionUserCreate, user.ID, nil, userSnapshot(user), meta)
	return user, nil
}

// Update modifies the user attributes. Admins cannot demote or deactivate themselves.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest, actorID string, meta models.RequestMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if id == actorID {
		if user.Permission == models.PermissionAdmin && req.Permission != models.PermissionAdmin {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "admins cannot remove their own admin permission")
		}
		if req.Active != nil && !*req.Active {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "you cannot deactivate your own account")
		}
	}

	department := user.Department
	if !strings.EqualFold(strings.TrimSpace(req.Department), user.Department) {
		department, err = s.resolveDepartment(ctx, req.Department)
		if err != nil {
			return nil, err
		}
	}

	old := userSnapshot(user)
	regrouped := department != user.Department || (req.Active != nil && *req.Active != user.Active)

	user.Name = strings.TrimSpace(req.Name)
	user.JobTitle = strings.TrimSpace(req.JobTitle)
	user.Department = department
	user.Permission = req.Permission
	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Internal(err, "failed to update user")
	}
	if regrouped {
		s.invalidateViews(ctx)
	}

	s.audit(ctx, actorID, models.AuditActionUserUpdate, user.ID, old, userSnapshot(user), meta)
	return user, nil
}

// Delete performs a soft delete (inactive) on a user.
func (s *UserService) Delete(ctx context.Context, id string, actorID string, meta models.RequestMeta) error {
	if id == actorID {
		return appErrors.Clone(appErrors.ErrForbidden, "you cannot deactivate your own account")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Internal(err, "failed to delete user")
	}
	s.invalidateViews(ctx)

	s.audit(ctx, actorID, models.AuditActionUserDelete, user.ID,
		map[string]interface{}{"ativo": user.Active},
		map[string]interface{}{"ativo": false}, meta)
	return nil
}

// invalidateViews drops cached calendars, since team visibility follows departments.
func (s *UserService) invalidateViews(ctx context.Context) {
	if s.views != nil {
		s.views.InvalidateCalendars(ctx)
	}
}

// resolveDepartment returns the canonical department name. Blank means no department.
func (s *UserService) resolveDepartment(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || s.departments == nil {
		return name, nil
	}
	department, err := s.departments.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrValidation, "department does not exist")
		}
		return "", appErrors.Internal(err, "failed to load department")
	}
	if !department.Active {
		return "", appErrors.Clone(appErrors.ErrValidation, "department is inactive")
	}
	return department.Name, nil
}

func (s *UserService) audit(ctx context.Context, actorID, action, resourceID string, oldValues, newValues map[string]interface{}, meta models.RequestMeta) {
	entry := &models.AuditLog{
		ID:         uuid.NewString(),
		UserID:     &actorID,
		Action:     action,
		Resource:   "users",
		ResourceID: &resourceID,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}
	if oldValues != nil {
		entry.OldValues, _ = json.Marshal(oldValues)
	}
	if newValues != nil {
		entry.NewValues, _ = json.Marshal(newValues)
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record user audit log", zap.String("action", action), zap.Error(err))
	}
}

func userSnapshot(user *models.User) map[string]interface{} {
	return map[string]interface{}{
		"nome":         user.Name,
		"email":        user.Email,
		"departamento": user.Department,
		"permissoes":   user.Permission,
		"ativo":        user.Active,
	}
}
