// Package roster loads the team roster file and seeds it into the user store.
package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/construtora/agenda-api/internal/models"
)

// File is the parsed roster document.
type File struct {
	Departments []Department `yaml:"departamentos"`
	Members     []Member     `yaml:"equipe"`
}

// Department is one roster department.
type Department struct {
	Name        string `yaml:"nome"`
	Description string `yaml:"descricao"`
}

// Member is one roster employee. ID is optional; when set it must be a UUID.
type Member struct {
	ID         string            `yaml:"id"`
	Name       string            `yaml:"nome"`
	Email      string            `yaml:"email"`
	JobTitle   string            `yaml:"cargo"`
	Department string            `yaml:"departamento"`
	Permission models.Permission `yaml:"permissoes"`
}

// Load reads and validates a roster file.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates roster YAML.
func Parse(raw []byte) (*File, error) {
	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// Validate checks required fields, permissions, unique e-mails and department references.
func (f *File) Validate() error {
	departments := make(map[string]bool, len(f.Departments))
	for i, d := range f.Departments {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return fmt.Errorf("departamentos[%d]: nome is required", i)
		}
		key := strings.ToLower(name)
		if departments[key] {
			return fmt.Errorf("departamentos[%d]: duplicate department %q", i, name)
		}
		departments[key] = true
	}

	emails := make(map[string]bool, len(f.Members))
	for i, m := range f.Members {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("equipe[%d]: nome is required", i)
		}
		if m.ID != "" {
			if _, err := uuid.Parse(m.ID); err != nil {
				return fmt.Errorf("equipe[%d]: id must be a UUID", i)
			}
		}
		email := strings.ToLower(strings.TrimSpace(m.Email))
		if email == "" || !strings.Contains(email, "@") {
			return fmt.Errorf("equipe[%d]: invalid email %q", i, m.Email)
		}
		if emails[email] {
			return fmt.Errorf("equipe[%d]: duplicate email %q", i, m.Email)
		}
		emails[email] = true

		switch m.Permission {
		case models.PermissionAdmin, models.PermissionEditor, models.PermissionViewer:
		default:
			return fmt.Errorf("equipe[%d]: unknown permissoes %q", i, m.Permission)
		}
		if m.Department != "" && !departments[strings.ToLower(strings.TrimSpace(m.Department))] {
			return fmt.Errorf("equipe[%d]: department %q is not declared", i, m.Department)
		}
	}
	return nil
}

type userStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

type departmentStore interface {
	FindByName(ctx context.Context, name string) (*models.Department, error)
	Create(ctx context.Context, department *models.Department) error
	Update(ctx context.Context, department *models.Department) error
}

// Result counts what a seed run changed.
type Result struct {
	DepartmentsCreated int
	DepartmentsUpdated int
	UsersCreated       int
	UsersUpdated       int
}

// Seeder upserts a roster into the user and department stores.
type Seeder struct {
	users       userStore
	departments departmentStore
	logger      *zap.Logger
}

// NewSeeder constructs a Seeder.
func NewSeeder(users userStore, departments departmentStore, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{users: users, departments: departments, logger: logger.Named("roster")}
}

// Seed upserts every department and member. New members get defaultPassword;
// existing members keep theirs.
func (s *Seeder) Seed(ctx context.Context, file *File, defaultPassword string) (Result, error) {
	var result Result
	if len(defaultPassword) < 6 {
		return result, errors.New("default password must have at least 6 characters")
	}

	for _, d := range file.Departments {
		name := strings.TrimSpace(d.Name)
		existing, err := s.departments.FindByName(ctx, name)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if err := s.departments.Create(ctx, &models.Department{Name: name, Description: d.Description, Active: true}); err != nil {
				return result, err
			}
			result.DepartmentsCreated++
		case err != nil:
			return result, err
		default:
			existing.Description = d.Description
			existing.Active = true
			if err := s.departments.Update(ctx, existing); err != nil {
				return result, err
			}
			result.DepartmentsUpdated++
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return result, fmt.Errorf("hash default password: %w", err)
	}

	for _, m := range file.Members {
		email := strings.ToLower(strings.TrimSpace(m.Email))
		existing, err := s.users.FindByEmail(ctx, email)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			user := &models.User{
				ID:           m.ID,
				Name:         strings.TrimSpace(m.Name),
				Email:        email,
				PasswordHash: string(hash),
				JobTitle:     m.JobTitle,
				Department:   strings.TrimSpace(m.Department),
				Permission:   m.Permission,
				Active:       true,
			}
			if err := s.users.Create(ctx, user); err != nil {
				return result, err
			}
			result.UsersCreated++
		case err != nil:
			return result, err
		default:
			existing.Name = strings.TrimSpace(m.Name)
			existing.JobTitle = m.JobTitle
			existing.Department = strings.TrimSpace(m.Department)
			existing.Permission = m.Permission
			existing.Active = true
			if err := s.users.Update(ctx, existing); err != nil {
				return result, err
			}
			result.UsersUpdated++
		}
	}

	s.logger.Info("roster seeded",
		zap.Int("departments_created", result.DepartmentsCreated),
		zap.Int("users_created", result.UsersCreated),
		zap.Int("users_updated", result.UsersUpdated))
	return result, nil
}
