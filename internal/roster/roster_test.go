package roster

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/construtora/agenda-api/internal/models"
)

const sampleRoster = `
departamentos:
  - nome: Engenharia
    descricao: Projetos e cálculo
  - nome: Obras
equipe:
  - id: 6f1c2b9e-3d4a-4c1e-9b7a-2f8e5d0c1a11
    nome: Carla Souza
    email: Carla@Construtora.com
    cargo: Engenheira
    departamento: Engenharia
    permissoes: admin
  - nome: João Lima
    email: joao@construtora.com
    cargo: Mestre de obras
    departamento: Obras
    permissoes: editor
`

type memUsers struct {
	byEmail map[string]*models.User
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memUsers) Create(_ context.Context, user *models.User) error {
	m.byEmail[user.Email] = user
	return nil
}

func (m *memUsers) Update(_ context.Context, user *models.User) error {
	m.byEmail[user.Email] = user
	return nil
}

type memDepartments struct {
	byName map[string]*models.Department
}

func (m *memDepartments) FindByName(_ context.Context, name string) (*models.Department, error) {
	if d, ok := m.byName[name]; ok {
		clone := *d
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memDepartments) Create(_ context.Context, d *models.Department) error {
	m.byName[d.Name] = d
	return nil
}

func (m *memDepartments) Update(_ context.Context, d *models.Department) error {
	m.byName[d.Name] = d
	return nil
}

func TestLoadRoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRoster), 0o600))

	file, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, file.Departments, 2)
	require.Len(t, file.Members, 2)
	assert.Equal(t, models.PermissionAdmin, file.Members[0].Permission)
	assert.Equal(t, "6f1c2b9e-3d4a-4c1e-9b7a-2f8e5d0c1a11", file.Members[0].ID)
}

func TestParseRejectsInvalidRoster(t *testing.T) {
	cases := map[string]string{
		"unknown permission":    "equipe:\n  - nome: A\n    email: a@x.com\n    permissoes: owner\n",
		"undeclared department": "equipe:\n  - nome: A\n    email: a@x.com\n    departamento: RH\n    permissoes: viewer\n",
		"duplicate email":       "equipe:\n  - nome: A\n    email: a@x.com\n    permissoes: viewer\n  - nome: B\n    email: A@x.com\n    permissoes: viewer\n",
		"missing email":         "equipe:\n  - nome: A\n    permissoes: viewer\n",
		"id not uuid":           "equipe:\n  - id: ana\n    nome: A\n    email: a@x.com\n    permissoes: viewer\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestSeedKeepsExistingPasswords(t *testing.T) {
	file, err := Parse([]byte(sampleRoster))
	require.NoError(t, err)

	users := &memUsers{byEmail: map[string]*models.User{
		"joao@construtora.com": {ID: "joao", Email: "joao@construtora.com", PasswordHash: "kept", Permission: models.PermissionViewer},
	}}
	departments := &memDepartments{byName: map[string]*models.Department{
		"Obras": {ID: "d-obras", Name: "Obras", Active: false},
	}}

	result, err := NewSeeder(users, departments, zap.NewNop()).Seed(context.Background(), file, "trocar123")
	require.NoError(t, err)
	assert.Equal(t, Result{DepartmentsCreated: 1, DepartmentsUpdated: 1, UsersCreated: 1, UsersUpdated: 1}, result)

	joao := users.byEmail["joao@construtora.com"]
	assert.Equal(t, "kept", joao.PasswordHash)
	assert.Equal(t, models.PermissionEditor, joao.Permission)
	assert.True(t, departments.byName["Obras"].Active)

	carla := users.byEmail["carla@construtora.com"]
	require.NotNil(t, carla)
	assert.Equal(t, "6f1c2b9e-3d4a-4c1e-9b7a-2f8e5d0c1a11", carla.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(carla.PasswordHash), []byte("trocar123")))
}

func TestSeedRejectsShortPassword(t *testing.T) {
	_, err := NewSeeder(&memUsers{byEmail: map[string]*models.User{}}, &memDepartments{byName: map[string]*models.Department{}}, nil).
		Seed(context.Background(), &File{}, "123")
	assert.Error(t, err)
}
