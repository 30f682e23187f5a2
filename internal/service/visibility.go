package service

import (
	"context"
	"fmt"

	"github.com/construtora/agenda-api/internal/models"
)

// rosterLookup resolves user records for participant checks and team visibility.
type rosterLookup interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

// departmentIndex maps user ids to their department.
type departmentIndex map[string]string

func (d departmentIndex) sameDepartment(v models.Viewer, userID string) bool {
	if v.Department == "" {
		return false
	}
	return d[userID] == v.Department
}

// loadDepartments fetches the departments of the given users. Duplicates and blanks are ignored.
func loadDepartments(ctx context.Context, roster rosterLookup, ids []string) (departmentIndex, error) {
	index := departmentIndex{}
	unique := uniqueNonBlank(ids)
	if len(unique) == 0 || roster == nil {
		return index, nil
	}
	users, err := roster.FindByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("load departments: %w", err)
	}
	for _, u := range users {
		index[u.ID] = u.Department
	}
	return index, nil
}

// EventInvolves reports whether userID created, owns or takes part in the event.
func EventInvolves(e *models.Event, userID string) bool {
	if userID == "" {
		return false
	}
	if e.CreatedBy == userID || e.Responsible == userID {
		return true
	}
	return contains(e.Participants, userID)
}

// TaskInvolves reports whether userID created, owns or takes part in the task.
func TaskInvolves(t *models.Task, userID string) bool {
	if userID == "" {
		return false
	}
	if t.CreatedBy == userID || t.Responsible == userID {
		return true
	}
	return contains(t.Participants, userID)
}

// CanSeeEvent is the single definition of event visibility.
func CanSeeEvent(v models.Viewer, e *models.Event, departments departmentIndex) bool {
	owner := e.CreatedBy == v.UserID || e.Responsible == v.UserID
	switch e.Visibility {
	case models.VisibilityPrivate:
		return owner
	case models.VisibilityTeam:
		return v.IsAdmin() || EventInvolves(e, v.UserID) || departments.sameDepartment(v, e.Responsible)
	default:
		return true
	}
}

// CanSeeTask is the single definition of task visibility.
func CanSeeTask(v models.Viewer, t *models.Task, departments departmentIndex) bool {
	owner := t.CreatedBy == v.UserID || t.Responsible == v.UserID
	switch t.Scope {
	case models.TaskScopePublic:
		return true
	case models.TaskScopeTeam:
		return v.IsAdmin() || TaskInvolves(t, v.UserID) || departments.sameDepartment(v, t.Responsible)
	default:
		return owner
	}
}

// CanEditEvent reports whether the viewer may change or delete the event.
func CanEditEvent(v models.Viewer, e *models.Event) bool {
	switch v.Permission {
	case models.PermissionAdmin:
		return e.Visibility != models.VisibilityPrivate || e.CreatedBy == v.UserID || e.Responsible == v.UserID
	case models.PermissionEditor:
		return e.CreatedBy == v.UserID || e.Responsible == v.UserID
	default:
		return false
	}
}

// CanEditTask reports whether the viewer may change or delete the task.
func CanEditTask(v models.Viewer, t *models.Task) bool {
	switch v.Permission {
	case models.PermissionAdmin:
		return t.Scope != models.TaskScopePersonal || t.CreatedBy == v.UserID || t.Responsible == v.UserID
	case models.PermissionEditor:
		return t.CreatedBy == v.UserID || t.Responsible == v.UserID
	default:
		return false
	}
}

func teamEventOwners(events []models.Event) []string {
	ids := make([]string, 0, len(events))
	for i := range events {
		if events[i].Visibility == models.VisibilityTeam {
			ids = append(ids, events[i].Responsible)
		}
	}
	return ids
}

func teamTaskOwners(tasks []models.Task) []string {
	ids := make([]string, 0, len(tasks))
	for i := range tasks {
		if tasks[i].Scope == models.TaskScopeTeam {
			ids = append(ids, tasks[i].Responsible)
		}
	}
	return ids
}

func contains(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}

func uniqueNonBlank(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
