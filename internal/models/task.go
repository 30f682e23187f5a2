package models

import (
	"time"

	"github.com/lib/pq"
)

// TaskScope defines the visibility class of a task.
type TaskScope string

const (
	TaskScopePersonal TaskScope = "pessoal"
	TaskScopeTeam     TaskScope = "equipe"
	TaskScopePublic   TaskScope = "publico"
)

// TaskStatus tracks task progress.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pendente"
	TaskStatusInProgress TaskStatus = "em_andamento"
	TaskStatusDone       TaskStatus = "concluida"
	TaskStatusCancelled  TaskStatus = "cancelada"
)

// TaskPriority orders tasks of the same due date.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "baixa"
	TaskPriorityMedium TaskPriority = "media"
	TaskPriorityHigh   TaskPriority = "alta"
	TaskPriorityUrgent TaskPriority = "urgente"
)

// Rank returns a sortable weight, higher is more urgent.
func (p TaskPriority) Rank() int {
	switch p {
	case TaskPriorityUrgent:
		return 3
	case TaskPriorityHigh:
		return 2
	case TaskPriorityMedium:
		return 1
	default:
		return 0
	}
}

// Task is a unit of work assigned to a team member.
type Task struct {
	ID           string         `db:"id" json:"id"`
	Title        string         `db:"title" json:"titulo"`
	Description  string         `db:"description" json:"descricao"`
	Scope        TaskScope      `db:"scope" json:"escopo"`
	Responsible  string         `db:"responsible" json:"responsavel"`
	Participants pq.StringArray `db:"participants" json:"participantes"`
	ShowOnCal    bool           `db:"show_on_calendar" json:"aparecerNoCalendario"`
	Status       TaskStatus     `db:"status" json:"status"`
	Priority     TaskPriority   `db:"priority" json:"prioridade"`
	Progress     int            `db:"progress" json:"progresso"`
	StartDate    *Date          `db:"start_date" json:"dataInicio,omitempty"`
	DueDate      *Date          `db:"due_date" json:"dataFim,omitempty"`
	CreatedBy    string         `db:"created_by" json:"criadoPor"`
	CreatedAt    time.Time      `db:"created_at" json:"criadoEm"`
	UpdatedAt    time.Time      `db:"updated_at" json:"atualizadoEm"`
}

// EnsureDefaults fills zero values and applies the progress/status coupling.
func (t *Task) EnsureDefaults() {
	if t.Participants == nil {
		t.Participants = pq.StringArray{}
	}
	if t.Scope == "" {
		t.Scope = TaskScopePersonal
	}
	if t.Status == "" {
		t.Status = TaskStatusPending
	}
	if t.Priority == "" {
		t.Priority = TaskPriorityMedium
	}
	if t.Responsible == "" {
		t.Responsible = t.CreatedBy
	}
	t.ApplyProgress(t.Progress)
}

// ApplyProgress clamps progress to 0..100 and keeps status consistent with it.
func (t *Task) ApplyProgress(progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	t.Progress = progress
	switch {
	case t.Status == TaskStatusDone:
		t.Progress = 100
	case progress == 100 && (t.Status == TaskStatusPending || t.Status == TaskStatusInProgress):
		t.Status = TaskStatusDone
	case progress > 0 && t.Status == TaskStatusPending:
		t.Status = TaskStatusInProgress
	}
}

// Open reports whether the task still needs work.
func (t *Task) Open() bool {
	return t.Status == TaskStatusPending || t.Status == TaskStatusInProgress
}

// Overdue reports whether an open task is past its due date.
func (t *Task) Overdue(today Date) bool {
	return t.Open() && t.DueDate != nil && t.DueDate.Before(today)
}

// Covers reports whether the task span includes day. A task with a single bound covers that day only.
func (t *Task) Covers(day Date) bool {
	switch {
	case t.StartDate != nil && t.DueDate != nil:
		return !day.Before(*t.StartDate) && !day.After(*t.DueDate)
	case t.StartDate != nil:
		return day.Equal(*t.StartDate)
	case t.DueDate != nil:
		return day.Equal(*t.DueDate)
	default:
		return false
	}
}

// Overlaps reports whether the task span intersects [from, to]. Nil bounds are open.
func (t *Task) Overlaps(from, to *Date) bool {
	start, end := t.StartDate, t.DueDate
	if start == nil {
		start = end
	}
	if end == nil {
		end = start
	}
	if start == nil {
		return from == nil && to == nil
	}
	if to != nil && start.After(*to) {
		return false
	}
	if from != nil && end.Before(*from) {
		return false
	}
	return true
}

// TaskFilter narrows down task listings.
type TaskFilter struct {
	From        *Date
	To          *Date
	Scope       TaskScope
	Status      TaskStatus
	Priority    TaskPriority
	Responsible string
}

// Matches reports whether the task satisfies the filter.
func (f TaskFilter) Matches(t *Task) bool {
	if (f.From != nil || f.To != nil) && !t.Overlaps(f.From, f.To) {
		return false
	}
	if f.Scope != "" && t.Scope != f.Scope {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Responsible != "" && t.Responsible != f.Responsible {
		return false
	}
	return true
}
