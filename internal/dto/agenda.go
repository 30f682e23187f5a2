package dto

import (
	"time"

	"github.com/construtora/agenda-api/internal/models"
)

// EventRequest is the payload for creating or replacing an event.
type EventRequest struct {
	Title        string             `json:"titulo" validate:"required,max=200"`
	Description  string             `json:"descricao" validate:"max=4000"`
	Date         string             `json:"data" validate:"required,datetime=2006-01-02"`
	StartTime    string             `json:"horarioInicio" validate:"omitempty,hhmm"`
	EndTime      string             `json:"horarioFim" validate:"omitempty,hhmm"`
	Type         models.EventType   `json:"tipo" validate:"omitempty,oneof=reuniao entrega visita_obra prazo treinamento outro"`
	Status       models.EventStatus `json:"status" validate:"omitempty,oneof=agendado confirmado concluido cancelado"`
	Participants []string           `json:"participantes" validate:"max=100"`
	Visibility   models.Visibility  `json:"visibilidade" validate:"omitempty,oneof=publico equipe privado"`
	Responsible  string             `json:"responsavel"`
	Location     string             `json:"local" validate:"max=200"`
	// UpdatedAt carries the version the client edited; a newer stored record is a conflict.
	UpdatedAt *time.Time `json:"atualizadoEm"`
}

// EventStatusRequest changes only the status of an event.
type EventStatusRequest struct {
	Status models.EventStatus `json:"status" validate:"required,oneof=agendado confirmado concluido cancelado"`
}

// TaskRequest is the payload for creating or replacing a task.
type TaskRequest struct {
	Title        string              `json:"titulo" validate:"required,max=200"`
	Description  string              `json:"descricao" validate:"max=4000"`
	Scope        models.TaskScope    `json:"escopo" validate:"omitempty,oneof=pessoal equipe publico"`
	Responsible  string              `json:"responsavel"`
	Participants []string            `json:"participantes" validate:"max=100"`
	ShowOnCal    bool                `json:"aparecerNoCalendario"`
	Status       models.TaskStatus   `json:"status" validate:"omitempty,oneof=pendente em_andamento concluida cancelada"`
	Priority     models.TaskPriority `json:"prioridade" validate:"omitempty,oneof=baixa media alta urgente"`
	Progress     int                 `json:"progresso"`
	StartDate    string              `json:"dataInicio" validate:"omitempty,datetime=2006-01-02"`
	DueDate      string              `json:"dataFim" validate:"omitempty,datetime=2006-01-02"`
	UpdatedAt    *time.Time          `json:"atualizadoEm"`
}

// TaskProgressRequest updates the completion percentage of a task.
type TaskProgressRequest struct {
	Progress int `json:"progresso"`
}

// EventQuery holds list filters for events.
type EventQuery struct {
	From        string `form:"de" validate:"omitempty,datetime=2006-01-02"`
	To          string `form:"ate" validate:"omitempty,datetime=2006-01-02"`
	Type        string `form:"tipo"`
	Status      string `form:"status"`
	Responsible string `form:"responsavel"`
	Participant string `form:"participante"`
	// IncludeCancelled keeps cancelled events in the result.
	IncludeCancelled bool `form:"incluirCancelados"`
}

// TaskQuery holds list filters for tasks.
type TaskQuery struct {
	From             string `form:"de" validate:"omitempty,datetime=2006-01-02"`
	To               string `form:"ate" validate:"omitempty,datetime=2006-01-02"`
	Scope            string `form:"escopo"`
	Status           string `form:"status"`
	Priority         string `form:"prioridade"`
	Responsible      string `form:"responsavel"`
	IncludeCancelled bool   `form:"incluirCancelados"`
}

// CalendarCell is one day of the month grid.
type CalendarCell struct {
	Date    string         `json:"data"`
	InMonth bool           `json:"doMes"`
	IsToday bool           `json:"hoje"`
	Events  []models.Event `json:"eventos"`
	Tasks   []models.Task  `json:"tarefas"`
}

// CalendarMonth is a six week grid starting on Sunday.
type CalendarMonth struct {
	Year  int              `json:"ano"`
	Month int              `json:"mes"`
	Start string           `json:"inicio"`
	End   string           `json:"fim"`
	Weeks [][]CalendarCell `json:"semanas"`
}

// CalendarDay lists what happens on a single day.
type CalendarDay struct {
	Date   string         `json:"data"`
	Events []models.Event `json:"eventos"`
	Tasks  []models.Task  `json:"tarefas"`
}

// Agenda item kinds.
const (
	AgendaItemEvent = "evento"
	AgendaItemTask  = "tarefa"
)

// AgendaItem is an event or task placed on the personal agenda.
type AgendaItem struct {
	Kind      string        `json:"tipoItem"`
	ID        string        `json:"id"`
	Title     string        `json:"titulo"`
	Date      string        `json:"data"`
	StartTime string        `json:"horarioInicio,omitempty"`
	EndTime   string        `json:"horarioFim,omitempty"`
	Status    string        `json:"status"`
	Priority  string        `json:"prioridade,omitempty"`
	Overdue   bool          `json:"atrasada"`
	Event     *models.Event `json:"evento,omitempty"`
	Task      *models.Task  `json:"tarefa,omitempty"`
}

// AgendaSummary holds the counters shown above the personal agenda.
type AgendaSummary struct {
	Events            int `json:"eventos"`
	OpenTasks         int `json:"tarefasAbertas"`
	Overdue           int `json:"atrasadas"`
	CompletedThisWeek int `json:"concluidasSemana"`
}

// PersonalAgenda groups the caller's items by when they happen.
type PersonalAgenda struct {
	From     string        `json:"de"`
	To       string        `json:"ate"`
	Today    string        `json:"dataHoje"`
	Overdue  []AgendaItem  `json:"atrasadas"`
	Current  []AgendaItem  `json:"hoje"`
	Tomorrow []AgendaItem  `json:"amanha"`
	Upcoming []AgendaItem  `json:"proximos"`
	Summary  AgendaSummary `json:"resumo"`
}
