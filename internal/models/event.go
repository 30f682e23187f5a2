package models

import (
	"time"

	"github.com/lib/pq"
)

// EventType classifies a calendar event.
type EventType string

const (
	EventTypeMeeting   EventType = "reuniao"
	EventTypeDelivery  EventType = "entrega"
	EventTypeSiteVisit EventType = "visita_obra"
	EventTypeDeadline  EventType = "prazo"
	EventTypeTraining  EventType = "treinamento"
	EventTypeOther     EventType = "outro"
)

// EventStatus tracks the lifecycle of an event.
type EventStatus string

const (
	EventStatusScheduled EventStatus = "agendado"
	EventStatusConfirmed EventStatus = "confirmado"
	EventStatusDone      EventStatus = "concluido"
	EventStatusCancelled EventStatus = "cancelado"
)

// Visibility defines who can see an event.
type Visibility string

const (
	VisibilityPublic  Visibility = "publico"
	VisibilityTeam    Visibility = "equipe"
	VisibilityPrivate Visibility = "privado"
)

// Event is a dated entry on the team calendar.
type Event struct {
	ID           string         `db:"id" json:"id"`
	Title        string         `db:"title" json:"titulo"`
	Description  string         `db:"description" json:"descricao"`
	Date         Date           `db:"event_date" json:"data"`
	StartTime    string         `db:"start_time" json:"horarioInicio"`
	EndTime      string         `db:"end_time" json:"horarioFim"`
	Type         EventType      `db:"event_type" json:"tipo"`
	Status       EventStatus    `db:"status" json:"status"`
	Participants pq.StringArray `db:"participants" json:"participantes"`
	Visibility   Visibility     `db:"visibility" json:"visibilidade"`
	CreatedBy    string         `db:"created_by" json:"criadoPor"`
	Responsible  string         `db:"responsible" json:"responsavel"`
	Location     string         `db:"location" json:"local"`
	CreatedAt    time.Time      `db:"created_at" json:"criadoEm"`
	UpdatedAt    time.Time      `db:"updated_at" json:"atualizadoEm"`
}

// EnsureDefaults fills zero values that clients and storage backends rely on.
func (e *Event) EnsureDefaults() {
	if e.Participants == nil {
		e.Participants = pq.StringArray{}
	}
	if e.Status == "" {
		e.Status = EventStatusScheduled
	}
	if e.Visibility == "" {
		e.Visibility = VisibilityPublic
	}
	if e.Type == "" {
		e.Type = EventTypeOther
	}
	if e.Responsible == "" {
		e.Responsible = e.CreatedBy
	}
}

// Timed reports whether the event has a start time.
func (e *Event) Timed() bool {
	return e.StartTime != ""
}

// EventFilter narrows down event listings.
type EventFilter struct {
	From        *Date
	To          *Date
	Type        EventType
	Status      EventStatus
	Responsible string
	Participant string
}

// Matches reports whether the event satisfies the filter.
func (f EventFilter) Matches(e *Event) bool {
	if f.From != nil && e.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Date.After(*f.To) {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.Responsible != "" && e.Responsible != f.Responsible {
		return false
	}
	if f.Participant != "" && !containsString(e.Participants, f.Participant) {
		return false
	}
	return true
}

func containsString(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}
