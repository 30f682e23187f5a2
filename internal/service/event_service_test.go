package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/construtora/agenda-api/internal/dto"
	"github.com/construtora/agenda-api/internal/models"
	appErrors "github.com/construtora/agenda-api/pkg/errors"
)

func newEventFixture() (*EventService, *memAgendaStore, *mockRoster, *countingViews) {
	store := newMemAgendaStore()
	roster := newTeamRoster()
	views := &countingViews{}
	return NewEventService(store, roster, views, nil, zap.NewNop()), store, roster, views
}

func TestEventServiceCreate(t *testing.T) {
	svc, store, roster, views := newEventFixture()

	event, result, err := svc.Create(context.Background(), viewerOf(roster, "joao"), dto.EventRequest{
		Title:        " Vistoria bloco B ",
		Date:         "2026-10-20",
		StartTime:    "09:00",
		EndTime:      "10:30",
		Type:         models.EventTypeSiteVisit,
		Participants: []string{"ana", " ana", "", "pedro"},
		Visibility:   models.VisibilityTeam,
	})
	require.NoError(t, err)
	assert.Equal(t, "Vistoria bloco B", event.Title)
	assert.Equal(t, "joao", event.CreatedBy)
	assert.Equal(t, "joao", event.Responsible)
	assert.Equal(t, models.EventStatusScheduled, event.Status)
	assert.Equal(t, []string{"ana", "pedro"}, []string(event.Participants))
	assert.Equal(t, "postgres", result.Source)
	assert.False(t, result.Degraded)
	assert.Contains(t, store.events, event.ID)
	assert.Equal(t, 1, views.invalidations)
}

func TestEventServiceCreateValidation(t *testing.T) {
	cases := []struct {
		name string
		req  dto.EventRequest
	}{
		{"missing title", dto.EventRequest{Date: "2026-10-20"}},
		{"bad date", dto.EventRequest{Title: "x", Date: "20/10/2026"}},
		{"bad clock", dto.EventRequest{Title: "x", Date: "2026-10-20", StartTime: "9h"}},
		{"end before start", dto.EventRequest{Title: "x", Date: "2026-10-20", StartTime: "10:00", EndTime: "09:00"}},
		{"end without start", dto.EventRequest{Title: "x", Date: "2026-10-20", EndTime: "09:00"}},
		{"unknown participant", dto.EventRequest{Title: "x", Date: "2026-10-20", Participants: []string{"ghost"}}},
		{"bad visibility", dto.EventRequest{Title: "x", Date: "2026-10-20", Visibility: "secreto"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store, roster, _ := newEventFixture()
			_, _, err := svc.Create(context.Background(), viewerOf(roster, "joao"), tc.req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
			assert.Empty(t, store.events)
		})
	}
}

func TestEventServiceViewerCannotCreate(t *testing.T) {
	svc, _, roster, _ := newEventFixture()
	_, _, err := svc.Create(context.Background(), viewerOf(roster, "pedro"), dto.EventRequest{Title: "x", Date: "2026-10-20"})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestEventServiceListFiltersAndSorts(t *testing.T) {
	svc, store, roster, _ := newEventFixture()
	store.events = map[string]models.Event{
		"late":      {ID: "late", Title: "Reunião", Date: mustDate("2026-10-20"), StartTime: "14:00", Visibility: models.VisibilityPublic, Status: models.EventStatusScheduled},
		"early":     {ID: "early", Title: "Café", Date: mustDate("2026-10-20"), StartTime: "08:00", Visibility: models.VisibilityPublic, Status: models.EventStatusScheduled},
		"allday":    {ID: "allday", Title: "Entrega", Date: mustDate("2026-10-20"), Visibility: models.VisibilityPublic, Status: models.EventStatusScheduled},
		"yesterday": {ID: "yesterday", Title: "Prazo", Date: mustDate("2026-10-19"), Visibility: models.VisibilityPublic, Status: models.EventStatusScheduled},
		"private":   {ID: "private", Title: "Médico", Date: mustDate("2026-10-20"), CreatedBy: "ana", Responsible: "ana", Visibility: models.VisibilityPrivate},
		"cancelled": {ID: "cancelled", Title: "Antigo", Date: mustDate("2026-10-20"), Visibility: models.VisibilityPublic, Status: models.EventStatusCancelled},
	}

	events, source, err := svc.List(context.Background(), viewerOf(roster, "joao"), dto.EventQuery{From: "2026-10-19", To: "2026-10-20"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", source)

	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"yesterday", "allday", "early", "late"}, ids)

	events, _, err = svc.List(context.Background(), viewerOf(roster, "joao"), dto.EventQuery{IncludeCancelled: true})
	require.NoError(t, err)
	assert.Len(t, events, 5)

	_, _, err = svc.List(context.Background(), viewerOf(roster, "joao"), dto.EventQuery{From: "2026-10-21", To: "2026-10-20"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestEventServiceUpdateRejectsStaleWrite(t *testing.T) {
	svc, store, roster, _ := newEventFixture()
	stored := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return stored.Add(time.Hour) }
	store.events["e1"] = models.Event{ID: "e1", Title: "Reunião", Date: mustDate("2026-10-20"), CreatedBy: "joao", Responsible: "joao", Visibility: models.VisibilityPublic, UpdatedAt: stored}

	seen := stored.Add(-time.Minute)
	_, _, err := svc.Update(context.Background(), viewerOf(roster, "joao"), "e1", dto.EventRequest{Title: "Nova", Date: "2026-10-20", UpdatedAt: &seen})
	require.Error(t, err)
	assert.Equal(t, 409, appErrors.FromError(err).Status)
	assert.True(t, errors.Is(err, appErrors.ErrStaleWrite))

	updated, _, err := svc.Update(context.Background(), viewerOf(roster, "joao"), "e1", dto.EventRequest{Title: "Nova", Date: "2026-10-21", UpdatedAt: &stored})
	require.NoError(t, err)
	assert.Equal(t, "Nova", updated.Title)
	assert.Equal(t, "2026-10-21", updated.Date.String())
	assert.True(t, updated.UpdatedAt.After(stored))
}

func TestEventServiceEditRights(t *testing.T) {
	svc, store, roster, _ := newEventFixture()
	store.events["e1"] = models.Event{ID: "e1", Title: "Reunião", Date: mustDate("2026-10-20"), CreatedBy: "joao", Responsible: "joao", Visibility: models.VisibilityPublic}

	_, _, err := svc.UpdateStatus(context.Background(), viewerOf(roster, "ana"), "e1", dto.EventStatusRequest{Status: models.EventStatusConfirmed})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	event, _, err := svc.UpdateStatus(context.Background(), viewerOf(roster, "carla"), "e1", dto.EventStatusRequest{Status: models.EventStatusConfirmed})
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusConfirmed, event.Status)

	_, err = svc.Delete(context.Background(), viewerOf(roster, "pedro"), "e1")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Delete(context.Background(), viewerOf(roster, "joao"), "e1")
	require.NoError(t, err)
	assert.NotContains(t, store.events, "e1")

	_, err = svc.Delete(context.Background(), viewerOf(roster, "joao"), "e1")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestEventServiceGetHidesPrivate(t *testing.T) {
	svc, store, roster, _ := newEventFixture()
	store.events["p"] = models.Event{ID: "p", Title: "Particular", Date: mustDate("2026-10-20"), CreatedBy: "ana", Responsible: "ana", Visibility: models.VisibilityPrivate}

	_, _, err := svc.Get(context.Background(), viewerOf(roster, "carla"), "p")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	event, _, err := svc.Get(context.Background(), viewerOf(roster, "ana"), "p")
	require.NoError(t, err)
	assert.Equal(t, "Particular", event.Title)
}

func TestEventServiceReportsDegradedWrite(t *testing.T) {
	svc, store, roster, _ := newEventFixture()
	store.degraded = true

	_, result, err := svc.Create(context.Background(), viewerOf(roster, "ana"), dto.EventRequest{Title: "Entrega de aço", Date: "2026-10-22"})
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	assert.Equal(t, "local", result.Source)
}
