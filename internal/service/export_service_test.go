package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/construtora/agenda-api/internal/models"
	appErrors "github.com/construtora/agenda-api/pkg/errors"
	"github.com/construtora/agenda-api/pkg/export"
)

type capturingRenderer struct {
	data export.Dataset
}

func (c *capturingRenderer) Render(data export.Dataset) ([]byte, error) {
	c.data = data
	return []byte("rendered"), nil
}

func newExportFixture() (*ExportService, *memAgendaStore, *mockRoster, *capturingRenderer, *capturingRenderer) {
	store := newMemAgendaStore()
	roster := newTeamRoster()
	events := NewEventService(store, roster, nil, nil, zap.NewNop())
	tasks := NewTaskService(store, roster, nil, nil, zap.NewNop(), time.UTC)
	csv, pdf := &capturingRenderer{}, &capturingRenderer{}
	svc := NewExportService(events, tasks, roster, csv, pdf, zap.NewNop(), time.UTC)
	svc.now = func() time.Time { return fixedNow }
	return svc, store, roster, csv, pdf
}

func TestExportServiceAgenda(t *testing.T) {
	svc, store, roster, csv, pdf := newExportFixture()
	store.events["e1"] = models.Event{ID: "e1", Title: "Concretagem", Date: mustDate("2026-10-20"), StartTime: "07:00", Responsible: "joao", Visibility: models.VisibilityPublic, Status: models.EventStatusScheduled}
	store.events["late"] = models.Event{ID: "late", Title: "Fora", Date: mustDate("2026-12-20"), Visibility: models.VisibilityPublic}
	store.tasks["t1"] = models.Task{ID: "t1", Title: "Armação", Scope: models.TaskScopePublic, Responsible: "ana", Status: models.TaskStatusInProgress, Progress: 30, DueDate: datePtr("2026-10-25")}

	file, err := svc.Agenda(context.Background(), viewerOf(roster, "pedro"), "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "agenda_2026-10-17_2026-11-16.csv", file.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)
	require.Len(t, csv.data.Rows, 2)
	assert.Equal(t, "João", csv.data.Rows[0]["Responsável"])
	assert.Equal(t, "em_andamento (30%)", csv.data.Rows[1]["Status"])
	assert.Equal(t, "2026-10-25", csv.data.Rows[1]["Data"])

	file, err = svc.Agenda(context.Background(), viewerOf(roster, "pedro"), "PDF", "2026-10-01", "2026-10-31")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, "Agenda 01/10/2026 a 31/10/2026", pdf.data.Title)
}

func TestExportServiceRejectsBadInput(t *testing.T) {
	svc, _, roster, _, _ := newExportFixture()

	_, err := svc.Agenda(context.Background(), viewerOf(roster, "pedro"), "xlsx", "", "")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Agenda(context.Background(), viewerOf(roster, "pedro"), "csv", "2026-01-01", "2027-06-01")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
