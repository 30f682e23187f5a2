package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/construtora/agenda-api/internal/dto"
	"github.com/construtora/agenda-api/internal/models"
	appErrors "github.com/construtora/agenda-api/pkg/errors"
	"github.com/construtora/agenda-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

const (
	defaultExportDays = 31
	maxExportDays     = 366
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered export ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders the caller's visible agenda as a printable file.
type ExportService struct {
	events   eventLister
	tasks    taskLister
	roster   rosterLookup
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	location *time.Location
	now      func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(events eventLister, tasks taskLister, roster rosterLookup, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger, loc *time.Location) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter(';')
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ExportService{events: events, tasks: tasks, roster: roster, csv: csv, pdf: pdf, logger: logger, location: loc, now: time.Now}
}

var exportHeaders = []string{"Tipo", "Data", "Início", "Fim", "Título", "Status", "Responsável", "Local"}

// Agenda renders events and calendar tasks between fromRaw and toRaw (one month from today by default).
func (s *ExportService) Agenda(ctx context.Context, viewer models.Viewer, format, fromRaw, toRaw string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	from, to, err := parseRange(fromRaw, toRaw)
	if err != nil {
		return nil, err
	}
	if from == nil {
		today := models.NewDate(s.now().In(s.location))
		from = &today
	}
	if to == nil {
		end := from.AddDays(defaultExportDays - 1)
		to = &end
	}
	if to.Sub(from.Time) > maxExportDays*24*time.Hour {
		return nil, appErrors.Clone(appErrors.ErrValidation, "export range is limited to one year")
	}

	events, _, err := s.events.List(ctx, viewer, dto.EventQuery{From: from.String(), To: to.String()})
	if err != nil {
		return nil, err
	}
	tasks, _, err := s.tasks.List(ctx, viewer, dto.TaskQuery{From: from.String(), To: to.String()})
	if err != nil {
		return nil, err
	}

	owners := make([]string, 0, len(events)+len(tasks))
	for _, e := range events {
		owners = append(owners, e.Responsible)
	}
	for _, t := range tasks {
		owners = append(owners, t.Responsible)
	}
	names, err := s.names(ctx, owners)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Title:   fmt.Sprintf("Agenda %s a %s", from.Format("02/01/2006"), to.Format("02/01/2006")),
		Headers: exportHeaders,
		Widths:  []float64{1.2, 1.5, 1, 1, 5, 1.6, 2.4, 2.3},
	}
	for _, e := range events {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Tipo":        "Evento",
			"Data":        e.Date.String(),
			"Início":      e.StartTime,
			"Fim":         e.EndTime,
			"Título":      e.Title,
			"Status":      string(e.Status),
			"Responsável": names.label(e.Responsible),
			"Local":       e.Location,
		})
	}
	for i := range tasks {
		t := tasks[i]
		row := map[string]string{
			"Tipo":        "Tarefa",
			"Título":      t.Title,
			"Status":      fmt.Sprintf("%s (%d%%)", t.Status, t.Progress),
			"Responsável": names.label(t.Responsible),
		}
		if t.StartDate != nil {
			row["Data"] = t.StartDate.String()
		}
		if t.DueDate != nil {
			row["Fim"] = t.DueDate.String()
			if row["Data"] == "" {
				row["Data"] = t.DueDate.String()
			}
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	file := &ExportFile{Filename: fmt.Sprintf("agenda_%s_%s.%s", from.String(), to.String(), format)}
	switch format {
	case ExportFormatPDF:
		file.ContentType = "application/pdf"
		file.Data, err = s.pdf.Render(dataset)
	default:
		file.ContentType = "text/csv; charset=utf-8"
		file.Data, err = s.csv.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}
	s.logger.Info("agenda exported", zap.String("user_id", viewer.UserID), zap.String("format", format), zap.Int("rows", len(dataset.Rows)))
	return file, nil
}

type nameIndex map[string]string

func (n nameIndex) label(id string) string {
	if name, ok := n[id]; ok && name != "" {
		return name
	}
	return id
}

func (s *ExportService) names(ctx context.Context, ids []string) (nameIndex, error) {
	index := nameIndex{}
	unique := uniqueNonBlank(ids)
	if len(unique) == 0 || s.roster == nil {
		return index, nil
	}
	users, err := s.roster.FindByIDs(ctx, unique)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to resolve responsible names")
	}
	for _, u := range users {
		index[u.ID] = u.Name
	}
	return index, nil
}
