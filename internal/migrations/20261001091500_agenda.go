package migrations

import "github.com/jmoiron/sqlx"

func init() {
	addMigration(&migration{
		version: "20261001091500",
		up:      mig_20261001091500_agenda_up,
		down:    mig_20261001091500_agenda_down,
	})
}

func mig_20261001091500_agenda_up(tx *sqlx.Tx) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id UUID PRIMARY KEY,
			title VARCHAR(200) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			event_date DATE NOT NULL,
			start_time VARCHAR(5) NOT NULL DEFAULT '',
			end_time VARCHAR(5) NOT NULL DEFAULT '',
			event_type VARCHAR(32) NOT NULL DEFAULT 'outro',
			status VARCHAR(32) NOT NULL DEFAULT 'agendado',
			participants TEXT[] NOT NULL DEFAULT '{}',
			visibility VARCHAR(16) NOT NULL DEFAULT 'publico',
			created_by TEXT NOT NULL,
			responsible TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_date ON events (event_date)`,
		`CREATE INDEX IF NOT EXISTS idx_events_responsible ON events (responsible)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id UUID PRIMARY KEY,
			title VARCHAR(200) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			scope VARCHAR(16) NOT NULL DEFAULT 'pessoal',
			responsible TEXT NOT NULL,
			participants TEXT[] NOT NULL DEFAULT '{}',
			show_on_calendar BOOLEAN NOT NULL DEFAULT FALSE,
			status VARCHAR(32) NOT NULL DEFAULT 'pendente',
			priority VARCHAR(16) NOT NULL DEFAULT 'media',
			progress SMALLINT NOT NULL DEFAULT 0 CHECK (progress BETWEEN 0 AND 100),
			start_date DATE,
			due_date DATE,
			created_by TEXT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			CHECK (start_date IS NULL OR due_date IS NULL OR due_date >= start_date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks (due_date)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_responsible ON tasks (responsible)`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func mig_20261001091500_agenda_down(tx *sqlx.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS tasks, events`)
	return err
}
