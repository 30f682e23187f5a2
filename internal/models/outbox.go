package models

import (
	"encoding/json"
	"time"
)

// Collection names the two agenda record sets.
type Collection string

const (
	CollectionEvents Collection = "eventos"
	CollectionTasks  Collection = "tarefas"
)

// WriteOp is the kind of a pending write.
type WriteOp string

const (
	WriteOpUpsert WriteOp = "upsert"
	WriteOpDelete WriteOp = "delete"
)

// PendingWrite is a write that did not reach the primary backend and waits for replay.
type PendingWrite struct {
	ID         string          `db:"id" json:"id"`
	Collection Collection      `db:"collection" json:"colecao"`
	RecordID   string          `db:"record_id" json:"registroId"`
	Op         WriteOp         `db:"op" json:"operacao"`
	Payload    json.RawMessage `db:"payload" json:"payload,omitempty"`
	Attempts   int             `db:"attempts" json:"tentativas"`
	LastError  string          `db:"last_error" json:"ultimoErro,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"criadoEm"`
}

// BackendStatus reports the health of one persistence backend.
type BackendStatus struct {
	Name      string `json:"nome"`
	Role      string `json:"papel"`
	Healthy   bool   `json:"saudavel"`
	LatencyMs int64  `json:"latenciaMs"`
	Error     string `json:"erro,omitempty"`
}

// SyncReport summarises an outbox replay and mirror reconciliation.
type SyncReport struct {
	Replayed     int       `json:"reaplicados"`
	Failed       int       `json:"falhas"`
	Pending      int       `json:"pendentes"`
	EventsCopied int       `json:"eventosCopiados"`
	TasksCopied  int       `json:"tarefasCopiadas"`
	FinishedAt   time.Time `json:"concluidoEm"`
}
