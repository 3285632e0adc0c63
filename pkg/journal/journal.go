// Package journal records the outcomes a VK client publishes into Postgres.
//
// A Journal listens to apiCall, initCall and initError events and writes one
// row per event. Rows are only ever appended; nothing reads them back to serve
// calls.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/natserract/vk/pkg/vk"
	"go.uber.org/zap"
)

const Schema = `
CREATE TABLE IF NOT EXISTS vk_call_journal (
	id          UUID PRIMARY KEY,
	event       TEXT NOT NULL,
	method      TEXT,
	ok          BOOLEAN NOT NULL,
	error_code  INTEGER,
	error_msg   TEXT,
	payload     JSONB,
	created_at  TIMESTAMPTZ NOT NULL
)`

const insertEntry = `
INSERT INTO vk_call_journal (id, event, method, ok, error_code, error_msg, payload, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// Execer is the subset of a pgx pool the journal writes through.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Entry is one journal row.
type Entry struct {
	ID        uuid.UUID
	Event     string
	Method    pgtype.Text
	OK        bool
	ErrorCode pgtype.Int4
	ErrorMsg  pgtype.Text
	Payload   []byte
	CreatedAt time.Time
}

type Journal struct {
	db           Execer
	logger       *zap.Logger
	writeTimeout time.Duration
	now          func() time.Time
}

func New(db Execer, logger *zap.Logger) *Journal {
	return &Journal{
		db:           db,
		logger:       logger,
		writeTimeout: 5 * time.Second,
		now:          time.Now,
	}
}

// Attach subscribes the journal to every event c publishes. Write failures
// are logged and never reach the client's callers.
func (j *Journal) Attach(c *vk.Client) {
	listener := func(ev vk.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), j.writeTimeout)
		defer cancel()
		if err := j.Record(ctx, ev); err != nil {
			j.logger.Error("Failed to record journal entry",
				zap.String("event", string(ev.Name)),
				zap.Error(err))
		}
	}
	c.On(vk.EventAPICall, listener).
		On(vk.EventInitCall, listener).
		On(vk.EventInitError, listener)
}

// Record writes ev as a single row.
func (j *Journal) Record(ctx context.Context, ev vk.Event) error {
	entry := j.entryFromEvent(ev)

	var payload any
	if entry.Payload != nil {
		payload = string(entry.Payload)
	}

	_, err := j.db.Exec(ctx, insertEntry,
		entry.ID,
		entry.Event,
		entry.Method,
		entry.OK,
		entry.ErrorCode,
		entry.ErrorMsg,
		payload,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}

	j.logger.Debug("Recorded journal entry",
		zap.String("id", entry.ID.String()),
		zap.String("event", entry.Event))
	return nil
}

func (j *Journal) entryFromEvent(ev vk.Event) Entry {
	entry := Entry{
		ID:        uuid.New(),
		Event:     string(ev.Name),
		Method:    pgtype.Text{String: ev.Method, Valid: ev.Method != ""},
		OK:        ev.Err == nil,
		CreatedAt: j.now().UTC(),
	}

	if ev.Err == nil {
		if len(ev.Result) > 0 {
			entry.Payload = ev.Result
		}
		return entry
	}

	var (
		authErr    *vk.AuthError
		payloadErr *vk.AuthPayloadError
		apiErr     *vk.APIError
		respErr    *vk.ResponseError
	)
	switch {
	case errors.As(ev.Err, &authErr):
		entry.ErrorCode = pgtype.Int4{Int32: int32(authErr.ErrorCode), Valid: true}
		entry.ErrorMsg = pgtype.Text{String: authErr.ErrorMsg, Valid: true}
		if json.Valid([]byte(authErr.ErrorMsg)) {
			entry.Payload = []byte(authErr.ErrorMsg)
		}
	case errors.As(ev.Err, &payloadErr):
		entry.ErrorMsg = pgtype.Text{String: payloadErr.Error(), Valid: true}
		entry.Payload = payloadErr.Raw
	case errors.As(ev.Err, &apiErr):
		entry.ErrorCode = pgtype.Int4{Int32: int32(apiErr.Code), Valid: apiErr.Code != 0}
		entry.ErrorMsg = pgtype.Text{String: apiErr.Msg, Valid: apiErr.Msg != ""}
		entry.Payload = apiErr.Raw
	case errors.As(ev.Err, &respErr):
		entry.ErrorCode = pgtype.Int4{Int32: int32(respErr.StatusCode), Valid: respErr.StatusCode != 0}
		entry.ErrorMsg = pgtype.Text{String: respErr.Error(), Valid: true}
	default:
		entry.ErrorMsg = pgtype.Text{String: ev.Err.Error(), Valid: true}
	}

	return entry
}
