// Package usagelog appends a best-effort record of each completed request
// to the usage_log table. Failures here are swallowed per spec §7: the
// log is diagnostic, never load-bearing for the response.
package usagelog

import (
	"context"
	"encoding/json"
	"time"

	supa "github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"interactions-backend/internal/cache/supabase"
)

// Entry is one usage_log row.
type Entry struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Items     []string       `json:"items"`
	Summary   map[string]any `json:"summary"`
	LatencyMs int64          `json:"latency_ms"`
	CacheHits map[string]int `json:"cache_hits"`
}

// Logger appends Entry rows to usage_log.
type Logger struct {
	client *supa.Client
	log    *zap.Logger
}

// New builds a Logger sharing client with the other cache stores.
func New(client *supa.Client, log *zap.Logger) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logger{client: client, log: log}
}

// Record appends entry, logging and swallowing any failure.
func (l *Logger) Record(ctx context.Context, entry Entry) {
	payload, err := json.Marshal(entry)
	if err != nil {
		l.log.Warn("usage log marshal failed", zap.Error(err))
		return
	}

	_, _, err = l.client.From(supabase.UsageLogTable).
		Insert(json.RawMessage(payload), false, "", "", "").
		Execute()
	if err != nil {
		l.log.Warn("usage log write failed", zap.Error(err))
	}
}
