package app

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// InteractionTracker persists session telemetry to an embedded badger store:
// one record per session, per user interaction, and per tool call. Every
// write is best-effort; storage failures are logged and never reach the
// pipeline. Safe to call from engine workers.
type InteractionTracker struct {
	db     *badger.DB
	logger *Logger

	mu          sync.Mutex
	sessionID   string
	interaction int
}

type sessionRecord struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Model     string    `json:"model"`
}

type interactionRecord struct {
	SessionID  string    `json:"session_id"`
	Sequence   int       `json:"sequence"`
	UserPrompt string    `json:"user_prompt"`
	Response   string    `json:"response"`
	Status     string    `json:"status"`
	Elapsed    int64     `json:"elapsed_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

type commandRecord struct {
	SessionID string    `json:"session_id"`
	Command   string    `json:"command"`
	ExitCode  int       `json:"exit_code"`
	Stdout    string    `json:"stdout"`
	Stderr    string    `json:"stderr"`
	Success   bool      `json:"success"`
	Elapsed   int64     `json:"elapsed_ms"`
	CreatedAt time.Time `json:"created_at"`
}

type toolCallRecord struct {
	SessionID string         `json:"session_id"`
	Tool      string         `json:"tool"`
	Args      map[string]any `json:"args"`
	Success   bool           `json:"success"`
	Cached    bool           `json:"cached"`
	Error     string         `json:"error,omitempty"`
	Elapsed   int64          `json:"elapsed_ms"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewInteractionTracker opens the telemetry store at dir. An empty dir opens
// an in-memory store, used by tests and as the fallback when the on-disk
// store cannot be opened.
func NewInteractionTracker(dir string, model string, logger *Logger) *InteractionTracker {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		if logger != nil {
			logger.Warn("tracker.open_failed", map[string]any{"dir": dir, "error": err.Error()})
		}
		db, err = badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
		if err != nil {
			return &InteractionTracker{logger: logger}
		}
	}

	t := &InteractionTracker{db: db, logger: logger, sessionID: uuid.NewString()}
	t.put("session/"+t.sessionID, sessionRecord{
		ID:        t.sessionID,
		StartedAt: time.Now().UTC(),
		Model:     model,
	})
	return t
}

// SessionID identifies the current tracking session.
func (t *InteractionTracker) SessionID() string {
	return t.sessionID
}

// RecordInteraction stores one completed user turn.
func (t *InteractionTracker) RecordInteraction(userPrompt, response string, elapsed time.Duration, failed bool) {
	t.mu.Lock()
	t.interaction++
	seq := t.interaction
	t.mu.Unlock()

	status := "completed"
	if failed {
		status = "error"
	}
	key := fmt.Sprintf("interaction/%s/%06d", t.sessionID, seq)
	t.put(key, interactionRecord{
		SessionID:  t.sessionID,
		Sequence:   seq,
		UserPrompt: userPrompt,
		Response:   response,
		Status:     status,
		Elapsed:    elapsed.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	})
}

// RecordToolCall stores the outcome of one tool execution.
func (t *InteractionTracker) RecordToolCall(result ToolResult) {
	key := "toolcall/" + t.sessionID + "/" + uuid.NewString()
	t.put(key, toolCallRecord{
		SessionID: t.sessionID,
		Tool:      result.Call.Name,
		Args:      result.Call.Args,
		Success:   result.Success,
		Cached:    result.Cached,
		Error:     result.Error,
		Elapsed:   result.Duration.Milliseconds(),
		CreatedAt: time.Now().UTC(),
	})
	if d := result.Detail; d != nil {
		t.put("command/"+t.sessionID+"/"+uuid.NewString(), commandRecord{
			SessionID: t.sessionID,
			Command:   d.Command,
			ExitCode:  d.ExitCode,
			Stdout:    d.Stdout,
			Stderr:    d.Stderr,
			Success:   result.Success,
			Elapsed:   result.Duration.Milliseconds(),
			CreatedAt: time.Now().UTC(),
		})
	}
}

// ToolCallCount reports how many tool calls this session has recorded.
// Used by tests and the session summary display.
func (t *InteractionTracker) ToolCallCount() int {
	if t.db == nil {
		return 0
	}
	count := 0
	prefix := []byte("toolcall/" + t.sessionID + "/")
	err := t.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil && t.logger != nil {
		t.logger.Warn("tracker.scan_failed", map[string]any{"error": err.Error()})
	}
	return count
}

// Close flushes and closes the store.
func (t *InteractionTracker) Close() error {
	if t.db == nil {
		return nil
	}
	return t.db.Close()
}

func (t *InteractionTracker) put(key string, record any) {
	if t.db == nil {
		return
	}
	data, err := json.Marshal(record)
	if err == nil {
		err = t.db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte(key), data)
		})
	}
	if err != nil && t.logger != nil {
		t.logger.Warn("tracker.write_failed", map[string]any{"key": key, "error": err.Error()})
	}
}
