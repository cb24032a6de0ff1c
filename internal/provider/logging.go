package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/xid"
)

// LoggingClient decorates a Client, writing one JSONL entry per Invoke to
// rawCallsPath and exactly one entry per InvokeBatch call (a single batch
// of persona calls must not explode into N log lines).
type LoggingClient struct {
	Inner       Client
	rawCallsPath string
	mu          sync.Mutex
}

// NewLoggingClient wraps inner so every call appends one line to the file
// at rawCallsPath.
func NewLoggingClient(inner Client, rawCallsPath string) *LoggingClient {
	return &LoggingClient{Inner: inner, rawCallsPath: rawCallsPath}
}

type rawCallEntry struct {
	CallID    string    `json:"call_id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"` // "invoke" | "batch"
	Requests  []Request  `json:"requests"`
	Responses []Response `json:"responses"`
	Error     string    `json:"error,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

func (c *LoggingClient) Invoke(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	resp, err := c.Inner.Invoke(ctx, req)
	entry := rawCallEntry{
		CallID:     "call_" + xid.New().String(),
		Timestamp:  start,
		Kind:       "invoke",
		Requests:   []Request{req},
		Responses:  []Response{resp},
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if logErr := c.append(entry); logErr != nil {
		return resp, fmt.Errorf("invoke succeeded but raw call logging failed: %w", logErr)
	}
	return resp, err
}

func (c *LoggingClient) InvokeBatch(ctx context.Context, reqs []Request) ([]Response, error) {
	start := time.Now()
	resps, err := c.Inner.InvokeBatch(ctx, reqs)
	entry := rawCallEntry{
		CallID:     "call_" + xid.New().String(),
		Timestamp:  start,
		Kind:       "batch",
		Requests:   reqs,
		Responses:  resps,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if logErr := c.append(entry); logErr != nil {
		return resps, fmt.Errorf("batch invoke succeeded but raw call logging failed: %w", logErr)
	}
	return resps, err
}

// append writes one compact JSON line, creating the parent directory and
// file on first use. Appends are serialized: this is the only writer.
func (c *LoggingClient) append(entry rawCallEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.rawCallsPath), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(c.rawCallsPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	_, err = f.Write(line)
	return err
}
