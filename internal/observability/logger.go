package observability

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypeStage     EventType = "stage"
	EventTypeTask      EventType = "task"
	EventTypeMerge     EventType = "merge"
	EventTypeRecovery  EventType = "recovery"
	EventTypeInterrupt EventType = "interrupt"
	EventTypePlan      EventType = "plan"
	EventTypeLLM       EventType = "llm"
	EventTypeHeartbeat EventType = "heartbeat"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
	Stage     string    `json:"stage,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger handles structured logging.
type Logger struct {
	RunID      string
	llmLogPath string
	maxSize    int64
}

func NewLogger(runID string) *Logger {
	return &Logger{
		RunID:      runID,
		llmLogPath: filepath.Join("logs", "llm.jsonl"),
		maxSize:    10 * 1024 * 1024, // 10MB
	}
}

// Log emits a structured JSON event to stdout.
func (l *Logger) Log(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	if evt.RunID == "" {
		evt.RunID = l.RunID
	}
	data, err := json.Marshal(evt)
	if err != nil {
		fmt.Printf("{\"error\": \"failed to marshal event: %v\"}\n", err)
		return
	}
	fmt.Println(string(data))

	if evt.Type == EventTypeLLM {
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	// Check size before writing
	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogStage(stage string, data any) {
	l.Log(Event{Type: EventTypeStage, Stage: stage, Data: data})
}

func (l *Logger) LogTask(kind string, ok bool, reason string) {
	l.Log(Event{
		Type: EventTypeTask,
		Data: map[string]any{"kind": kind, "ok": ok, "reason": reason},
	})
}

func (l *Logger) LogMerge(stage string, successes, failures int) {
	l.Log(Event{
		Type:  EventTypeMerge,
		Stage: stage,
		Data:  map[string]int{"successes": successes, "failures": failures},
	})
}

func (l *Logger) LogRecovery(stage string, attempt int, recoverable bool) {
	l.Log(Event{
		Type:  EventTypeRecovery,
		Stage: stage,
		Data:  map[string]any{"attempt": attempt, "recoverable": recoverable},
	})
}

func (l *Logger) LogInterrupt(stage, prompt string) {
	l.Log(Event{
		Type:  EventTypeInterrupt,
		Stage: stage,
		Data:  map[string]string{"prompt": prompt},
	})
}

func (l *Logger) LogLLM(agent, prompt, response string) {
	l.Log(Event{
		Type: EventTypeLLM,
		Data: map[string]string{
			"agent":    agent,
			"prompt":   prompt,
			"response": response,
		},
	})
}

func (l *Logger) LogHeartbeat() {
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]string{"status": "alive"},
	})
}
