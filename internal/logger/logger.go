package logger

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/muliwe/go-fizzbuzz/internal/fizzbuzz"
)

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp      time.Time         `json:"timestamp"`
	RequestID      string            `json:"request_id"`
	RemoteAddr     string            `json:"remote_addr"`
	Number         int               `json:"number"`
	Output         string            `json:"output"`
	Category       fizzbuzz.Category `json:"category"`
	ResponseTimeMs int64             `json:"response_time_ms"`
}

// Logger handles structured JSON logging
type Logger struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

// Config holds logger configuration
type Config struct {
	LogDir   string // Directory for log files
	FileName string // Log file name (default: requests.jsonl)
	Stdout   bool   // Also write to stdout
}

// DefaultConfig returns default logger configuration
func DefaultConfig() Config {
	return Config{
		LogDir:   "logs",
		FileName: "requests.jsonl",
		Stdout:   false,
	}
}

// New creates a new logger instance
func New(cfg Config) (*Logger, error) {
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return nil, err
	}

	logPath := filepath.Join(cfg.LogDir, cfg.FileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	var w io.Writer = file
	if cfg.Stdout {
		w = io.MultiWriter(file, os.Stdout)
	}

	return &Logger{
		file:    file,
		encoder: json.NewEncoder(w),
	}, nil
}

// Log writes an entry as one JSON line
func (l *Logger) Log(entry LogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.encoder.Encode(entry)
}

// LogResult logs a classification result with request metadata
func (l *Logger) LogResult(result fizzbuzz.Result, remoteAddr string, responseTimeMs int64) error {
	return l.Log(LogEntry{
		Timestamp:      result.Timestamp,
		RequestID:      result.RequestID,
		RemoteAddr:     remoteAddr,
		Number:         result.Number,
		Output:         result.Output,
		Category:       result.Category,
		ResponseTimeMs: responseTimeMs,
	})
}

// Close closes the logger
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// LogPath returns the path to the log file
func (l *Logger) LogPath() string {
	if l.file != nil {
		return l.file.Name()
	}
	return ""
}
