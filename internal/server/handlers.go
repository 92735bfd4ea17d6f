package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/muliwe/go-fizzbuzz/internal/fizzbuzz"
	"github.com/muliwe/go-fizzbuzz/internal/logger"
	"github.com/muliwe/go-fizzbuzz/internal/metrics"
)

const version = "1.0.0"

// ErrInvalidNumber is returned when the n query parameter is missing or not an integer
var ErrInvalidNumber = errors.New("invalid number")

// Response represents the API response
type Response struct {
	Number    int               `json:"number"`
	Output    string            `json:"output"`
	Category  fizzbuzz.Category `json:"category"`
	RequestID string            `json:"request_id"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
}

// ErrorResponse is returned for rejected requests
type ErrorResponse struct {
	Error   string `json:"error"`
	Version string `json:"version"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Handler holds dependencies for HTTP handlers.
// Both logger and metrics are optional.
type Handler struct {
	logger  *logger.Logger
	metrics *metrics.Metrics
	quiet   bool // suppress console logging (useful for tests)
}

// NewHandler creates a new handler with dependencies
func NewHandler(l *logger.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		logger:  l,
		metrics: m,
	}
}

// SetQuiet enables or disables console logging
func (h *Handler) SetQuiet(quiet bool) {
	h.quiet = quiet
}

// ParseNumber extracts the n query parameter
func ParseNumber(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("n")
	if raw == "" {
		return 0, fmt.Errorf("%w: missing query parameter n", ErrInvalidNumber)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			err = numErr.Err
		}
		return 0, fmt.Errorf("%w %q: %w", ErrInvalidNumber, raw, err)
	}
	return n, nil
}

// HandleClassify handles the main classification endpoint
func (h *Handler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	n, err := ParseNumber(r)
	if err != nil {
		if h.metrics != nil {
			h.metrics.ObserveInvalid()
		}
		if !h.quiet {
			log.Printf("[%s] %s %s - %v", r.RemoteAddr, r.Method, r.URL.RequestURI(), err)
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Version: version})
		return
	}

	result := fizzbuzz.Evaluate(n)
	elapsed := time.Since(startTime)

	if h.metrics != nil {
		h.metrics.ObserveResult(result.Category, elapsed)
	}
	if h.logger != nil {
		if err := h.logger.LogResult(result, r.RemoteAddr, elapsed.Milliseconds()); err != nil {
			log.Printf("Error logging result: %v", err)
		}
	}

	if !h.quiet {
		log.Printf("[%s] %s %s - %d -> %s - %dms",
			r.RemoteAddr,
			r.Method,
			r.URL.Path,
			n,
			result.Output,
			elapsed.Milliseconds(),
		)
	}

	writeJSON(w, http.StatusOK, Response{
		Number:    result.Number,
		Output:    result.Output,
		Category:  result.Category,
		RequestID: result.RequestID,
		Timestamp: result.Timestamp,
		Version:   version,
	})
}

// HandleHealth handles the health check endpoint
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version,
	})
}

// HandleDebug returns the full classification result for n, indented (optional endpoint)
func (h *Handler) HandleDebug(w http.ResponseWriter, r *http.Request) {
	n, err := ParseNumber(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Version: version})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(fizzbuzz.Evaluate(n)); err != nil {
		log.Printf("Error encoding debug response: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
