// Package server exposes the economy analysis over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/edgeworth/internal/analysis"
	"github.com/iwvelando/edgeworth/internal/config"
	"github.com/iwvelando/edgeworth/internal/store"
	"github.com/iwvelando/edgeworth/pkg/constants"
	"github.com/iwvelando/edgeworth/pkg/output"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// RunStore is the run history behind the /api/runs endpoints.
type RunStore interface {
	SaveReport(report *analysis.Report) error
	ListRuns(limit int) ([]store.RunSummary, error)
	GetRun(id string) (*analysis.Report, error)
	DeleteRun(id string) error
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	runs          RunStore
}

// apiError is a failure with the HTTP status it should be reported with.
type apiError struct {
	status int
	msg    string
}

func (e *apiError) Error() string {
	return e.msg
}

func badRequest(format string, args ...interface{}) error {
	return &apiError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// solveRequest is an analysis configuration as received from a client.
type solveRequest struct {
	configYAML []byte
	save       bool
}

type solveResponse struct {
	Report     *analysis.Report       `json:"report"`
	CSV        string                 `json:"csv"`
	Warnings   []string               `json:"warnings,omitempty"`
	Saved      bool                   `json:"saved"`
	Duration   string                 `json:"duration"`
	Config     map[string]interface{} `json:"config,omitempty"`
	ConfigYAML string                 `json:"configYaml,omitempty"`
}

// NewHandler returns the API handler. runs may be nil, in which case reports
// are not persisted and the history endpoints answer 404.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string, runs RunStore) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}
	version = strings.TrimSpace(version)
	if version == "" {
		version = "dev"
	}

	h := &handler{logger: logger, maxUploadSize: maxUploadSize, version: version, runs: runs}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/solve", h.handleSolveUpload)
	mux.HandleFunc("POST /api/editor/solve", h.handleSolveEditor)
	mux.HandleFunc("POST /api/editor/export", h.handleConfigExport)
	mux.HandleFunc("GET /api/runs", h.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", h.handleGetRun)
	mux.HandleFunc("DELETE /api/runs/{id}", h.handleDeleteRun)
	mux.HandleFunc("GET /api/version", h.handleVersion)
	return mux
}

func (h *handler) handleVersion(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"version": h.version})
}

// handleSolveUpload accepts a multipart form with the YAML config in "file"
// and an optional "save" field.
func (h *handler) handleSolveUpload(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSolveUpload"
	start := time.Now()

	req, err := h.readUpload(w, r)
	if err != nil {
		h.fail(w, op, err)
		return
	}
	h.solve(w, op, start, req)
}

func (h *handler) readUpload(w http.ResponseWriter, r *http.Request) (solveRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return solveRequest{}, &apiError{
				status: http.StatusRequestEntityTooLarge,
				msg:    fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize),
			}
		}
		return solveRequest{}, badRequest("failed to parse upload: %v", err)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return solveRequest{}, badRequest("missing configuration file")
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		return solveRequest{}, fmt.Errorf("failed to read configuration: %w", err)
	}

	req := solveRequest{configYAML: data, save: true}
	if raw := r.FormValue("save"); raw != "" {
		req.save = coerceBool(raw)
	}
	return req, nil
}

// handleSolveEditor accepts {"config": {...}, "options": {"save": bool}}. A
// body without a "config" key is treated as the config itself.
func (h *handler) handleSolveEditor(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSolveEditor"
	start := time.Now()

	req, err := h.readEditorPayload(w, r)
	if err != nil {
		h.fail(w, op, err)
		return
	}
	h.solve(w, op, start, req)
}

func (h *handler) readEditorPayload(w http.ResponseWriter, r *http.Request) (solveRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return solveRequest{}, badRequest("failed to decode configuration: %v", err)
	}

	conf := payload
	if raw, ok := payload["config"]; ok {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return solveRequest{}, badRequest("invalid config payload: expected object")
		}
		conf = m
	}
	if conf == nil {
		conf = map[string]interface{}{}
	}

	req := solveRequest{save: true}
	if raw, ok := payload["options"]; ok {
		opts, ok := raw.(map[string]interface{})
		if !ok {
			return solveRequest{}, badRequest("invalid options payload: expected object")
		}
		if save, ok := opts["save"]; ok {
			req.save = coerceBool(save)
		}
	}

	data, err := yaml.Marshal(conf)
	if err != nil {
		return solveRequest{}, badRequest("failed to encode configuration: %v", err)
	}
	req.configYAML = data
	return req, nil
}

// solve runs the analysis for req and writes the solveResponse.
func (h *handler) solve(w http.ResponseWriter, op string, start time.Time, req solveRequest) {
	echo, err := decodeYAMLToMap(req.configYAML)
	if err != nil {
		h.fail(w, op, badRequest("error reading config data: %v", err))
		return
	}

	conf, err := config.LoadConfigurationFromReader(bytes.NewReader(req.configYAML))
	if err != nil {
		h.fail(w, op, badRequest("%v", err))
		return
	}
	// the server owns persistence; a store path in an upload is ignored
	conf.Store = config.StoreConfig{}

	runner, err := analysis.NewRunner(h.logger, conf)
	if err != nil {
		h.fail(w, op, badRequest("failed to initialize analysis: %v", err))
		return
	}
	report, err := runner.Run()
	if err != nil {
		h.fail(w, op, badRequest("%v", err))
		return
	}

	saved := false
	if req.save && h.runs != nil {
		if err := h.runs.SaveReport(report); err != nil {
			h.logger.Warn("failed to save run",
				zap.String("op", op),
				zap.String("runID", report.RunID),
				zap.Error(err),
			)
		} else {
			saved = true
		}
	}

	elapsed := time.Since(start)
	h.logger.Info("analysis computed",
		zap.String("op", op),
		zap.String("runID", report.RunID),
		zap.Int("searches", len(report.Searches)),
		zap.Int("warnings", len(report.Warnings)),
		zap.Bool("saved", saved),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, solveResponse{
		Report:     report,
		CSV:        output.CsvString(report),
		Warnings:   report.Warnings,
		Saved:      saved,
		Duration:   elapsed.String(),
		Config:     echo,
		ConfigYAML: string(req.configYAML),
	})
}

func decodeYAMLToMap(data []byte) (map[string]interface{}, error) {
	result := map[string]interface{}{}
	if len(bytes.TrimSpace(data)) == 0 {
		return result, nil
	}
	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = map[string]interface{}{}
	}
	return result, nil
}

// fail logs err and writes it as {"error": ...}. Errors that are not an
// *apiError are reported as 500.
func (h *handler) fail(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		status = apiErr.status
	}

	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.Error(err),
	)
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}

// coerceBool interprets form values and JSON scalars as booleans; anything
// unrecognised is false.
func coerceBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	case float64:
		return v != 0
	case int:
		return v != 0
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	default:
		return false
	}
}
