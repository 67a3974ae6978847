package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/iwvelando/edgeworth/internal/store"
	"github.com/iwvelando/edgeworth/pkg/constants"
)

var errHistoryDisabled = &apiError{status: http.StatusNotFound, msg: "run history is not enabled"}

// handleListRuns answers GET /api/runs?limit=N, newest run first.
func (h *handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleListRuns"
	if h.runs == nil {
		h.fail(w, op, errHistoryDisabled)
		return
	}

	limit := constants.DefaultRunListLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.fail(w, op, badRequest("invalid limit %q", raw))
			return
		}
		limit = n
	}

	runs, err := h.runs.ListRuns(limit)
	if err != nil {
		h.fail(w, op, fmt.Errorf("failed to list runs: %w", err))
		return
	}
	if runs == nil {
		runs = []store.RunSummary{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (h *handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetRun"
	if h.runs == nil {
		h.fail(w, op, errHistoryDisabled)
		return
	}

	report, err := h.runs.GetRun(r.PathValue("id"))
	if err != nil {
		h.fail(w, op, historyError("load", err))
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *handler) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeleteRun"
	if h.runs == nil {
		h.fail(w, op, errHistoryDisabled)
		return
	}

	id := r.PathValue("id")
	if err := h.runs.DeleteRun(id); err != nil {
		h.fail(w, op, historyError("delete", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func historyError(action string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return &apiError{status: http.StatusNotFound, msg: err.Error()}
	}
	return fmt.Errorf("failed to %s run: %w", action, err)
}
