// Package api exposes HTTP handlers for the tribe service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"example.com/tribe/internal/auth"
	"example.com/tribe/internal/domain"
	"example.com/tribe/internal/syncqueue"
	"example.com/tribe/internal/tracker"
)

// Handler coordinates HTTP requests with the tracker service.
type Handler struct {
	service    *tracker.Service
	reconciler *syncqueue.Reconciler
}

// NewHandler builds a Handler.
func NewHandler(service *tracker.Service, reconciler *syncqueue.Reconciler) *Handler {
	return &Handler{service: service, reconciler: reconciler}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/logs", h.logs)
	mux.HandleFunc("/v1/logs/breakdown", h.logBreakdowns)
	mux.HandleFunc("/v1/logs/", h.logByID)
	mux.HandleFunc("/v1/users/", h.userResource)
	mux.HandleFunc("/v1/tribes/", h.tribeStats)
	mux.HandleFunc("/v1/quests", h.quests)
	mux.HandleFunc("/v1/quests/", h.completeQuest)
	mux.HandleFunc("/v1/sync/queue", h.syncQueue)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) logs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.saveLog(w, r)
	case http.MethodGet:
		h.listLogs(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) logByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/logs/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing log id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getLog(w, r, id)
	case http.MethodPut:
		h.updateLog(w, r, id)
	case http.MethodDelete:
		h.deleteLog(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) saveLog(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeLogsWrite)
	if !ok {
		return
	}

	var req LogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	logEntry := req.toLog(claims)
	saved, err := h.service.SaveLog(r.Context(), logEntry)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidLog) {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, toLogView(*saved))
}

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeLogsRead, auth.ScopeLogsWrite)
	if !ok {
		return
	}

	logs, err := h.service.ListLogs(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]LogView, 0, len(logs))
	for _, logEntry := range logs {
		items = append(items, toLogView(logEntry))
	}
	writeJSON(w, http.StatusOK, ListLogsResponse{Items: items})
}

func (h *Handler) getLog(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeLogsRead, auth.ScopeLogsWrite)
	if !ok {
		return
	}

	logEntry, err := h.service.GetLog(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrLogNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "log not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	if logEntry.UserID != claims.Subject && !claims.HasScope(auth.ScopeTribesRead) {
		writeError(w, http.StatusForbidden, "forbidden", "log belongs to another user")
		return
	}
	if logEntry.Deleted {
		writeError(w, http.StatusNotFound, "not_found", "log not found")
		return
	}

	writeJSON(w, http.StatusOK, toLogView(*logEntry))
}

func (h *Handler) updateLog(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeLogsWrite)
	if !ok {
		return
	}

	var req LogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	logEntry := req.toLog(claims)
	logEntry.ID = id
	updated, err := h.service.UpdateLog(r.Context(), logEntry)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLogNotFound):
			writeError(w, http.StatusNotFound, "not_found", "log not found")
		case errors.Is(err, domain.ErrInvalidLog):
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, toLogView(*updated))
}

func (h *Handler) deleteLog(w http.ResponseWriter, r *http.Request, id string) {
	_, ok := requireScope(w, r, auth.ScopeLogsWrite)
	if !ok {
		return
	}

	if err := h.service.DeleteLog(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrLogNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "log not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logBreakdowns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeLogsRead, auth.ScopeLogsWrite)
	if !ok {
		return
	}

	breakdowns, err := h.service.LogBreakdowns(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, BreakdownResponse{Breakdowns: breakdowns})
}

// userResource dispatches /v1/users/{id}/{streak|mood|gamification}.
func (h *Handler) userResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "expected /v1/users/{id}/{resource}")
		return
	}
	userID, resource := parts[0], parts[1]

	claims, ok := requireScope(w, r, auth.ScopeLogsRead, auth.ScopeLogsWrite)
	if !ok {
		return
	}
	if userID != claims.Subject && !claims.HasScope(auth.ScopeTribesRead) {
		writeError(w, http.StatusForbidden, "forbidden", "scope tribes:read required for other users")
		return
	}

	switch resource {
	case "streak":
		writeJSON(w, http.StatusOK, StreakResponse{
			UserID: userID,
			Streak: h.service.GetStreak(r.Context(), userID),
			AtRisk: h.service.GetStreakRisk(r.Context(), userID),
		})
	case "mood":
		writeJSON(w, http.StatusOK, MoodResponse{
			UserID: userID,
			Mood:   string(h.service.GetMood(r.Context(), userID)),
		})
	case "gamification":
		state, level, err := h.service.GetGamification(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, GamificationResponse{State: *state, Level: level})
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown user resource")
	}
}

func (h *Handler) tribeStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/tribes/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "stats" {
		writeError(w, http.StatusBadRequest, "invalid_request", "expected /v1/tribes/{id}/stats")
		return
	}
	tribeID := parts[0]

	if _, ok := requireScope(w, r, auth.ScopeTribesRead); !ok {
		return
	}

	stats, err := h.service.GetTeamStats(r.Context(), tribeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) quests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeLogsRead, auth.ScopeLogsWrite)
	if !ok {
		return
	}

	daily, err := h.service.GetDailyQuests(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	onboarding := h.service.GetOnboardingQuests(r.Context(), claims.Subject)
	writeJSON(w, http.StatusOK, QuestsResponse{Daily: daily, Onboarding: onboarding})
}

// completeQuest handles POST /v1/quests/{id}/complete.
func (h *Handler) completeQuest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/quests/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "complete" {
		writeError(w, http.StatusBadRequest, "invalid_request", "expected /v1/quests/{id}/complete")
		return
	}
	questID := parts[0]

	claims, ok := requireScope(w, r, auth.ScopeLogsWrite)
	if !ok {
		return
	}

	reward, err := h.service.CompleteManualQuest(r.Context(), claims.Subject, questID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	if reward == nil {
		// Unknown quest or already completed: nothing awarded either way.
		writeJSON(w, http.StatusOK, CompleteQuestResponse{QuestID: questID, Awarded: false})
		return
	}
	writeJSON(w, http.StatusOK, CompleteQuestResponse{QuestID: questID, Awarded: true, Reward: reward})
}

// syncQueue accepts a batch of offline mutations and drains them immediately.
func (h *Handler) syncQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := requireScope(w, r, auth.ScopeLogsWrite); !ok {
		return
	}

	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if strings.TrimSpace(req.DeviceID) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "device_id is required")
		return
	}

	for _, op := range req.Operations {
		if err := h.reconciler.Enqueue(r.Context(), req.DeviceID, syncqueue.Operation(op.Operation), op.Payload); err != nil {
			writeError(w, http.StatusInternalServerError, "server_error", err.Error())
			return
		}
	}

	h.reconciler.Drain(r.Context(), req.DeviceID)

	writeJSON(w, http.StatusAccepted, SyncResponse{DeviceID: req.DeviceID, Accepted: len(req.Operations)})
}

// requireScope extracts claims and enforces that at least one scope matches.
func requireScope(w http.ResponseWriter, r *http.Request, scopes ...string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	for _, scope := range scopes {
		if claims.HasScope(scope) {
			return claims, true
		}
	}
	writeError(w, http.StatusForbidden, "forbidden", "scope "+strings.Join(scopes, " or ")+" required")
	return nil, false
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
