package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"kodein-progress-service/internal/app"
	"kodein-progress-service/internal/domain"
)

// LeaderboardHandler serves the ranked profile projections.
type LeaderboardHandler struct {
	board *app.Leaderboard
}

func NewLeaderboardHandler(board *app.Leaderboard) *LeaderboardHandler {
	return &LeaderboardHandler{board: board}
}

// HandleTop handles GET /leaderboard?limit=N.
func (h *LeaderboardHandler) HandleTop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	entries, err := h.board.TopN(r.Context(), limit)
	if err != nil {
		http.Error(w, "failed to load leaderboard", http.StatusInternalServerError)
		return
	}
	writeJSON(w, entries)
}

// HandleRank handles GET /rank/{userID}, locating the user in the full
// ordered set even when they fall outside the displayed page.
func (h *LeaderboardHandler) HandleRank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID := strings.TrimPrefix(r.URL.Path, "/rank/")
	if userID == "" || strings.Contains(userID, "/") {
		http.Error(w, "missing user id", http.StatusBadRequest)
		return
	}
	entry, err := h.board.RankFor(r.Context(), userID)
	if err != nil {
		if err == domain.ErrProfileNotFound {
			http.Error(w, "profile not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to compute rank", http.StatusInternalServerError)
		return
	}
	writeJSON(w, entry)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
