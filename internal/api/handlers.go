package api

import (
	"encoding/json"
	"net/http"
)

// Handler methods for routerHandlers.
// These are used by both the standalone router (for testing) and the full Server.

// routerHandlers holds the dependencies for the sideband routes.
type routerHandlers struct {
	match MatchInterface
}

// StatusResponse is the GET /status body.
type StatusResponse struct {
	PlayersConnected int     `json:"playersConnected"`
	MatchActive      bool    `json:"matchActive"`
	MatchID          string  `json:"matchId"`
	GameTime         float64 `json:"gameTime"`
}

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *routerHandlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := h.match.GetSnapshot()
	writeJSON(w, StatusResponse{
		PlayersConnected: snap.PlayerCount(),
		MatchActive:      snap.IsActive,
		MatchID:          snap.MatchID,
		GameTime:         snap.GameTime,
	})
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}
