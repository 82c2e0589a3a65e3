// Package api serves the session over HTTP: read-only JSON views for
// observers, POST action endpoints for the game client, and a websocket
// event feed. The API is a thin shell; all rules live in the engine.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/greenfield-games/ecoquest/internal/catalog"
	"github.com/greenfield-games/ecoquest/internal/engine"
	"github.com/greenfield-games/ecoquest/internal/persistence"
)

// Server serves one game session.
type Server struct {
	Session *engine.Session
	Store   *persistence.Store
	Port    int

	// AdminKey is the bearer token for admin POST endpoints. Empty
	// disables them.
	AdminKey string

	// SnapshotDir is where admin snapshot exports land.
	SnapshotDir string

	hub *Hub
}

// Start begins serving in a goroutine.
func (s *Server) Start() {
	s.hub = NewHub(s.Session.Bus())
	go s.hub.Run()

	actions := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()

	// Read-only views.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/resources", s.handleResources)
	mux.HandleFunc("/api/v1/facilities", s.handleFacilities)
	mux.HandleFunc("/api/v1/policies", s.handlePolicies)
	mux.HandleFunc("/api/v1/goals", s.handleGoals)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/environment", s.handleEnvironment)
	mux.HandleFunc("/api/v1/notifications", s.handleNotifications)
	mux.HandleFunc("/api/v1/catalog", s.handleCatalog)

	// Game actions.
	mux.HandleFunc("/api/v1/start", rateLimited(actions, s.postOnly(s.handleStart)))
	mux.HandleFunc("/api/v1/build", rateLimited(actions, s.postOnly(s.handleBuild)))
	mux.HandleFunc("/api/v1/upgrade", rateLimited(actions, s.postOnly(s.handleUpgrade)))
	mux.HandleFunc("/api/v1/addon", rateLimited(actions, s.postOnly(s.handleAddon)))
	mux.HandleFunc("/api/v1/facility/status", rateLimited(actions, s.postOnly(s.handleFacilityStatus)))
	mux.HandleFunc("/api/v1/policy/toggle", rateLimited(actions, s.postOnly(s.handlePolicyToggle)))
	mux.HandleFunc("/api/v1/policy/controls", rateLimited(actions, s.postOnly(s.handlePolicyControls)))

	// Admin.
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshotExport))

	// Live event feed.
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(s.hub, w, r)
	})

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, corsMiddleware(mux)); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware allows browser clients from configured origins. Localhost
// dev servers are always allowed; set CORS_ORIGINS for anything else.
func corsMiddleware(next http.Handler) http.Handler {
	allowed := map[string]bool{
		"http://localhost:3000": true,
		"http://localhost:5173": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowed[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

// adminOnly requires a bearer token; with no key configured the endpoint is
// disabled outright.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled", http.StatusForbidden)
			return
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.AdminKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode failed", "error", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Session.State()
	writeJSON(w, map[string]any{
		"name":       "Eco-Quest",
		"session_id": s.Session.ID,
		"tick":       st.Tick,
		"started":    st.Started,
		"outcome":    st.Outcome,
		"credits":    humanize.Comma(int64(st.Resources.Credits)),
		"population": humanize.Comma(int64(st.Resources.Population)),
		"eco_score":  int(st.Resources.EcoScore),
		"facilities": len(st.Facilities),
	})
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Session.State().Resources)
}

func (s *Server) handleFacilities(w http.ResponseWriter, r *http.Request) {
	st := s.Session.State()
	writeJSON(w, map[string]any{
		"facilities": st.Facilities,
	})
}

func (s *Server) handlePolicies(w http.ResponseWriter, r *http.Request) {
	st := s.Session.State()
	writeJSON(w, map[string]any{
		"policies": st.Policies,
		"controls": st.Controls,
	})
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"goals": s.Session.State().Goals})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"notifications": s.Session.State().Notifications})
}

func (s *Server) handleEnvironment(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Session.Environment())
}

// handleEvents returns the live ring buffer by default; ?source=db reads
// the persisted log instead.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 30
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	if r.URL.Query().Get("source") == "db" && s.Store != nil {
		evs, err := s.Store.RecentEvents(s.Session.ID, limit)
		if err != nil {
			http.Error(w, "event log unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"events": evs})
		return
	}

	history := s.Session.Bus().History()
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	writeJSON(w, map[string]any{"events": history})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	type defView struct {
		Type        catalog.FacilityType `json:"type"`
		DisplayName string               `json:"displayName"`
		Description string               `json:"description"`
		Cost        float64              `json:"cost"`
		Addons      []catalog.Addon      `json:"addons,omitempty"`
	}
	out := make([]defView, 0, len(catalog.Types()))
	for _, t := range catalog.Types() {
		d := catalog.Lookup(t)
		out = append(out, defView{
			Type:        d.Type,
			DisplayName: d.DisplayName,
			Description: d.Description,
			Cost:        d.Cost,
			Addons:      d.Addons,
		})
	}
	writeJSON(w, map[string]any{"facilities": out})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	started := s.Session.ToggleStart()
	writeJSON(w, map[string]any{"started": started})
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type     string `json:"type"`
		Position int    `json:"position"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	result := s.Session.Build(catalog.FacilityType(req.Type), req.Position)
	writeJSON(w, map[string]any{"result": result})
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FacilityID string `json:"facilityId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, map[string]any{"result": s.Session.Upgrade(req.FacilityID)})
}

func (s *Server) handleAddon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FacilityID string `json:"facilityId"`
		AddonID    string `json:"addonId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, map[string]any{"result": s.Session.InstallAddon(req.FacilityID, req.AddonID)})
}

func (s *Server) handleFacilityStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FacilityID string `json:"facilityId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, map[string]any{"result": s.Session.ToggleFacilityStatus(req.FacilityID)})
}

func (s *Server) handlePolicyToggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PolicyID string `json:"policyId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, map[string]any{"result": s.Session.TogglePolicy(req.PolicyID)})
}

func (s *Server) handlePolicyControls(w http.ResponseWriter, r *http.Request) {
	var req engine.PolicyControls
	if !decodeBody(w, r, &req) {
		return
	}
	s.Session.SetPolicyControls(req)
	writeJSON(w, map[string]any{"controls": s.Session.PolicyControlsNow()})
}

// handleSnapshotExport writes a compressed snapshot file and returns its
// path.
func (s *Server) handleSnapshotExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	dir := s.SnapshotDir
	if dir == "" {
		dir = "data/snapshots"
	}
	snap := s.Session.Snapshot()
	path := fmt.Sprintf("%s/ecoquest-%d.json.zst", dir, snap.Tick)
	if err := persistence.ExportSnapshot(path, snap); err != nil {
		slog.Error("snapshot export failed", "error", err)
		http.Error(w, "snapshot export failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"path": path, "tick": snap.Tick})
}
