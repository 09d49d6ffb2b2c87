// Package monitor exposes the viewer core over HTTP: JSON inspection and
// control endpoints plus debug charts. It never draws; the renderer is an
// external consumer of the same snapshots.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/banshee-data/cloudview/internal/app"
	"github.com/banshee-data/cloudview/internal/cloud"
	"github.com/banshee-data/cloudview/internal/version"
)

// WebServer handles the HTTP interface for inspecting and steering the
// viewer core.
type WebServer struct {
	address    string
	supervisor *app.Supervisor
	server     *http.Server
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address    string
	Supervisor *app.Supervisor
}

// NewWebServer creates a web server bound to a supervisor.
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address:    config.Address,
		supervisor: config.Supervisor,
	}
	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}
	return ws
}

// Start begins the HTTP server and blocks until ctx is cancelled, then shuts
// down gracefully.
func (ws *WebServer) Start(ctx context.Context) error {
	go func() {
		log.Printf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	return nil
}

// Handler returns the route mux, for tests and embedding.
func (ws *WebServer) Handler() http.Handler { return ws.server.Handler }

func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/clouds", ws.handleClouds)
	mux.HandleFunc("/api/correspondence", ws.handleCorrespondence)
	mux.HandleFunc("/api/correspond", ws.handleCorrespond)
	mux.HandleFunc("/api/params", ws.handleParams)
	mux.HandleFunc("/api/restart", ws.handleRestart)
	mux.HandleFunc("/debug/clouds/scatter", ws.handleScatterChart)
	mux.HandleFunc("/debug/clouds/plot.png", ws.handlePlotPNG)

	return mux
}

func (ws *WebServer) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("error encoding response: %v", err)
	}
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, map[string]string{
		"status":  "ok",
		"phase":   ws.supervisor.Phase().String(),
		"version": version.Version,
	})
}

func (ws *WebServer) handleClouds(w http.ResponseWriter, r *http.Request) {
	snap := ws.supervisor.State().Snapshot()
	ws.writeJSON(w, map[string]interface{}{
		"session_id": snap.SessionID,
		"clouds":     snap.Clouds,
		"queue_len":  snap.QueueLen,
	})
}

func (ws *WebServer) handleCorrespondence(w http.ResponseWriter, r *http.Request) {
	snap := ws.supervisor.State().Snapshot()
	if snap.Result == nil {
		ws.writeJSONError(w, http.StatusNotFound, "no correspondence result")
		return
	}
	ws.writeJSON(w, snap.Result)
}

// correspondRequest selects the cloud pair; both handles zero means "latest
// two promoted clouds".
type correspondRequest struct {
	SourceHandle cloud.Handle `json:"source_handle"`
	TargetHandle cloud.Handle `json:"target_handle"`
}

func (ws *WebServer) handleCorrespond(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req correspondRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			ws.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("bad request body: %v", err))
			return
		}
	}

	err := ws.supervisor.Exec(func(st *app.State) error {
		if req.SourceHandle == 0 && req.TargetHandle == 0 {
			return st.CorrespondLatest()
		}
		return st.Correspond(req.SourceHandle, req.TargetHandle)
	})
	if errors.Is(err, cloud.ErrInsufficientClouds) {
		ws.writeJSONError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	snap := ws.supervisor.State().Snapshot()
	ws.writeJSON(w, snap.Result)
}

// paramsUpdate is a partial update: nil fields stay unchanged, matching the
// startup config's pointer-field convention.
type paramsUpdate struct {
	TargetFPS    *int     `json:"target_fps,omitempty"`
	SearchRadius *float64 `json:"search_radius,omitempty"`
	Zoom         *float64 `json:"zoom,omitempty"`
	PanX         *float64 `json:"pan_x,omitempty"`
	PanY         *float64 `json:"pan_y,omitempty"`
	RotationX    *float64 `json:"rotation_x,omitempty"`
	RotationY    *float64 `json:"rotation_y,omitempty"`
}

func (ws *WebServer) handleParams(w http.ResponseWriter, r *http.Request) {
	st := ws.supervisor.State()

	switch r.Method {
	case http.MethodGet:
		ws.writeJSON(w, st.Snapshot().View)
	case http.MethodPost:
		var update paramsUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			ws.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("bad request body: %v", err))
			return
		}
		if update.TargetFPS != nil && *update.TargetFPS < 1 {
			ws.writeJSONError(w, http.StatusBadRequest, "target_fps must be at least 1")
			return
		}
		if update.SearchRadius != nil && *update.SearchRadius < 0 {
			ws.writeJSONError(w, http.StatusBadRequest, "search_radius must be non-negative")
			return
		}
		st.UpdateView(func(v *app.ViewParams) {
			if update.TargetFPS != nil {
				v.TargetFPS = *update.TargetFPS
			}
			if update.SearchRadius != nil {
				v.SearchRad = *update.SearchRadius
			}
			if update.Zoom != nil {
				v.Zoom = *update.Zoom
			}
			if update.PanX != nil {
				v.PanX = *update.PanX
			}
			if update.PanY != nil {
				v.PanY = *update.PanY
			}
			if update.RotationX != nil {
				v.RotationX = *update.RotationX
			}
			if update.RotationY != nil {
				v.RotationY = *update.RotationY
			}
		})
		ws.writeJSON(w, st.Snapshot().View)
	default:
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "GET or POST required")
	}
}

func (ws *WebServer) handleRestart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	ws.supervisor.RequestRestart()
	ws.writeJSON(w, map[string]string{"status": "restart requested"})
}
