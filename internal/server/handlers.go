// Package server handles HTTP requests, the websocket pointer stream and
// middleware.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mapsketch/mapsketch/internal/geom"
	"github.com/mapsketch/mapsketch/internal/search"
	"github.com/mapsketch/mapsketch/internal/sketch"
)

// ExportFilename is the fixed name of the downloadable sketch document.
const ExportFilename = "sketch.geojson"

// HandleIndex serves the main HTML application.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && strings.Contains(r.URL.Path, ".") {
		http.NotFound(w, r)
		return
	}

	etag := fmt.Sprintf(`"%x"`, len(s.IndexHTML))

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// HandleBasemaps serves the JSON configuration of available basemaps.
func (s *ServerContext) HandleBasemaps(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(s.Config.Basemaps)
}

// HandleSearch proxies a free-text place query to the search collaborator.
// Failures never touch any session; they surface as an inline message for
// the results area.
func (s *ServerContext) HandleSearch(w http.ResponseWriter, r *http.Request) {
	places, err := s.Searcher.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Warn().Err(err).Msg("Place search failed")
		writeError(w, http.StatusBadGateway, "search unavailable")
		return
	}

	writeJSON(w, http.StatusOK, places)
}

// HandleSessions creates a new sketch session. Path: POST /api/sessions
func (s *ServerContext) HandleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := s.Sessions.Create()
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// HandleSessionOp dispatches per-session operations.
// Path: /api/sessions/{id}[/{op}]
func (s *ServerContext) HandleSessionOp(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// parts: api, sessions, id, op
	if len(parts) < 3 {
		http.NotFound(w, r)
		return
	}

	id := parts[2]
	entry := s.Sessions.Get(id)
	if entry == nil {
		http.NotFound(w, r)
		return
	}

	if len(parts) == 3 {
		if r.Method == http.MethodDelete {
			s.Sessions.Drop(id)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.NotFound(w, r)
		return
	}

	op := parts[3]
	switch op {
	case "state":
		s.handleState(w, entry)
	case "export":
		s.handleExport(w, entry)
	case "mode":
		s.handleMode(w, r, entry)
	case "select":
		s.handleSelect(w, r, entry)
	case "remove":
		s.handleRemove(w, r, entry)
	case "clear":
		entry.With(func(sess *sketch.Session) { sess.Clear() })
		s.handleState(w, entry)
	case "buffer":
		s.handleBuffer(w, r, entry)
	case "undo":
		s.handleHistoryStep(w, entry, (*sketch.Session).Undo)
	case "redo":
		s.handleHistoryStep(w, entry, (*sketch.Session).Redo)
	case "simplify":
		s.handleSimplify(w, r, entry)
	case "finish":
		entry.With(func(sess *sketch.Session) { sess.Finish() })
		s.handleState(w, entry)
	case "cancel":
		entry.With(func(sess *sketch.Session) { sess.Cancel() })
		s.handleState(w, entry)
	default:
		http.NotFound(w, r)
	}
}

// handleState reports the session state the control surface renders from.
func (s *ServerContext) handleState(w http.ResponseWriter, entry *Entry) {
	var state stateMsg
	var exportErr error

	entry.With(func(sess *sketch.Session) {
		var collection []byte
		collection, exportErr = sess.Export()
		state = stateMsg{
			Type:        "state",
			Mode:        sess.Mode().String(),
			Selected:    sess.Selected(),
			Measurement: sess.Measurement(),
			Simplify:    sess.SimplifyLabel(),
			Collection:  collection,
		}
	})

	if exportErr != nil {
		log.Error().Err(exportErr).Msg("Failed to export collection")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// handleExport offers the collection as a downloadable GeoJSON document.
func (s *ServerContext) handleExport(w http.ResponseWriter, entry *Entry) {
	var data []byte
	var err error
	entry.With(func(sess *sketch.Session) {
		data, err = sess.Export()
	})

	if err != nil {
		log.Error().Err(err).Msg("Failed to export collection")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFilename+`"`)
	_, _ = w.Write(data)
}

func (s *ServerContext) handleMode(w http.ResponseWriter, r *http.Request, entry *Entry) {
	var req struct {
		Mode string `json:"mode"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	mode, err := sketch.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry.With(func(sess *sketch.Session) { sess.SetMode(mode) })
	s.handleState(w, entry)
}

func (s *ServerContext) handleSelect(w http.ResponseWriter, r *http.Request, entry *Entry) {
	var req struct {
		LayerID string `json:"layer_id"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	found := true
	entry.With(func(sess *sketch.Session) { found = sess.Select(req.LayerID) })
	if !found {
		writeError(w, http.StatusNotFound, "unknown layer")
		return
	}

	s.handleState(w, entry)
}

func (s *ServerContext) handleRemove(w http.ResponseWriter, r *http.Request, entry *Entry) {
	var req struct {
		LayerID string `json:"layer_id"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	entry.With(func(sess *sketch.Session) { sess.Remove(req.LayerID) })
	s.handleState(w, entry)
}

func (s *ServerContext) handleBuffer(w http.ResponseWriter, r *http.Request, entry *Entry) {
	var req struct {
		DistanceM float64 `json:"distance_m"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	var err error
	entry.With(func(sess *sketch.Session) {
		_, err = sess.BufferSelected(req.DistanceM)
	})

	switch {
	case errors.Is(err, sketch.ErrNoSelection):
		writeError(w, http.StatusBadRequest, "no selection")
		return
	case errors.Is(err, geom.ErrInvalidDistance):
		writeError(w, http.StatusBadRequest, "invalid distance")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.handleState(w, entry)
}

func (s *ServerContext) handleHistoryStep(w http.ResponseWriter, entry *Entry, step func(*sketch.Session) bool) {
	var moved bool
	entry.With(func(sess *sketch.Session) { moved = step(sess) })

	// a no-op undo/redo is not an error, the client just re-renders
	_ = moved
	s.handleState(w, entry)
}

func (s *ServerContext) handleSimplify(w http.ResponseWriter, r *http.Request, entry *Entry) {
	var req struct {
		Level       int  `json:"level"`
		HighQuality bool `json:"high_quality"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	entry.With(func(sess *sketch.Session) { sess.SetSimplification(req.Level, req.HighQuality) })
	s.handleState(w, entry)
}

// sessionFromPath resolves a session entry from a path under prefix.
func (s *ServerContext) sessionFromPath(path, prefix string) (*Entry, string) {
	id := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if id == "" || strings.Contains(id, "/") {
		return nil, ""
	}
	return s.Sessions.Get(id), id
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
