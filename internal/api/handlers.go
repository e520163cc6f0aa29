package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/chronoglass/chronod/internal/model"
)

// StartRequest is the body of POST /data/start.
type StartRequest struct {
	Title     string `json:"title"`
	StartTime int64  `json:"startTime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	clients := 0
	if s.hub != nil {
		clients = s.hub.ClientCount()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(s.startTime).Seconds(),
		"clients":   clients,
		"timestamp": time.Now().UnixMilli(),
	})
}

func (s *Server) handleGetAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.GetAll())
}

func (s *Server) handleGetDay(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.GetByDay(r.PathValue("date")))
}

func (s *Server) handleGetWeek(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	week, err := strconv.Atoi(r.PathValue("week"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid week")
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.GetByWeek(year, week))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.tracker.StartSession(req.Title, req.StartTime)
	if err != nil {
		if errors.Is(err, model.ErrBadTimestamp) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("Failed to start session")
		writeError(w, http.StatusInternalServerError, "failed to persist data")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	var session model.WorkSession
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		writeError(w, http.StatusBadRequest, "invalid session body")
		return
	}

	if err := s.tracker.AppendSession(session); err != nil {
		s.logger.Error().Err(err).Msg("Failed to append session")
		writeError(w, http.StatusInternalServerError, "failed to persist data")
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleOverwrite(w http.ResponseWriter, r *http.Request) {
	var doc model.AppData
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid document body")
		return
	}

	if err := s.tracker.OverwriteAll(doc); err != nil {
		s.logger.Error().Err(err).Msg("Failed to overwrite data")
		writeError(w, http.StatusInternalServerError, "failed to persist data")
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.ClearAll(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear sessions")
		writeError(w, http.StatusInternalServerError, "failed to persist data")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleClearDay(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.ClearDay(r.PathValue("date")); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear day")
		writeError(w, http.StatusInternalServerError, "failed to persist data")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleClearRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := s.tracker.ClearRange(q.Get("start"), q.Get("end")); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear range")
		writeError(w, http.StatusInternalServerError, "failed to persist data")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
