package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/voyagen/iptvbrowser/internal/fetcher"
	"github.com/voyagen/iptvbrowser/internal/models"
	"github.com/voyagen/iptvbrowser/internal/player"
	"github.com/voyagen/iptvbrowser/internal/service"
)

// --- handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.log.WithError(err).Warn("health: store unreachable")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"store":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.browser.State())
}

func (s *Server) handleListSources(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.browser.Sources())
}

// --- playlist handlers ---

type loadPlaylistRequest struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

func (s *Server) handleLoadPlaylist(w http.ResponseWriter, r *http.Request) {
	var req loadPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	if (req.URL == "") == (req.Source == "") {
		s.writeErr(w, http.StatusBadRequest, errors.New("exactly one of url or source is required"))
		return
	}
	if req.URL != "" {
		if u, err := url.ParseRequestURI(req.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			s.writeErr(w, http.StatusBadRequest, errors.New("url must be a valid http or https URL"))
			return
		}
	}

	var (
		count int
		err   error
	)
	if req.Source != "" {
		count, err = s.browser.LoadSource(r.Context(), req.Source)
	} else {
		count, err = s.browser.Load(r.Context(), req.URL)
	}
	if err != nil {
		var le *fetcher.LoadError
		switch {
		case errors.Is(err, service.ErrLoadInProgress):
			s.writeErr(w, http.StatusConflict, err)
		case errors.Is(err, service.ErrUnknownSource):
			s.writeErr(w, http.StatusNotFound, err)
		case errors.As(err, &le):
			s.writeErr(w, http.StatusBadGateway, errors.New(le.Message()))
		default:
			s.writeErr(w, http.StatusInternalServerError, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"playlist_url":  s.browser.State().PlaylistURL,
		"channel_count": count,
	})
}

func (s *Server) handleDismissError(w http.ResponseWriter, _ *http.Request) {
	s.browser.DismissError()
	writeNoContent(w)
}

// --- catalog handlers ---

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	switch v := r.URL.Query().Get("flush"); v {
	case "", "false", "0":
	case "true", "1":
		s.browser.FlushSearch()
	default:
		s.writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid flush: %s (use true or false)", v))
		return
	}

	channels := s.browser.Visible()
	st := s.browser.State()
	writeJSON(w, http.StatusOK, map[string]any{
		"channels": channels,
		"total":    st.Channels,
		"visible":  len(channels),
		"search":   st.Search,
		"filter":   st.Filter,
	})
}

type searchRequest struct {
	Q string `json:"q"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	s.browser.Search(req.Q)
	writeJSON(w, http.StatusAccepted, map[string]string{"pending_search": req.Q})
}

func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	var f models.Filter
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		s.writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	if err := s.browser.SetFilter(f); err != nil {
		if errors.Is(err, service.ErrUnknownFilterValue) {
			s.writeErr(w, http.StatusBadRequest, err)
			return
		}
		s.writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"filter":  f,
		"visible": len(s.browser.Visible()),
	})
}

func (s *Server) handleFilterValues(w http.ResponseWriter, r *http.Request) {
	field, err := models.ParseField(chi.URLParam(r, "field"))
	if err != nil {
		s.writeErr(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"field":  field,
		"values": s.browser.DistinctValues(field),
	})
}

func (s *Server) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.Languages)
}

// --- selection and playback handlers ---

type selectRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	if req.URL == "" {
		s.writeErr(w, http.StatusBadRequest, errors.New("url is required"))
		return
	}

	sel, err := s.browser.Select(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, service.ErrChannelNotFound) {
			s.writeErr(w, http.StatusNotFound, err)
			return
		}
		s.writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

func (s *Server) handleRecent(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.browser.Recent())
}

func (s *Server) handlePlayback(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.browser.Playback())
}

type playbackErrorRequest struct {
	Kind string `json:"kind"`
}

func (s *Server) handlePlaybackError(w http.ResponseWriter, r *http.Request) {
	var req playbackErrorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	kind := player.ParseErrorKind(req.Kind)
	action, ok := s.browser.ReportPlaybackError(r.Context(), kind)
	if !ok {
		s.writeErr(w, http.StatusConflict, errors.New("nothing is playing"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":     kind,
		"action":   action,
		"playback": s.browser.Playback(),
	})
}

func (s *Server) handleStopPlayback(w http.ResponseWriter, _ *http.Request) {
	s.browser.StopPlayback()
	writeNoContent(w)
}

// --- helpers ---

// APIError is the standard error envelope for all error responses.
type APIError struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeErr(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		s.log.WithError(err).WithField("status", status).Error("request failed")
	}
	writeJSON(w, status, APIError{
		Status: status,
		Error:  http.StatusText(status),
		Detail: err.Error(),
	})
}
