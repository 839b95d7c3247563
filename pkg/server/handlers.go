package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mifdirfan/PocketCoach/pkg/model"
	"github.com/mifdirfan/PocketCoach/pkg/repository"
	"github.com/mifdirfan/PocketCoach/pkg/usecase/coach"
	"github.com/mifdirfan/PocketCoach/pkg/utils/logging"
)

type chatRequest struct {
	Message string `json:"message"`
}

// fail maps err to a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case timedOut(r, err):
		logging.From(ctx).Warn("request timed out", "error", err)
		writeError(ctx, w, http.StatusGatewayTimeout, "the coach took too long to respond, please try again")
	case errors.Is(err, coach.ErrEmptyMessage),
		errors.Is(err, repository.ErrInvalidDate),
		errors.Is(err, model.ErrInvalidGender),
		errors.Is(err, model.ErrInvalidActivityLevel):
		writeError(ctx, w, http.StatusBadRequest, err.Error())
	default:
		logging.From(ctx).Error("request failed", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "internal error")
	}
}

// succeed writes v unless the deadline passed while producing it.
func (s *Server) succeed(w http.ResponseWriter, r *http.Request, v any) {
	if timedOut(r, nil) {
		s.fail(w, r, r.Context().Err())
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "request body must be a JSON object")
		return false
	}
	return true
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) checkStatus(w http.ResponseWriter, r *http.Request) {
	profile, err := s.coach.Status(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.succeed(w, r, profile)
}

func (s *Server) saveProfile(w http.ResponseWriter, r *http.Request) {
	var profile model.UserProfile
	if !decodeBody(w, r, &profile) {
		return
	}

	saved, err := s.coach.SaveProfile(r.Context(), &profile)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.succeed(w, r, saved)
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}

	reply, err := s.coach.Handle(r.Context(), req.Message)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.succeed(w, r, reply)
}

func (s *Server) getSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.coach.Summary(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.succeed(w, r, summary)
}
