package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/and161185/passlocker/internal/errs"
	"github.com/and161185/passlocker/internal/model"
)

const (
	maxBodyBytes = 1 << 20

	msgInvalidContent = "Invalid request content. User's info is invalid"
	msgUserMissing    = "User does not exist"
	msgUserNotFound   = "User could not be found"
	msgCreateProblem  = "Some problem at the server. Cannot create new user."
)

// listUsers handles GET /all-users.
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	views, err := s.users.List(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// getUser handles GET /{id}.
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	v, err := s.users.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			http.Error(w, msgUserMissing, http.StatusNotFound)
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// createUser handles POST /create-user.
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var p *model.GoogleBasicUserProfile
	if err := decodeBody(w, r, &p); err != nil || p == nil {
		http.Error(w, msgInvalidContent, http.StatusBadRequest)
		return
	}

	v, err := s.users.Create(r.Context(), p)
	switch {
	case err == nil:
	case errors.Is(err, errs.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	default:
		s.log.Error("create user", zap.Error(err))
		writeProblem(w, http.StatusInternalServerError, msgCreateProblem, "")
		return
	}

	w.Header().Set("Location", s.userLocation(v.ID))
	writeJSON(w, http.StatusCreated, v)
}

// updateUser handles PUT /{id}/edit-profile.
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var u *model.User
	if err := decodeBody(w, r, &u); err != nil || u == nil {
		http.Error(w, msgInvalidContent, http.StatusBadRequest)
		return
	}

	err := s.users.Update(r.Context(), mux.Vars(r)["id"], u)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, errs.ErrConflictingID):
		http.Error(w, msgInvalidContent, http.StatusBadRequest)
	case errors.Is(err, errs.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, errs.ErrNoRowsAffected):
		s.log.Info("update user: no rows affected", zap.String("id", u.ID), zap.Error(err))
		http.Error(w, msgUserNotFound, http.StatusNotFound)
	default:
		s.internalError(w, r, err)
	}
}

// deleteUser handles DELETE /{id}/delete-user. A missing user is a client
// error (400) here, while a removal that touches no row is 404.
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := s.users.Delete(r.Context(), id)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, errs.ErrNotFound):
		http.Error(w, msgUserMissing, http.StatusBadRequest)
	case errors.Is(err, errs.ErrNoRowsAffected):
		s.log.Info("delete user: no rows affected", zap.String("id", id), zap.Error(err))
		http.Error(w, msgUserNotFound, http.StatusNotFound)
	default:
		s.internalError(w, r, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	writeProblem(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), "")
}

// decodeBody reads a single JSON value into dst. An empty body is an error.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("trailing data after JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// problem is an RFC 7807 problem document.
type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail})
}
