// Package httpserver exposes the user management API over HTTP.
package httpserver

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/and161185/passlocker/internal/service"
)

// BasePath is the prefix of every user route.
const BasePath = "/api/user"

const routeGetUser = "get-user"

// Server wires the user service into HTTP handlers.
type Server struct {
	users  service.UserService
	log    *zap.Logger
	router *mux.Router
}

// New constructs the HTTP API with logging and panic recovery.
func New(users service.UserService, log *zap.Logger) *Server {
	s := &Server{users: users, log: log, router: mux.NewRouter()}

	api := s.router.PathPrefix(BasePath).Subrouter()
	api.Use(Logging(log), Recover(log))
	api.HandleFunc("/all-users", s.listUsers).Methods(http.MethodGet)
	api.HandleFunc("/create-user", s.createUser).Methods(http.MethodPost)
	api.HandleFunc("/{id}", s.getUser).Methods(http.MethodGet).Name(routeGetUser)
	api.HandleFunc("/{id}/edit-profile", s.updateUser).Methods(http.MethodPut)
	api.HandleFunc("/{id}/delete-user", s.deleteUser).Methods(http.MethodDelete)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// userLocation returns the path of the get-user route for id.
func (s *Server) userLocation(id string) string {
	u, err := s.router.Get(routeGetUser).URLPath("id", id)
	if err != nil {
		return BasePath + "/" + id
	}
	return u.Path
}
