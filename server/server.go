// Package server exposes the ACS protocol surface over HTTP.
package server

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/finsim/acs-emulator/acs"
	"github.com/finsim/acs-emulator/internal/config"
)

type Server struct {
	env    string
	mux    *http.ServeMux
	config config.Config
	acs    *acs.Service
}

func New(config config.Config, acsService *acs.Service) (*Server, error) {
	if acsService == nil {
		return nil, errors.New("[Server New] acs service is required")
	}

	s := &Server{
		mux:    http.NewServeMux(),
		config: config,
		acs:    acsService,
		env:    config.GetEnv(),
	}
	s.initRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.mux.HandleFunc(pattern, handler)
}
