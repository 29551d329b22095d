package server

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	acserr "github.com/finsim/acs-emulator/internal/errors"
	"github.com/finsim/acs-emulator/threeds"
)

// AuthHandler opens a transaction from an AReq and answers with the ARes.
func (s *Server) AuthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !hasContentType(r, "application/json") {
			failRequest(w, RouteAuth, "", errors.Wrap(acserr.ErrMalformedInput, "AReq must be application/json"))
			return
		}

		var areq threeds.AReq
		if err := json.NewDecoder(r.Body).Decode(&areq); err != nil {
			failRequest(w, RouteAuth, "", errors.Wrap(acserr.ErrMalformedInput, "AReq is not valid JSON"))
			return
		}

		ares, err := s.acs.Authenticate(&areq)
		if err != nil {
			failRequest(w, RouteAuth, areq.ThreeDSServerTransID, err)
			return
		}
		writeJSON(w, ares)
	}
}

// ResultHandler reads the transaction outcome. It never 404s; unknown
// transactions answer with a synthesized negative result.
func (s *Server) ResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !hasContentType(r, "application/json") {
			failRequest(w, RouteResult, "", errors.Wrap(acserr.ErrMalformedInput, "result request must be application/json"))
			return
		}

		var req threeds.ResultRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			failRequest(w, RouteResult, "", errors.Wrap(acserr.ErrMalformedInput, "result request is not valid JSON"))
			return
		}

		writeJSON(w, s.acs.Result(req.ThreeDSServerTransID))
	}
}

// SetStatusHandler is the test-control override for transaction status
// fields.
func (s *Server) SetStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !hasContentType(r, "application/json") {
			failRequest(w, RouteSetStatus, "", errors.Wrap(acserr.ErrMalformedInput, "status request must be application/json"))
			return
		}

		var req threeds.SetStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			failRequest(w, RouteSetStatus, "", errors.Wrap(acserr.ErrMalformedInput, "status request is not valid JSON"))
			return
		}

		if err := s.acs.SetStatus(&req); err != nil {
			failRequest(w, RouteSetStatus, req.ThreeDSServerTransID, err)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}
