package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	acserr "github.com/finsim/acs-emulator/internal/errors"
)

// maxEnvelopeSize bounds the compact token body.
const maxEnvelopeSize = 200 * 1024

// sdkError is the error object an SDK posts in place of an Envelope when
// the challenge fails client-side.
type sdkError struct {
	AcsTransID   string `json:"acsTransID"`
	ErrorCode    string `json:"errorCode"`
	ErrorDetail  string `json:"errorDetail"`
	MessageType  string `json:"messageType"`
	ErrorMessage string `json:"errorDescription"`
}

// SDKChallengeHandler processes one app-channel challenge round: a compact
// Envelope in, a compact Envelope out. Authentication, padding and parse
// failures all answer an undifferentiated 400.
func (s *Server) SDKChallengeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !hasContentType(r, "application/jose") {
			failRequest(w, RouteSDKChallenge, "", errors.Wrap(acserr.ErrMalformedInput, "CReq must be application/jose"))
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxEnvelopeSize))
		if err != nil {
			failRequest(w, RouteSDKChallenge, "", errors.Wrap(acserr.ErrMalformedInput, "unreadable body"))
			return
		}
		token := strings.TrimSpace(string(body))

		// SDK error passthrough: the client reports its own protocol
		// failure instead of a challenge round.
		if strings.Contains(token, "errorCode") {
			var sdkErr sdkError
			if err := json.Unmarshal([]byte(token), &sdkErr); err != nil || sdkErr.AcsTransID == "" {
				failRequest(w, RouteSDKChallenge, "", errors.Wrap(acserr.ErrMalformedInput, "unparseable SDK error"))
				return
			}
			if err := s.acs.MarkSDKError(sdkErr.AcsTransID); err != nil {
				failRequest(w, RouteSDKChallenge, sdkErr.AcsTransID, err)
				return
			}
			_, _ = w.Write([]byte("ok"))
			return
		}

		response, err := s.acs.HandleSDKChallenge(token)
		if err != nil {
			failRequest(w, RouteSDKChallenge, "", err)
			return
		}

		w.Header().Set("Content-Type", contentTypeJOSE)
		_, _ = w.Write([]byte(response))
	}
}
