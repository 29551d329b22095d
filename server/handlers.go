package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	acserr "github.com/finsim/acs-emulator/internal/errors"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
	contentTypeJOSE = "application/jose; charset=utf-8"
)

// testHeaderField is the routing blob the platform test harness threads
// through every browser form.
const testHeaderField = "x-ms-test"

// defaultTestHeader is the base64 form of
// {"scenarios":"px-service-psd2-e2e-emulator","contact":"mdollarpurchase"}.
const defaultTestHeader = "eyJzY2VuYXJpb3MiOiJweC1zZXJ2aWNlLXBzZDItZTJlLWVtdWxhdG9yIiwiY29udGFjdCI6Im1kb2xsYXJwdXJjaGFzZSJ9"

// testHeaderValue relays the x-ms-test blob posted with the form, falling
// back to the default scenario header.
func testHeaderValue(r *http.Request) string {
	if value := r.PostFormValue(testHeaderField); value != "" {
		return value
	}
	return defaultTestHeader
}

// hasContentType checks the request Content-Type prefix, ignoring charset
// parameters.
func hasContentType(r *http.Request, contentType string) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), contentType)
}

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	_ = json.NewEncoder(w).Encode(v)
}

// statusForError maps the error taxonomy onto HTTP status codes. Envelope
// authentication and padding failures answer like any malformed input, so
// tampering attempts learn nothing from the response.
func statusForError(err error) int {
	switch {
	case acserr.Is(err, acserr.ErrStorage):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// failRequest logs the diagnostic record and answers with the mapped status
// and a cause-free body.
func failRequest(w http.ResponseWriter, endpoint, transID string, err error) {
	event := log.Error().Str("endpoint", endpoint).Err(err)
	if transID != "" {
		event = event.Str("transID", transID)
	}
	event.Msg("request failed")

	status := statusForError(err)
	if status == http.StatusInternalServerError {
		http.Error(w, "Internal Server Error", status)
		return
	}
	http.Error(w, "Bad Request", status)
}

// decodeBase64 accepts the blob in any of the common base64 alphabets; the
// browser and SDK sides of the protocol do not agree on one.
func decodeBase64(value string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var lastErr error
	for _, encoding := range encodings {
		data, err := encoding.DecodeString(value)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
