package server

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	acserr "github.com/finsim/acs-emulator/internal/errors"
	"github.com/finsim/acs-emulator/threeds"
)

// methodResponseTemplate auto-submits the collected fingerprint data back
// to the caller's notification URL.
const methodResponseTemplate = `<html>` +
	`<body onload='document.forms[0].submit();'>` +
	`<form action="%s" method="POST">` +
	`<input type="hidden" name="x-ms-test" value="%s"/>` +
	`<input type="hidden" name="threeDSMethodData" value="%s"/></form></body></html>`

// SupportedVersionsHandler answers protocol-version negotiation. It is
// stateless and never touches the transaction store.
func (s *Server) SupportedVersionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, threeds.VersionResponse{
			ThreeDSServerTransID:    uuid.NewString(),
			AcsStartProtocolVersion: threeds.DefaultMessageVersion,
			AcsEndProtocolVersion:   threeds.DefaultMessageVersion,
			ThreeDSMethodURL:        s.config.GetBaseURL() + RouteFingerprint,
			DSStartProtocolVersion:  threeds.DefaultMessageVersion,
			DSEndProtocolVersion:    threeds.DefaultMessageVersion,
		})
	}
}

// FingerprintHandler relays the device-fingerprint collection: it echoes
// the posted threeDSMethodData in an auto-submitting form aimed at the
// notification URL named inside it.
func (s *Server) FingerprintHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			failRequest(w, RouteFingerprint, "", errors.Wrap(acserr.ErrMalformedInput, "unparseable form"))
			return
		}

		methodDataB64 := r.PostFormValue("threeDSMethodData")
		if methodDataB64 == "" {
			failRequest(w, RouteFingerprint, "", errors.Wrap(acserr.ErrMalformedInput, "threeDSMethodData is required"))
			return
		}

		decoded, err := decodeBase64(methodDataB64)
		if err != nil {
			failRequest(w, RouteFingerprint, "", errors.Wrap(acserr.ErrMalformedInput, "threeDSMethodData is not base64"))
			return
		}
		var methodData threeds.MethodData
		if err := json.Unmarshal(decoded, &methodData); err != nil || methodData.ThreeDSMethodNotificationURL == "" {
			failRequest(w, RouteFingerprint, methodData.ThreeDSServerTransID, errors.Wrap(acserr.ErrMalformedInput, "threeDSMethodData is not valid"))
			return
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		fmt.Fprintf(w, methodResponseTemplate,
			html.EscapeString(methodData.ThreeDSMethodNotificationURL),
			html.EscapeString(testHeaderValue(r)),
			html.EscapeString(methodDataB64),
		)
	}
}
