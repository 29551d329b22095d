package server

import (
	"encoding/base64"
	"encoding/json"
	"html"
	"net/http"

	"github.com/pkg/errors"

	"github.com/finsim/acs-emulator/acs"
	"github.com/finsim/acs-emulator/flows"
	"github.com/finsim/acs-emulator/fragments"
	acserr "github.com/finsim/acs-emulator/internal/errors"
	"github.com/finsim/acs-emulator/threeds"
	"github.com/finsim/acs-emulator/transactions"
)

// CReqHandler opens the browser challenge loop: it validates the opaque
// session blob, resolves the first fragment and renders its page. No state
// is mutated.
func (s *Server) CReqHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionData, sessionDataB64, err := parseSessionData(r)
		if err != nil {
			failRequest(w, RouteCReq, "", err)
			return
		}

		txn, fragment, err := s.acs.StartChallenge(sessionData.AcsTransID)
		if err != nil {
			failRequest(w, RouteCReq, sessionData.AcsTransID, err)
			return
		}

		s.renderChallengePage(w, r, txn, fragment, sessionData, sessionDataB64)
	}
}

// ChallengeHandler advances the browser challenge loop by one round and
// renders the next page.
func (s *Server) ChallengeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionData, sessionDataB64, err := parseSessionData(r)
		if err != nil {
			failRequest(w, RouteChallenge, "", err)
			return
		}

		dataEntry := r.PostFormValue("challengeDataEntry")
		if len(r.PostForm["challengeDataEntry"]) > 1 {
			// Only one value is possible; a multi-valued submission is
			// treated as no entry.
			dataEntry = ""
		}

		input := acs.ChallengeInput{
			Channel:     acs.ChannelBrowser,
			DataEntry:   dataEntry,
			OOBContinue: r.PostFormValue("continue") == "continue",
			TimedOut:    r.PostFormValue("timedout") == "true",
			Resend:      r.PostFormValue("resend") == "Resend Code",
			Cancel:      r.PostFormValue("cancel") == "Cancel",
		}

		outcome, err := s.acs.SubmitChallenge(sessionData.AcsTransID, input)
		if err != nil {
			failRequest(w, RouteChallenge, sessionData.AcsTransID, err)
			return
		}

		s.renderChallengePage(w, r, outcome.Next, outcome.Fragment, sessionData, sessionDataB64)
	}
}

// parseSessionData extracts and validates the opaque threeDSSessionData
// blob carried through every browser challenge form.
func parseSessionData(r *http.Request) (*threeds.SessionData, string, error) {
	if err := r.ParseForm(); err != nil {
		return nil, "", errors.Wrap(acserr.ErrMalformedInput, "unparseable form")
	}

	blob := r.PostFormValue("threeDSSessionData")
	if blob == "" {
		return nil, "", errors.Wrap(acserr.ErrMalformedInput, "threeDSSessionData is required")
	}

	decoded, err := decodeBase64(blob)
	if err != nil {
		return nil, "", errors.Wrap(acserr.ErrMalformedInput, "threeDSSessionData is not base64")
	}

	var sessionData threeds.SessionData
	if err := json.Unmarshal(decoded, &sessionData); err != nil || sessionData.AcsTransID == "" {
		return nil, "", errors.Wrap(acserr.ErrMalformedInput, "threeDSSessionData has no acsTransID")
	}
	return &sessionData, blob, nil
}

// renderChallengePage substitutes this round's values into the fragment's
// page template. Every interpolated value is HTML-escaped.
func (s *Server) renderChallengePage(w http.ResponseWriter, r *http.Request, txn *transactions.Transaction, fragment flows.Fragment, sessionData *threeds.SessionData, sessionDataB64 string) {
	page, err := fragments.HTML(fragment)
	if err != nil {
		failRequest(w, RouteChallenge, txn.ID, err)
		return
	}

	cres := map[string]string{
		"threeDSServerTransID":   sessionData.ThreeDSServerTransID,
		"acsTransID":             sessionData.AcsTransID,
		"messageType":            threeds.MessageTypeCRes,
		"challengeCompletionInd": "Y",
	}
	cresJSON, err := json.Marshal(cres)
	if err != nil {
		failRequest(w, RouteChallenge, txn.ID, errors.Wrap(err, "failed to marshal CRes"))
		return
	}

	rendered := fragments.Substitute(page, map[string]string{
		"actionUrl":          html.EscapeString(txn.NotificationURL),
		"threeDSSessionData": html.EscapeString(sessionDataB64),
		"mstestheader":       html.EscapeString(testHeaderValue(r)),
		"cres":               html.EscapeString(base64.StdEncoding.EncodeToString(cresJSON)),
		"amount":             html.EscapeString(fragments.FormatAmount(txn.PurchaseAmount, txn.PurchaseCurrency)),
	})

	w.Header().Set("Content-Type", contentTypeHTML)
	_, _ = w.Write([]byte(rendered))
}
