package server_test

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/finsim/acs-emulator/acs"
	"github.com/finsim/acs-emulator/acscrypto"
	"github.com/finsim/acs-emulator/envelope"
	"github.com/finsim/acs-emulator/flows"
	"github.com/finsim/acs-emulator/internal/config"
	"github.com/finsim/acs-emulator/server"
	"github.com/finsim/acs-emulator/threeds"
	"github.com/finsim/acs-emulator/transactions/repofake"
)

func newTestServer(t *testing.T) (*server.Server, *repofake.FakeTransactionRepo) {
	t.Helper()
	repo := repofake.NewFakeTransactionRepo()
	resolver := flows.NewResolver(nil)
	keys, err := acscrypto.GenerateSigningKeys()
	require.NoError(t, err)

	cfg := config.New()
	acsService, err := acs.NewService(repo, resolver, keys, cfg.GetBaseURL())
	require.NoError(t, err)

	srv, err := server.New(cfg, acsService)
	require.NoError(t, err)
	return srv, repo
}

func postJSON(t *testing.T, srv *server.Server, route string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, route, strings.NewReader(string(data)))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func postForm(t *testing.T, srv *server.Server, route string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, route, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func sessionDataBlob(t *testing.T, transID string) string {
	t.Helper()
	data, err := json.Marshal(threeds.SessionData{ThreeDSServerTransID: transID, AcsTransID: transID})
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(data)
}

func TestSupportedVersionsHandler(t *testing.T) {
	srv, _ := newTestServer(t)

	w := postJSON(t, srv, server.RouteSupportedVersions, map[string]string{})
	require.Equal(t, http.StatusOK, w.Code)

	var resp threeds.VersionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ThreeDSServerTransID)
	require.Equal(t, threeds.DefaultMessageVersion, resp.AcsStartProtocolVersion)
	require.Equal(t, threeds.DefaultMessageVersion, resp.DSEndProtocolVersion)
	require.Equal(t, "http://localhost:8080/acs"+server.RouteFingerprint, resp.ThreeDSMethodURL)
}

func TestFingerprintHandler(t *testing.T) {
	srv, _ := newTestServer(t)

	methodData, err := json.Marshal(threeds.MethodData{
		ThreeDSServerTransID:         "txn-1",
		ThreeDSMethodNotificationURL: "https://requestor.example/notify",
	})
	require.NoError(t, err)
	blob := base64.StdEncoding.EncodeToString(methodData)

	w := postForm(t, srv, server.RouteFingerprint, url.Values{"threeDSMethodData": {blob}})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/html")
	require.Contains(t, w.Body.String(), `action="https://requestor.example/notify"`)
	require.Contains(t, w.Body.String(), blob)
}

func TestFingerprintHandlerRelaysTestHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	methodData, err := json.Marshal(threeds.MethodData{
		ThreeDSServerTransID:         "txn-1",
		ThreeDSMethodNotificationURL: "https://requestor.example/notify",
	})
	require.NoError(t, err)
	blob := base64.StdEncoding.EncodeToString(methodData)

	// A posted x-ms-test blob is echoed back through the form.
	w := postForm(t, srv, server.RouteFingerprint, url.Values{
		"threeDSMethodData": {blob},
		"x-ms-test":         {"custom-routing-blob"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `name="x-ms-test" value="custom-routing-blob"`)

	// Without one, the default scenario header is used.
	w = postForm(t, srv, server.RouteFingerprint, url.Values{"threeDSMethodData": {blob}})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `name="x-ms-test" value="eyJzY2VuYXJpb3Mi`)
}

func TestFingerprintHandlerRejectsBadInput(t *testing.T) {
	srv, _ := newTestServer(t)

	w := postForm(t, srv, server.RouteFingerprint, url.Values{})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = postForm(t, srv, server.RouteFingerprint, url.Values{"threeDSMethodData": {"%%%not-base64%%%"}})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Valid base64 of JSON missing the notification URL.
	blob := base64.StdEncoding.EncodeToString([]byte(`{"threeDSServerTransID":"txn-1"}`))
	w = postForm(t, srv, server.RouteFingerprint, url.Values{"threeDSMethodData": {blob}})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler(t *testing.T) {
	srv, _ := newTestServer(t)

	w := postJSON(t, srv, server.RouteAuth, threeds.AReq{
		ThreeDSServerTransID: "txn-1",
		DeviceChannel:        threeds.DeviceChannelBrowser,
		CardExpiryDate:       "2508",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var ares threeds.ARes
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ares))
	require.Equal(t, threeds.MessageTypeARes, ares.MessageType)
	require.Equal(t, threeds.TransStatusChallenge, ares.TransStatus)
	require.Equal(t, "http://localhost:8080/acs/creq", ares.AcsURL)
}

func TestAuthHandlerRejectsBadRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	// Wrong content type.
	r := httptest.NewRequest(http.MethodPost, server.RouteAuth, strings.NewReader("{}"))
	r.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Unparseable body.
	r = httptest.NewRequest(http.MethodPost, server.RouteAuth, strings.NewReader("{not json"))
	r.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// GET is not routed.
	r = httptest.NewRequest(http.MethodGet, server.RouteAuth, nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestBrowserChallengeFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	w := postJSON(t, srv, server.RouteAuth, threeds.AReq{
		ThreeDSServerTransID: "txn-1",
		DeviceChannel:        threeds.DeviceChannelBrowser,
		CardExpiryDate:       "2508",
		PurchaseAmount:       "12345",
		PurchaseCurrency:     "840",
		NotificationURL:      "https://requestor.example/notify",
	})
	require.Equal(t, http.StatusOK, w.Code)

	blob := sessionDataBlob(t, "txn-1")

	// Opening the loop renders the first page without consuming a round.
	w = postForm(t, srv, server.RouteCReq, url.Values{"threeDSSessionData": {blob}})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/html")
	require.Contains(t, w.Body.String(), "<form")
	require.Contains(t, w.Body.String(), blob)
	require.Contains(t, w.Body.String(), `name="x-ms-test" value="eyJzY2VuYXJpb3Mi`,
		"pages carry the default routing blob when none is posted")

	// A correct entry completes the challenge with the auto-submitting
	// final page aimed at the notification URL. The posted x-ms-test blob
	// is threaded through to the next form.
	w = postForm(t, srv, server.RouteChallenge, url.Values{
		"threeDSSessionData": {blob},
		"challengeDataEntry": {"456"},
		"x-ms-test":          {"custom-routing-blob"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "https://requestor.example/notify")
	require.Contains(t, w.Body.String(), `name="cres"`)
	require.Contains(t, w.Body.String(), `name="x-ms-test" value="custom-routing-blob"`)

	resultW := postJSON(t, srv, server.RouteResult, threeds.ResultRequest{ThreeDSServerTransID: "txn-1"})
	require.Equal(t, http.StatusOK, resultW.Code)
	var result threeds.Result
	require.NoError(t, json.Unmarshal(resultW.Body.Bytes(), &result))
	require.Equal(t, threeds.TransStatusApproved, result.TransStatus)
	require.Equal(t, threeds.AuthenticationValue, result.AuthenticationValue)
}

func TestBrowserChallengeCancel(t *testing.T) {
	srv, _ := newTestServer(t)

	w := postJSON(t, srv, server.RouteAuth, threeds.AReq{
		ThreeDSServerTransID: "txn-1",
		DeviceChannel:        threeds.DeviceChannelBrowser,
		CardExpiryDate:       "2508",
	})
	require.Equal(t, http.StatusOK, w.Code)
	blob := sessionDataBlob(t, "txn-1")

	w = postForm(t, srv, server.RouteChallenge, url.Values{
		"threeDSSessionData": {blob},
		"cancel":             {"Cancel"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	resultW := postJSON(t, srv, server.RouteResult, threeds.ResultRequest{ThreeDSServerTransID: "txn-1"})
	var result threeds.Result
	require.NoError(t, json.Unmarshal(resultW.Body.Bytes(), &result))
	require.Equal(t, threeds.TransStatusNotAuthenticated, result.TransStatus)
	require.Equal(t, threeds.ReasonCancelled, result.TransStatusReason)
	require.Equal(t, threeds.ReasonCancelled, result.ChallengeCancel)
}

func TestChallengeHandlerRejectsBadSessionData(t *testing.T) {
	srv, _ := newTestServer(t)

	w := postForm(t, srv, server.RouteChallenge, url.Values{})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = postForm(t, srv, server.RouteChallenge, url.Values{"threeDSSessionData": {"%%%"}})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Valid blob naming an unknown transaction.
	w = postForm(t, srv, server.RouteCReq, url.Values{"threeDSSessionData": {sessionDataBlob(t, "missing")}})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSDKChallengeFlow(t *testing.T) {
	srv, repo := newTestServer(t)

	sdkKeyPair, err := acscrypto.GenerateECKeyPair()
	require.NoError(t, err)
	sdkJWK := acscrypto.SerializePublicKey(sdkKeyPair.PublicKey)

	w := postJSON(t, srv, server.RouteAuth, threeds.AReq{
		SDKTransID:         "sdk-txn-1",
		DeviceChannel:      threeds.DeviceChannelApp,
		CardExpiryDate:     "2508",
		SDKReferenceNumber: "3DS_LOA_SDK_PPFU_020100_00007",
		SDKEphemPubKey:     &sdkJWK,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var ares threeds.ARes
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ares))
	require.NotEmpty(t, ares.AcsSignedContent)

	txn, err := repo.Get("sdk-txn-1")
	require.NoError(t, err)
	sharedKey := txn.SharedKey
	require.Len(t, sharedKey, acscrypto.SessionKeySize)

	creq, err := json.Marshal(threeds.CReq{
		MessageType:          "CReq",
		ThreeDSServerTransID: "sdk-txn-1",
		AcsTransID:           "sdk-txn-1",
		SDKTransID:           "sdk-txn-1",
		ChallengeDataEntry:   "456",
	})
	require.NoError(t, err)
	token, err := envelope.Encode(sharedKey, "sdk-txn-1", creq)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, server.RouteSDKChallenge, strings.NewReader(token))
	r.Header.Set("Content-Type", "application/jose")
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "application/jose")

	_, cresJSON, err := envelope.Decode(strings.TrimSpace(w.Body.String()), func(string) ([]byte, error) {
		return sharedKey, nil
	})
	require.NoError(t, err)
	var cres map[string]any
	require.NoError(t, json.Unmarshal(cresJSON, &cres))
	require.Equal(t, "CRes", cres["messageType"])
	require.Equal(t, "000", cres["acsCounterAtoS"])
	require.Equal(t, threeds.TransStatusApproved, cres["transStatus"])
}

func TestSDKChallengeRejectsBadRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	// Wrong content type.
	r := httptest.NewRequest(http.MethodPost, server.RouteSDKChallenge, strings.NewReader("a.b.c.d.e"))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Malformed token.
	r = httptest.NewRequest(http.MethodPost, server.RouteSDKChallenge, strings.NewReader("not-an-envelope"))
	r.Header.Set("Content-Type", "application/jose")
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSDKChallengeErrorPassthrough(t *testing.T) {
	srv, _ := newTestServer(t)

	w := postJSON(t, srv, server.RouteAuth, threeds.AReq{
		ThreeDSServerTransID: "txn-1",
		DeviceChannel:        threeds.DeviceChannelBrowser,
	})
	require.Equal(t, http.StatusOK, w.Code)

	errBody := `{"messageType":"Erro","acsTransID":"txn-1","errorCode":"302","errorDescription":"bad message"}`
	r := httptest.NewRequest(http.MethodPost, server.RouteSDKChallenge, strings.NewReader(errBody))
	r.Header.Set("Content-Type", "application/jose")
	w2 := httptest.NewRecorder()
	srv.ServeHTTP(w2, r)
	require.Equal(t, http.StatusOK, w2.Code)
	require.Equal(t, "ok", w2.Body.String())

	resultW := postJSON(t, srv, server.RouteResult, threeds.ResultRequest{ThreeDSServerTransID: "txn-1"})
	var result threeds.Result
	require.NoError(t, json.Unmarshal(resultW.Body.Bytes(), &result))
	require.Equal(t, threeds.TransStatusNotAuthenticated, result.TransStatus)
	require.Equal(t, threeds.ReasonSDKError, result.TransStatusReason)
}

func TestResultHandlerUnknownTransaction(t *testing.T) {
	srv, _ := newTestServer(t)

	w := postJSON(t, srv, server.RouteResult, threeds.ResultRequest{ThreeDSServerTransID: "missing"})
	require.Equal(t, http.StatusOK, w.Code, "result never 404s")

	var result threeds.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Equal(t, threeds.TransStatusNotAuthenticated, result.TransStatus)
	require.Equal(t, threeds.ReasonTooManyAttempts, result.TransStatusReason)
}

func TestSetStatusHandler(t *testing.T) {
	srv, _ := newTestServer(t)

	w := postJSON(t, srv, server.RouteAuth, threeds.AReq{
		ThreeDSServerTransID: "txn-1",
		DeviceChannel:        threeds.DeviceChannelBrowser,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, srv, server.RouteSetStatus, threeds.SetStatusRequest{
		ThreeDSServerTransID: "txn-1",
		TransStatus:          threeds.TransStatusRejected,
		TransStatusReason:    threeds.ReasonTimeout,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())

	resultW := postJSON(t, srv, server.RouteResult, threeds.ResultRequest{ThreeDSServerTransID: "txn-1"})
	var result threeds.Result
	require.NoError(t, json.Unmarshal(resultW.Body.Bytes(), &result))
	require.Equal(t, threeds.TransStatusRejected, result.TransStatus)
	require.Equal(t, threeds.ReasonTimeout, result.TransStatusReason)

	w = postJSON(t, srv, server.RouteSetStatus, threeds.SetStatusRequest{ThreeDSServerTransID: "missing"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
