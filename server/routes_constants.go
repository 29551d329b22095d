package server

// Route path constants
// All protocol routes are defined here to ensure consistency and prevent typos
const (
	// Method step
	RouteSupportedVersions = "/supportedversions"
	RouteFingerprint       = "/fingerprint"

	// Authentication
	RouteAuth = "/auth"

	// Challenge loop, browser channel
	RouteCReq      = "/creq"
	RouteChallenge = "/challenge"

	// Challenge loop, app channel
	RouteSDKChallenge = "/sdk/challenge"

	// Outcome
	RouteResult = "/result"

	// Test control
	RouteSetStatus = "/setstatus"
)
