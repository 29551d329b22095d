package server

func (s *Server) initRoutes() {
	// Method step
	s.RegisterRouteFunc("POST "+RouteSupportedVersions, ChainMiddleware(s.SupportedVersionsHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteFingerprint, ChainMiddleware(s.FingerprintHandler(), s.APIMiddleware()...))

	// Authentication
	s.RegisterRouteFunc("POST "+RouteAuth, ChainMiddleware(s.AuthHandler(), s.APIMiddleware()...))

	// Challenge loop
	s.RegisterRouteFunc("POST "+RouteCReq, ChainMiddleware(s.CReqHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteChallenge, ChainMiddleware(s.ChallengeHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteSDKChallenge, ChainMiddleware(s.SDKChallengeHandler(), s.APIMiddleware()...))

	// Outcome and test control
	s.RegisterRouteFunc("POST "+RouteResult, ChainMiddleware(s.ResultHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteSetStatus, ChainMiddleware(s.SetStatusHandler(), s.APIMiddleware()...))
}
