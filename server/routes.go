package server

func (s *Server) initRoutes() {
	// Public flows
	s.RegisterRouteHandler("POST "+RouteRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteVerifyEmail, ChainMiddleware(s.VerifyEmailHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteMagicLink, ChainMiddleware(s.MagicLinkHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteMagicLinkVerify, ChainMiddleware(s.MagicLinkVerifyHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteGoogleURL, ChainMiddleware(s.GoogleURLHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteGoogleCallback, ChainMiddleware(s.GoogleCallbackHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteGoogleTokenCallback, ChainMiddleware(s.GoogleTokenCallbackHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RoutePasswordReset, ChainMiddleware(s.PasswordResetHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RoutePasswordResetConfirm, ChainMiddleware(s.PasswordResetConfirmHandler(), s.APIMiddleware()...))

	// Refresh token routes
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware(s.RequireRefreshToken())...))
	s.RegisterRouteHandler("POST "+RouteLogoutAll, ChainMiddleware(s.LogoutAllHandler(), s.APIMiddleware(s.RequireRefreshToken())...))
	s.RegisterRouteHandler("POST "+RouteRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware(s.RequireRefreshToken())...))

	// Access token routes
	s.RegisterRouteHandler("GET "+RouteMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireAccessToken())...))
	s.RegisterRouteHandler("GET "+RouteSessions, ChainMiddleware(s.SessionsHandler(), s.APIMiddleware(s.RequireAccessToken())...))

	// CORS preflight for every route above
	s.RegisterRouteHandler("OPTIONS /", ChainMiddleware(s.notFoundHandler(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("/", ChainMiddleware(s.notFoundHandler(), s.APIMiddleware()...))
}
