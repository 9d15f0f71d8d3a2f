package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Email sign up
	RouteRegister    = "/register"
	RouteVerifyEmail = "/email/verify"

	// Password and magic link sign in
	RouteLogin           = "/login"
	RouteMagicLink       = "/magic-link"
	RouteMagicLinkVerify = "/magic-link/verify"

	// Google
	RouteGoogleURL           = "/google/url"
	RouteGoogleCallback      = "/google/callback"
	RouteGoogleTokenCallback = "/google/token/callback"

	// Password reset
	RoutePasswordReset        = "/password-reset"
	RoutePasswordResetConfirm = "/password-reset/confirm"

	// Session
	RouteLogout    = "/logout"
	RouteLogoutAll = "/logout/all"
	RouteRefresh   = "/refresh"
	RouteMe        = "/me"
	RouteSessions  = "/sessions"

	RouteHealth = "/healthz"
)
