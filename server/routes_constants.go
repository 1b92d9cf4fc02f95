package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes - Login & Logout
	RouteLogin     = "/login"
	RouteAuthLogin = "/auth/login"
	RouteLogout    = "/logout"

	// OAuth Routes - Google
	RouteGoogleRedirect = "/oauth/google/redirect"
	RouteGoogleCallback = "/oauth/google/callback"

	// OAuth Routes - LINE WORKS
	RouteLineWorksRedirect = "/oauth/lineworks/redirect"
	RouteLineWorksCallback = "/oauth/lineworks/callback"

	// WOFF Routes (LINE WORKS in-app)
	RouteWoffAuth   = "/woff/auth"
	RouteWoffConfig = "/woff/config"

	// API Routes
	RouteAPISwitchOrg = "/api/switch-org"

	// API Routes - Rich Menu
	RouteAPIRichMenuList          = "/api/rich-menu/list"
	RouteAPIRichMenuCreate        = "/api/rich-menu/create"
	RouteAPIRichMenuDelete        = "/api/rich-menu/delete"
	RouteAPIRichMenuImage         = "/api/rich-menu/image"
	RouteAPIRichMenuDefaultSet    = "/api/rich-menu/default/set"
	RouteAPIRichMenuDefaultDelete = "/api/rich-menu/default/delete"

	// API Routes - SSO Settings
	RouteAPISsoList   = "/api/sso/list"
	RouteAPISsoUpsert = "/api/sso/upsert"
	RouteAPISsoDelete = "/api/sso/delete"
)
