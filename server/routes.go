package server

func (s *Server) initRoutes() {
	// LOGIN
	s.RegisterRouteFunc("GET "+RouteLogin, s.LoginInfoHandler())
	s.RegisterRouteFunc("POST "+RouteAuthLogin, s.PasswordLoginHandler())
	s.RegisterRouteFunc("GET "+RouteLogout, s.LogoutHandler())

	// OAuth redirect legs
	s.RegisterRouteFunc("GET "+RouteGoogleRedirect, s.GoogleRedirectHandler())
	s.RegisterRouteFunc("GET "+RouteGoogleCallback, s.GoogleCallbackHandler())
	s.RegisterRouteFunc("GET "+RouteLineWorksRedirect, s.LineWorksRedirectHandler())
	s.RegisterRouteFunc("GET "+RouteLineWorksCallback, s.LineWorksCallbackHandler())

	// WOFF (LINE WORKS in-app) APIs, called cross-origin from frontends
	s.RegisterRouteHandler("POST "+RouteWoffAuth, ChainMiddleware(s.WoffAuthHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteWoffConfig, ChainMiddleware(s.WoffConfigHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPISwitchOrg, ChainMiddleware(s.SwitchOrgHandler(), s.APIMiddleware()...))

	// Rich menu admin APIs (bearer token required)
	s.RegisterRouteHandler("POST "+RouteAPIRichMenuList, ChainMiddleware(s.RichMenuListHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIRichMenuCreate, ChainMiddleware(s.RichMenuCreateHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIRichMenuDelete, ChainMiddleware(s.RichMenuDeleteHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIRichMenuImage, ChainMiddleware(s.RichMenuImageUploadHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIRichMenuDefaultSet, ChainMiddleware(s.RichMenuDefaultSetHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIRichMenuDefaultDelete, ChainMiddleware(s.RichMenuDefaultDeleteHandler(), s.APIMiddleware()...))

	// SSO settings admin APIs (bearer token required)
	s.RegisterRouteHandler("GET "+RouteAPISsoList, ChainMiddleware(s.SsoListHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPISsoUpsert, ChainMiddleware(s.SsoUpsertHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPISsoDelete, ChainMiddleware(s.SsoDeleteHandler(), s.APIMiddleware()...))

	// CORS preflight for every API route
	s.RegisterRouteFunc("OPTIONS /", s.PreflightHandler())
}
