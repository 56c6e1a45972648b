package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	exportspage "useradmin/frontend/exports"
	helppage "useradmin/frontend/help"
	"useradmin/frontend/login"
	"useradmin/frontend/userform"
	userspage "useradmin/frontend/users"
	"useradmin/infrastructure/rbac"
)

// RegisterLoginRoutes registers the unauthenticated identity flow.
func (s *Server) RegisterLoginRoutes() {
	s.router.Get("/login", login.GetLoginScreenHandler)
	s.router.Get("/auth/start", login.StartLoginHandler(s.IdP, s.StateKey))
	s.router.Get("/auth/callback", login.CallbackHandler(s.IdP, s.StateKey, s.DB, s.SessionCache, s.CredentialCache))
	s.router.Post("/logout", login.LogoutHandler(s.DB, s.SessionCache, s.CredentialCache, s.Listing, s.Forms))
}

// RegisterConsoleRoutes registers the authenticated console. Admins get
// everything; viewers get the read-only surface registered per route.
func (s *Server) RegisterConsoleRoutes(r chi.Router) chi.Router {
	s.registerListingRoutes(r)
	s.registerFormRoutes(r)
	s.registerExportRoutes(r)

	s.Rbac.Add(rbac.RoleViewer, "HELP_VIEW", http.MethodGet, "/console/help")
	r.Get("/help", helppage.HelpPageQueryHandler())

	return r
}

func (s *Server) registerListingRoutes(r chi.Router) {
	s.Rbac.Add(rbac.RoleViewer, "USERS_LIST_VIEW", http.MethodGet, "/console/users")
	r.Get("/users", userspage.UsersPageQueryHandler(s.API, s.Listing, s.OptionsCache))

	s.Rbac.Add(rbac.RoleViewer, "USERS_SEARCH", http.MethodPost, "/console/users/search")
	r.Post("/users/search", userspage.SearchCommandHandler(s.Listing))
	s.Rbac.Add(rbac.RoleViewer, "USERS_FILTER_ORG", http.MethodPost, "/console/users/filter/organisation")
	r.Post("/users/filter/organisation", userspage.FilterOrganisationCommandHandler(s.Listing))
	s.Rbac.Add(rbac.RoleViewer, "USERS_FILTER_ROLE", http.MethodPost, "/console/users/filter/role")
	r.Post("/users/filter/role", userspage.FilterRoleCommandHandler(s.Listing))
	s.Rbac.Add(rbac.RoleViewer, "USERS_REFRESH", http.MethodPost, "/console/users/refresh")
	r.Post("/users/refresh", userspage.RefreshCommandHandler(s.Listing))
	s.Rbac.Add(rbac.RoleViewer, "USERS_PAGE", http.MethodPost, "/console/users/page")
	r.Post("/users/page", userspage.ChangePageCommandHandler(s.Listing))
	s.Rbac.Add(rbac.RoleViewer, "USERS_PAGE_SIZE", http.MethodPost, "/console/users/page-size")
	r.Post("/users/page-size", userspage.PageSizeCommandHandler(s.Listing))
	s.Rbac.Add(rbac.RoleViewer, "USERS_VIEW_MODE", http.MethodPost, "/console/users/view-mode")
	r.Post("/users/view-mode", userspage.ViewModeCommandHandler(s.Listing))

	s.Rbac.Add(rbac.RoleViewer, "USERS_DETAIL_VIEW", http.MethodGet, "/console/users/*")
	r.Get("/users/{id}", userspage.DetailQueryHandler(s.API))

	// Admin-only; no viewer registration.
	r.Post("/users/{id}/delete", userspage.ConfirmDeleteCommandHandler(s.API, s.Listing, s.Audit))
}

func (s *Server) registerFormRoutes(r chi.Router) {
	// The whole form workflow is admin-only; viewers never see these routes.
	// It lives under /userform so the viewer's /console/users/* grant never
	// overlaps it.
	r.Get("/userform", userform.FormPageQueryHandler(s.Forms))
	r.Get("/userform/new", userform.NewFormQueryHandler(s.API, s.Forms))
	r.Get("/userform/{id}/edit", userform.EditFormQueryHandler(s.API, s.Forms))

	r.Post("/userform/organisation", userform.ToggleOrganisationCommandHandler(s.Forms))
	r.Post("/userform/role", userform.ToggleRoleCommandHandler(s.Forms))
	r.Post("/userform/next", userform.NextCommandHandler(s.Forms))
	r.Post("/userform/back", userform.BackCommandHandler(s.Forms))
	r.Post("/userform/submit", userform.SubmitCommandHandler(s.Forms, s.Listing, s.Audit))
	r.Post("/userform/cancel", userform.CancelCommandHandler(s.Forms))
}

func (s *Server) registerExportRoutes(r chi.Router) {
	s.Rbac.Add(rbac.RoleViewer, "EXPORTS_VIEW", http.MethodGet, "/console/exports")
	r.Get("/exports", exportspage.ExportsPageQueryHandler(s.Listing))

	s.Rbac.Add(rbac.RoleViewer, "EXPORT_USERS_CSV", http.MethodGet, "/console/exports/users.csv")
	r.Get("/exports/users.csv", exportspage.UsersCSVHandler(s.Listing))

	s.Rbac.Add(rbac.RoleViewer, "EXPORT_USERS_PDF", http.MethodGet, "/console/exports/users.pdf")
	r.Get("/exports/users.pdf", exportspage.UsersPDFHandler(s.Listing, s.PublicBaseURL))
}
