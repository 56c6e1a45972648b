package http

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	loginflow "useradmin/frontend/login"
	sessioncontext "useradmin/frontend/shared/context"
	"useradmin/frontend/userform"
	"useradmin/frontend/users"
	"useradmin/infrastructure/api"
	"useradmin/infrastructure/audit"
	"useradmin/infrastructure/cache"
	"useradmin/infrastructure/idp"
	"useradmin/infrastructure/rbac"
	sessioncookie "useradmin/infrastructure/session"
	"useradmin/infrastructure/sqlite"
	"useradmin/models"
)

//go:embed assets/*
var assets embed.FS

var ShutdownTimeout = 2 * time.Second

// Server bundles dependencies and route wiring.
type Server struct {
	Addr   string
	ln     net.Listener
	server *http.Server
	router *chi.Mux

	DB              *sqlite.DB
	SessionCache    *cache.UserSessionCache
	CredentialCache *cache.CredentialCache
	OptionsCache    *cache.OptionsCache
	RbacCache       *cache.RbacRolesCache
	Rbac            *rbac.Rbac
	Audit           *audit.Service
	API             *api.Client
	IdP             *idp.Provider
	Listing         *users.Registry
	Forms           *userform.Registry

	StateKey      []byte
	PublicBaseURL string
}

// Config carries everything the server needs beyond its address.
type Config struct {
	Addr          string
	PublicBaseURL string
	StateKey      []byte

	DB              *sqlite.DB
	SessionCache    *cache.UserSessionCache
	CredentialCache *cache.CredentialCache
	OptionsCache    *cache.OptionsCache
	RbacCache       *cache.RbacRolesCache
	Rbac            *rbac.Rbac
	Audit           *audit.Service
	API             *api.Client
	IdP             *idp.Provider
	Listing         *users.Registry
	Forms           *userform.Registry
}

// NewServer creates a new http server.
func NewServer(cfg Config) *Server {
	s := &Server{
		Addr:            cfg.Addr,
		router:          chi.NewRouter(),
		DB:              cfg.DB,
		SessionCache:    cfg.SessionCache,
		CredentialCache: cfg.CredentialCache,
		OptionsCache:    cfg.OptionsCache,
		RbacCache:       cfg.RbacCache,
		Rbac:            cfg.Rbac,
		Audit:           cfg.Audit,
		API:             cfg.API,
		IdP:             cfg.IdP,
		Listing:         cfg.Listing,
		Forms:           cfg.Forms,
		StateKey:        cfg.StateKey,
		PublicBaseURL:   cfg.PublicBaseURL,
		server: &http.Server{
			MaxHeaderBytes: 1 << 20,
		},
	}

	// Secure headers first.
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			next.ServeHTTP(w, r)
		})
	})

	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Compress(5))
	s.router.Use(s.CSRFMiddleware)

	// Root checks auth status but does not require it.
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sessionCookie, err := r.Cookie(sessioncookie.CookieName)
		if err != nil || sessionCookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		session, ok := s.resolveSession(r.Context(), sessionCookie.Value)
		if !ok || session.Expired() {
			http.SetCookie(w, sessioncookie.SessionCookie("", -1))
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/console/users", http.StatusSeeOther)
	})

	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Serve assets from embedded FS.
	var assetsFS fs.FS = assets
	if sub, err := fs.Sub(assets, "assets"); err == nil {
		assetsFS = sub
	} else {
		slog.Error("assets subfs init failed; serving fallback fs", slog.Any("err", err))
	}
	s.router.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS))))

	s.RegisterLoginRoutes()

	s.router.Group(func(r chi.Router) {
		r.Route("/console", func(r chi.Router) {
			r.Use(s.AuthenticateMiddleware)
			s.RegisterConsoleRoutes(r)
		})
	})

	s.server.Handler = s.router
	return s
}

// AuthenticateMiddleware loads the session, applies RBAC and attaches the
// session's bearer credential to the request context.
func (s *Server) AuthenticateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionCookie, err := r.Cookie(sessioncookie.CookieName)
		if err != nil || sessionCookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		sessionToken := sessionCookie.Value
		session, ok := s.resolveSession(r.Context(), sessionToken)
		if !ok {
			slog.Warn("session not found", slog.String("method", r.Method), slog.String("path", r.URL.Path))
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		if session.Expired() {
			s.evictSession(r.Context(), sessionToken)
			http.SetCookie(w, sessioncookie.SessionCookie("", -1))
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		isAdmin := hasRole(session.Roles, rbac.RoleAdmin)
		if !isAdmin {
			if !s.RbacValidation(session.Roles, r.URL.Path, r.Method) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}

		cred := s.credentialFor(session)

		ctx := sessioncontext.NewContextWithSession(r.Context(), session)
		ctx = sessioncontext.NewContextWithCredential(ctx, cred)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) resolveSession(ctx context.Context, token string) (session models.Session, ok bool) {
	if cached, found := s.SessionCache.FindSessionBySessionToken(token); found {
		return cached, true
	}

	dbSession, err := loginflow.LoadSessionByToken(ctx, s.DB, token)
	if err != nil {
		if err != sql.ErrNoRows {
			slog.Error("load session from db failed", slog.String("session_id", token), slog.Any("err", err))
		}
		return session, false
	}

	s.SessionCache.AddSession(dbSession)
	return dbSession, true
}

// evictSession removes every per-session artefact after expiry.
func (s *Server) evictSession(ctx context.Context, token string) {
	s.SessionCache.DeleteSessionBySessionToken(token)
	s.CredentialCache.Delete(token)
	s.Listing.Drop(token)
	s.Forms.Drop(token)
	if err := loginflow.DeleteSessionByToken(ctx, s.DB, token); err != nil {
		slog.Error("cannot delete session from DB", slog.String("session_id", token), slog.Any("err", err))
	}
}

// credentialFor returns the session's live credential, creating and caching
// one on first use so token refreshes serialize on a single instance.
func (s *Server) credentialFor(session models.Session) *idp.Credential {
	if cred, ok := s.CredentialCache.Get(session.ID); ok {
		return cred
	}
	cred := idp.NewCredential(s.IdP, loginflow.NewStore(s.DB), session)
	s.CredentialCache.Add(session.ID, cred)
	return cred
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func (s *Server) RbacValidation(userRoles []string, url, method string) bool {
	if len(userRoles) == 0 {
		return false
	}
	resources := s.RbacCache.GetRolesAndResources(userRoles)
	if len(resources) == 0 {
		return false
	}
	return rbac.ValidateResourceAccess(resources, url, method)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	var err error
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	go s.server.Serve(s.ln)
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.ln == nil {
		return fmt.Errorf("HTTP server has not been started or is already stopped")
	}
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %v", err)
	}
	s.ln = nil
	return nil
}
