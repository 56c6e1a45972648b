package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"useradmin/frontend/login"
	"useradmin/frontend/userform"
	"useradmin/frontend/users"
	"useradmin/infrastructure/api"
	"useradmin/infrastructure/audit"
	"useradmin/infrastructure/cache"
	httpserver "useradmin/infrastructure/http"
	"useradmin/infrastructure/idp"
	"useradmin/infrastructure/rbac"
	"useradmin/infrastructure/sqlite"
)

func main() {
	addr := getenv("APP_ADDR", ":8080")
	dbPath := getenv("SQLITE_PATH", "useradmin.db")
	apiBaseURL := getenv("API_BASE_URL", "http://localhost:9000")
	publicBaseURL := getenv("PUBLIC_BASE_URL", "http://localhost:8080")

	issuer := getenv("IDP_ISSUER", "http://localhost:8081/realms/useradmin")
	clientID := getenv("IDP_CLIENT_ID", "useradmin-console")
	clientSecret := os.Getenv("IDP_CLIENT_SECRET")
	redirectURL := getenv("IDP_REDIRECT_URL", publicBaseURL+"/auth/callback")

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		log.Fatal("SESSION_SECRET is required")
	}

	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := sqlite.ApplyMigrations(context.Background(), db, os.Getenv("MIGRATIONS_DIR")); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	provider, err := idp.New(issuer, clientID, clientSecret, redirectURL)
	if err != nil {
		log.Fatalf("configure identity provider: %v", err)
	}

	stateKey, err := login.StateKey([]byte(sessionSecret))
	if err != nil {
		log.Fatalf("derive state key: %v", err)
	}

	client := api.New(apiBaseURL)

	sessionCache := cache.NewUserSessionCache()
	credentialCache := cache.NewCredentialCache()
	optionsCache := cache.NewOptionsCache(5 * time.Minute)
	rbacCache := cache.NewRbacRolesCache()
	rbacSvc := rbac.New(rbacCache)
	auditSvc := audit.NewService(db)

	listing := users.NewRegistry(client, users.DefaultDebounce)
	forms := userform.NewRegistry()

	server := httpserver.NewServer(httpserver.Config{
		Addr:          addr,
		PublicBaseURL: publicBaseURL,
		StateKey:      stateKey,

		DB:              db,
		SessionCache:    sessionCache,
		CredentialCache: credentialCache,
		OptionsCache:    optionsCache,
		RbacCache:       rbacCache,
		Rbac:            rbacSvc,
		Audit:           auditSvc,
		API:             client,
		IdP:             provider,
		Listing:         listing,
		Forms:           forms,
	})
	if err := server.Start(); err != nil {
		log.Fatalf("start server: %v", err)
	}
	log.Printf("useradmin listening on %s", addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	if err := server.Stop(); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
