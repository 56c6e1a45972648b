package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"useradmin/infrastructure/idp"
	"useradmin/infrastructure/sqlite"
)

// preflight verifies the deployment's moving parts before the console is
// started: the sqlite file is writable and migrated, the identity provider
// publishes its discovery document, and the backend answers at all.
func main() {
	dbPath := getenv("SQLITE_PATH", "useradmin.db")
	apiBaseURL := getenv("API_BASE_URL", "http://localhost:9000")
	issuer := getenv("IDP_ISSUER", "http://localhost:8081/realms/useradmin")
	clientID := getenv("IDP_CLIENT_ID", "useradmin-console")
	redirectURL := getenv("IDP_REDIRECT_URL", "http://localhost:8080/auth/callback")

	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := sqlite.ApplyMigrations(context.Background(), db, os.Getenv("MIGRATIONS_DIR")); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}
	fmt.Println("sqlite ok")

	provider, err := idp.New(issuer, clientID, os.Getenv("IDP_CLIENT_SECRET"), redirectURL)
	if err != nil {
		log.Fatalf("configure identity provider: %v", err)
	}
	if err := checkURL(provider.DiscoveryURL()); err != nil {
		log.Fatalf("identity provider unreachable: %v", err)
	}
	fmt.Println("identity provider ok")

	if err := checkURL(apiBaseURL); err != nil {
		log.Fatalf("backend unreachable: %v", err)
	}
	fmt.Println("backend ok")
}

func checkURL(url string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%s answered %d", url, resp.StatusCode)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
