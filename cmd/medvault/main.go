package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"medvault/api/server"
	"medvault/core/access"
	"medvault/core/audit"
	"medvault/core/fields"
	"medvault/core/ledger"
	"medvault/core/storage"
	"medvault/core/timeline"
	"medvault/core/validation"
)

func main() {
	godotenv.Load()

	// Log to file as well as stdout when a log path is configured
	if logPath := os.Getenv("LOG_FILE"); logPath != "" {
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	}

	fmt.Println("Starting MedVault gateway")

	// === Config ===
	dbPath := os.Getenv("MEDVAULT_DB_PATH")
	if dbPath == "" {
		dbPath = "./medvault_db"
	}
	ledgerEndpoint := os.Getenv("LEDGER_GRAPHQL_URL")
	if ledgerEndpoint == "" {
		log.Fatal("LEDGER_GRAPHQL_URL must be set")
	}
	vaultURL := os.Getenv("VAULT_URL")
	aggregatorURL := os.Getenv("AGGREGATOR_URL")

	// === Storage ===
	store, err := storage.NewStorage(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// === Audit ===
	auditLogger := audit.NewStoreAuditLogger(store)

	// === Ledger resolution pipeline ===
	validator, err := validation.NewEntryValidator()
	if err != nil {
		log.Fatalf("Failed to load entry schema: %v", err)
	}
	ledgerClient := ledger.NewClient(ledgerEndpoint, &http.Client{Timeout: 30 * time.Second})
	decoder := fields.NewDecoder(validator)
	resolver := timeline.NewReconciler(ledgerClient, decoder)

	// === Vault access client ===
	broker := access.NewClient(access.Config{
		VaultURL:      vaultURL,
		AggregatorURL: aggregatorURL,
	})

	// === API Server ===
	apiServer := server.NewServer(server.ConfigFromEnv(), resolver, broker, store, auditLogger, auditLogger)
	if err := apiServer.Start(); err != nil {
		log.Fatalf("Failed to start API server: %v", err)
	}
}
