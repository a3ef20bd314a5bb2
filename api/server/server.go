package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"medvault/core/access"
	"medvault/core/audit"
	"medvault/core/fields"
	"medvault/core/storage"
	"medvault/core/timeline"

	// Load env vars from .env for local/dev
	_ "github.com/joho/godotenv/autoload"
)

// TimelineResolver resolves patient timelines from the public ledger.
type TimelineResolver interface {
	Resolve(ctx context.Context, whitelistAddress, patientAddress string, opts timeline.Options) (*timeline.ReconciledView, error)
	ResolveAll(ctx context.Context, whitelistAddresses []string, patientAddress string, opts timeline.Options) ([]fields.TimelineEntry, error)
}

// AccessBroker runs the prepare/sign/complete handshake against the vault.
type AccessBroker interface {
	Prepare(ctx context.Context, recordID, requesterAddress string, fileIndex int) (*access.SessionHandle, error)
	Complete(ctx context.Context, handle *access.SessionHandle, signature string) ([]byte, error)
	View(ctx context.Context, handle *access.SessionHandle, signature string, docType int) (*access.Content, error)
}

// AuditReader pages through persisted audit events per entity.
type AuditReader interface {
	EventsByEntity(entityID string, page, limit int) ([]audit.AuditEvent, error)
}

// Config carries everything the gateway needs. Secrets come from the
// environment; see .env.example for variable names.
type Config struct {
	ListenAddr string
	APIKey     string // X-API-Key for service clients
	JWTSecret  string // HMAC secret for Bearer tokens
}

// ConfigFromEnv reads the gateway configuration from the environment.
func ConfigFromEnv() Config {
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	return Config{
		ListenAddr: ":" + port,
		APIKey:     os.Getenv("API_KEY"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
	}
}

type Server struct {
	config   Config
	resolver TimelineResolver
	broker   AccessBroker
	store    storage.KVBackend
	auditLog audit.AuditLogger
	auditRdr AuditReader
}

func NewServer(config Config, resolver TimelineResolver, broker AccessBroker, store storage.KVBackend, auditLog audit.AuditLogger, auditRdr AuditReader) *Server {
	if auditLog == nil {
		auditLog = audit.NewStdoutAuditLogger()
	}
	return &Server{
		config:   config,
		resolver: resolver,
		broker:   broker,
		store:    store,
		auditLog: auditLog,
		auditRdr: auditRdr,
	}
}

// Routes builds the gateway mux. Exposed for tests.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Modular health/status endpoints
	mux.HandleFunc("/nodehealth", s.HandleNodeHealth) // For CLI metrics
	mux.HandleFunc("/health/liveness", s.HandleLiveness)
	mux.HandleFunc("/health/readiness", s.HandleReadiness)
	mux.HandleFunc("/status", s.HandleStatus)

	RegisterTimelineAPI(mux, s)
	RegisterRecordAccessAPI(mux, s)
	RegisterAuditAPI(mux, s)

	return mux
}

func (s *Server) Start() error {
	mux := s.Routes()

	fmt.Println("API server listening at", s.config.ListenAddr)

	enableHTTPS := os.Getenv("ENABLE_HTTPS")
	certPath := os.Getenv("TLS_CERT_PATH")
	keyPath := os.Getenv("TLS_KEY_PATH")

	if enableHTTPS == "true" {
		fmt.Println("[HTTPS] Enabled. Using cert:", certPath, "key:", keyPath)
		return http.ListenAndServeTLS(s.config.ListenAddr, certPath, keyPath, s.countRequests(mux))
	}
	fmt.Println("[HTTPS] Disabled. Serving HTTP only!")
	return http.ListenAndServe(s.config.ListenAddr, s.countRequests(mux))
}

// --- Auth Middleware ---
// Every /api/v1 endpoint requires either a valid Bearer JWT or the service
// API key. The gateway never sees record plaintext without one of the two.

func (s *Server) requireJWT(r *http.Request) bool {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return false
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		log.Printf("[WARN] Invalid JWT: %v\n", err)
		return false
	}
	return true
}

func (s *Server) requireAPIKey(r *http.Request) bool {
	key := r.Header.Get("X-API-Key")
	return key != "" && s.config.APIKey != "" && key == s.config.APIKey
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.requireJWT(r) && !s.requireAPIKey(r) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
