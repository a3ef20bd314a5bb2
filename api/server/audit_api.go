package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// Handler for reading the persisted audit trail of one address.
// GET /api/v1/log/address/{address}?page=0&limit=50
func (s *Server) AddressLogHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "invalid method", http.StatusMethodNotAllowed)
		return
	}
	if s.auditRdr == nil {
		http.Error(w, "audit store unavailable", http.StatusServiceUnavailable)
		return
	}
	address := strings.TrimPrefix(r.URL.Path, "/api/v1/log/address/")
	if address == "" {
		http.Error(w, "address required", http.StatusBadRequest)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := s.auditRdr.EventsByEntity(address, page, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"address": address,
		"page":    page,
		"events":  events,
	})
}

// RegisterAuditAPI registers the endpoint to the mux
func RegisterAuditAPI(mux *http.ServeMux, server *Server) {
	mux.Handle("/api/v1/log/address/", server.authMiddleware(http.HandlerFunc(server.AddressLogHandler)))
}
