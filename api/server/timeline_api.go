package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"medvault/core/audit"
	"medvault/core/fields"
	"medvault/core/ledger"
	"medvault/core/refhash"
	"medvault/core/storage"
	"medvault/core/timeline"
)

// Handler for resolving a patient timeline from the public ledger.
// GET /api/v1/timeline?whitelist=0x..&patient=0x..&enrich=true
//
// whitelist may carry several comma-separated container addresses; the
// resolved entries are then merged into one ordered timeline. When
// cached=true the last persisted view is served without touching the ledger.
func (s *Server) ResolveTimelineHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "invalid method", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	whitelistParam := q.Get("whitelist")
	patient := q.Get("patient")
	if whitelistParam == "" {
		http.Error(w, "whitelist parameter required", http.StatusBadRequest)
		return
	}

	opts := timeline.DefaultOptions()
	if v := q.Get("enrich"); v != "" {
		opts.Enrich, _ = strconv.ParseBool(v)
	}
	if v := q.Get("filter"); v != "" {
		opts.FilterByReference, _ = strconv.ParseBool(v)
	}
	if opts.FilterByReference && patient == "" {
		http.Error(w, "patient parameter required", http.StatusBadRequest)
		return
	}

	// The resolved options are part of the key: an unfiltered view must
	// never be served to a request that asked for the filtered one.
	cacheKey := fmt.Sprintf("%s%s:%s:filter=%t:enrich=%t",
		storage.CachePrefix, whitelistParam, patient, opts.FilterByReference, opts.Enrich)
	if ok, _ := strconv.ParseBool(q.Get("cached")); ok && s.store != nil {
		if raw, err := s.store.Get(cacheKey); err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Medvault-Cache", "hit")
			w.Write(raw)
			return
		}
	}

	entity := patient
	if entity == "" {
		entity = whitelistParam
	}

	addresses := strings.Split(whitelistParam, ",")
	for i := range addresses {
		addresses[i] = strings.TrimSpace(addresses[i])
	}
	var payload interface{}
	var err error
	if len(addresses) == 1 {
		payload, err = s.resolver.Resolve(r.Context(), addresses[0], patient, opts)
	} else {
		var entries []fields.TimelineEntry
		entries, err = s.resolver.ResolveAll(r.Context(), addresses, patient, opts)
		payload = map[string]interface{}{"entries": entries}
	}
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, refhash.ErrInvalidAddress):
			status = http.StatusBadRequest
		case errors.Is(err, ledger.ErrObjectNotFound):
			status = http.StatusNotFound
		}
		s.auditLog.LogEvent(audit.NewEvent("TimelineResolve", entity, "failure", err.Error()))
		http.Error(w, err.Error(), status)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "failed to serialize timeline", http.StatusInternalServerError)
		return
	}
	if s.store != nil {
		// cache is best effort
		_ = s.store.Put(cacheKey, body)
	}

	s.auditLog.LogEvent(audit.NewEvent("TimelineResolve", entity, "success", ""))
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// RegisterTimelineAPI registers the endpoint to the mux
func RegisterTimelineAPI(mux *http.ServeMux, server *Server) {
	mux.Handle("/api/v1/timeline", server.authMiddleware(http.HandlerFunc(server.ResolveTimelineHandler)))
}
