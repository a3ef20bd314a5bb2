package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"medvault/core/access"
	"medvault/core/audit"
)

// --- Pending Session Pool (in-memory, for the prepare/complete window) ---
// A prepared session lives here until completed or the process restarts.
// The vault enforces single use; losing the pool only forces a re-prepare.
var pendingSessions = map[string]*access.SessionHandle{}
var pendingSessionsLock sync.Mutex

type prepareAccessRequest struct {
	RecordID         string `json:"recordId"`
	RequesterAddress string `json:"requesterAddress"`
	FileIndex        int    `json:"fileIndex"`
}

type submitAccessRequest struct {
	SessionID string `json:"sessionId"`
	Signature string `json:"signature"`
	DocType   *int   `json:"docType,omitempty"`
}

// accessEvent builds an audit event carrying the handle's correlation ID,
// so the prepare, complete and view events of one session can be joined.
func accessEvent(eventType string, handle *access.SessionHandle, result, reason string) audit.AuditEvent {
	ev := audit.NewEvent(eventType, handle.RecordID, result, reason)
	ev.Metadata = map[string]string{
		"handleId":  handle.ID,
		"sessionId": handle.SessionID,
	}
	return ev
}

// Handler for opening an access session against the vault.
func (s *Server) PrepareAccessHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "invalid method", http.StatusMethodNotAllowed)
		return
	}
	var req prepareAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.RecordID == "" || req.RequesterAddress == "" {
		http.Error(w, "recordId and requesterAddress required", http.StatusBadRequest)
		return
	}

	handle, err := s.broker.Prepare(r.Context(), req.RecordID, req.RequesterAddress, req.FileIndex)
	if err != nil {
		s.auditLog.LogEvent(audit.NewEvent("AccessPrepare", req.RecordID, "failure", err.Error()))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	pendingSessionsLock.Lock()
	pendingSessions[handle.SessionID] = handle
	pendingSessionsLock.Unlock()

	s.auditLog.LogEvent(accessEvent("AccessPrepare", handle, "success", ""))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"sessionId":        handle.SessionID,
		"challengeMessage": handle.Challenge,
		"challengeEncoded": handle.ChallengeEncoded,
		"recordId":         handle.RecordID,
		"fileIndex":        handle.FileIndex,
	})
}

func takeSession(sessionID string) *access.SessionHandle {
	pendingSessionsLock.Lock()
	defer pendingSessionsLock.Unlock()
	handle := pendingSessions[sessionID]
	delete(pendingSessions, sessionID)
	return handle
}

func restoreSession(handle *access.SessionHandle) {
	pendingSessionsLock.Lock()
	pendingSessions[handle.SessionID] = handle
	pendingSessionsLock.Unlock()
}

// Handler for completing an access session with the wallet signature.
// Returns the decrypted record bytes, base64 encoded.
func (s *Server) CompleteAccessHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "invalid method", http.StatusMethodNotAllowed)
		return
	}
	var req submitAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	handle := takeSession(req.SessionID)
	if handle == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	content, err := s.broker.Complete(r.Context(), handle, req.Signature)
	if err != nil {
		if errors.Is(err, access.ErrSignatureRequired) {
			// the session was never spent; let the caller retry with a signature
			restoreSession(handle)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.auditLog.LogEvent(accessEvent("AccessComplete", handle, "failure", err.Error()))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	s.auditLog.LogEvent(accessEvent("AccessComplete", handle, "success", ""))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"recordId": handle.RecordID,
		"content":  base64.StdEncoding.EncodeToString(content),
	})
}

// Handler for the view variant: same handshake, but the response carries the
// MIME type derived from the record's document type so clients can preview.
func (s *Server) ViewRecordHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "invalid method", http.StatusMethodNotAllowed)
		return
	}
	var req submitAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	handle := takeSession(req.SessionID)
	if handle == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	docType := access.DocOther
	if req.DocType != nil {
		docType = *req.DocType
	}

	content, err := s.broker.View(r.Context(), handle, req.Signature, docType)
	if err != nil {
		if errors.Is(err, access.ErrSignatureRequired) {
			restoreSession(handle)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.auditLog.LogEvent(accessEvent("AccessView", handle, "failure", err.Error()))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	s.auditLog.LogEvent(accessEvent("AccessView", handle, "success", ""))
	w.Header().Set("Content-Type", content.MIMEType)
	w.Write(content.Bytes)
}

// RegisterRecordAccessAPI registers the endpoints to the mux
func RegisterRecordAccessAPI(mux *http.ServeMux, server *Server) {
	mux.Handle("/api/v1/records/access/prepare", server.authMiddleware(http.HandlerFunc(server.PrepareAccessHandler)))
	mux.Handle("/api/v1/records/access/complete", server.authMiddleware(http.HandlerFunc(server.CompleteAccessHandler)))
	mux.Handle("/api/v1/records/access/view", server.authMiddleware(http.HandlerFunc(server.ViewRecordHandler)))
}
