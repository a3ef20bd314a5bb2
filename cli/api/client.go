package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

// BaseURL returns the gateway address the CLI talks to.
func BaseURL() string {
	if url := os.Getenv("MEDVAULT_GATEWAY_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func authHeaders(req *http.Request) {
	if key := os.Getenv("API_KEY"); key != "" {
		req.Header.Set("X-API-Key", key)
	}
	if token := os.Getenv("MEDVAULT_TOKEN"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func getJSON(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, BaseURL()+path, nil)
	if err != nil {
		return err
	}
	authHeaders(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 {
		return fmt.Errorf("Error: %s", string(body))
	}
	return json.Unmarshal(body, out)
}

func postJSON(path string, payload, out interface{}) error {
	b, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, BaseURL()+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	authHeaders(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 {
		return fmt.Errorf("Error: %s", string(body))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

type Status struct {
	Status     string `json:"status"`
	Uptime     int64  `json:"uptime_seconds"`
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
}

func (s Status) ToJSON() string {
	b, _ := json.MarshalIndent(s, "", "  ")
	return string(b)
}

func GetStatus() (Status, error) {
	var status Status
	if err := getJSON("/status", &status); err != nil {
		return Status{}, err
	}
	return status, nil
}

// TimelineEntry is the CLI-side projection of one resolved timeline entry.
type TimelineEntry struct {
	ID            string `json:"id"`
	EntryTypeName string `json:"entryTypeName"`
	VisitDate     string `json:"visitDate"`
	Status        string `json:"status"`
	TimestampMs   uint64 `json:"timestampMs"`
	BlobID        string `json:"blobId"`
}

type TimelineView struct {
	Entries   []TimelineEntry `json:"entries"`
	FetchedAt string          `json:"fetchedAt"`
}

// GetTimeline resolves a patient timeline through the gateway.
func GetTimeline(whitelist, patient string, enrich bool) (TimelineView, error) {
	var view TimelineView
	path := fmt.Sprintf("/api/v1/timeline?whitelist=%s&patient=%s&enrich=%v", whitelist, patient, enrich)
	if err := getJSON(path, &view); err != nil {
		return TimelineView{}, err
	}
	return view, nil
}

type PreparedSession struct {
	SessionID        string `json:"sessionId"`
	ChallengeMessage string `json:"challengeMessage"`
	ChallengeEncoded string `json:"challengeEncoded"`
	RecordID         string `json:"recordId"`
}

// PrepareAccess opens an access session and returns the challenge to sign.
func PrepareAccess(recordID, requester string, fileIndex int) (PreparedSession, error) {
	var prep PreparedSession
	payload := map[string]interface{}{
		"recordId":         recordID,
		"requesterAddress": requester,
		"fileIndex":        fileIndex,
	}
	if err := postJSON("/api/v1/records/access/prepare", payload, &prep); err != nil {
		return PreparedSession{}, err
	}
	return prep, nil
}

type CompletedAccess struct {
	RecordID string `json:"recordId"`
	Content  string `json:"content"` // base64
}

// CompleteAccess submits the wallet signature and returns the record bytes.
func CompleteAccess(sessionID, signature string) (CompletedAccess, error) {
	var done CompletedAccess
	payload := map[string]string{"sessionId": sessionID, "signature": signature}
	if err := postJSON("/api/v1/records/access/complete", payload, &done); err != nil {
		return CompletedAccess{}, err
	}
	return done, nil
}

type AddressLog struct {
	Address string `json:"address"`
	Page    int    `json:"page"`
	Events  []struct {
		Timestamp string `json:"timestamp"`
		EventType string `json:"eventType"`
		Result    string `json:"result"`
		Reason    string `json:"reason"`
	} `json:"events"`
}

// GetAddressLog pages through the audit trail of one address.
func GetAddressLog(address string, page, limit int) (AddressLog, error) {
	var log AddressLog
	path := fmt.Sprintf("/api/v1/log/address/%s?page=%d&limit=%d", address, page, limit)
	if err := getJSON(path, &log); err != nil {
		return AddressLog{}, err
	}
	return log, nil
}
