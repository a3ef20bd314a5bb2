package access

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrSignatureRequired is returned before any backend call when the caller
// supplies an empty signature. Signing happens in the wallet; this client
// only checks that something was produced, never verifies it.
var ErrSignatureRequired = errors.New("wallet signature is required")

// Vault backend access-session endpoints.
const (
	preparePath  = "/v1/access/prepare"
	completePath = "/v1/access/complete"
	viewPath     = "/v1/access/view"
)

// Config wires the client to the content-serving vault backend and the blob
// storage aggregator.
type Config struct {
	VaultURL      string
	AggregatorURL string
	HTTPClient    *http.Client
}

// Client runs the prepare -> sign -> complete handshake against the vault
// backend. It is a stateless orchestrator: the single-use session row lives
// on the backend and is never mutated directly from here.
type Client struct {
	vaultURL      string
	aggregatorURL string
	httpClient    *http.Client
}

func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		vaultURL:      strings.TrimRight(cfg.VaultURL, "/"),
		aggregatorURL: strings.TrimRight(cfg.AggregatorURL, "/"),
		httpClient:    hc,
	}
}

// SessionHandle is the client-side view of one prepared access session.
// The challenge must be signed by the requester's wallet over its exact
// bytes before Complete or View can run. ID is a locally minted identifier
// used to correlate audit events across the session's lifecycle; it never
// leaves this process, unlike SessionID which the backend issued.
type SessionHandle struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"sessionId"`
	RecordID         string    `json:"recordId"`
	RequesterAddress string    `json:"requesterAddress"`
	FileIndex        int       `json:"fileIndex"`
	Challenge        string    `json:"message"`
	ChallengeEncoded string    `json:"messageBase64"`
	PreparedAt       time.Time `json:"preparedAt"`
}

type prepareRequest struct {
	RecordReference  string `json:"recordReference"`
	RequesterAddress string `json:"requesterAddress"`
	FileIndex        int    `json:"fileIndex"`
}

type prepareResponse struct {
	SessionID               string `json:"sessionId"`
	ChallengeMessage        string `json:"challengeMessage"`
	ChallengeMessageEncoded string `json:"challengeMessageEncoded"`
}

type submitRequest struct {
	SessionID string `json:"sessionId"`
	Signature string `json:"signature"`
}

// Prepare opens an access session for one record file. The backend binds a
// fresh challenge to (record, requester, fileIndex) and returns it for the
// wallet to sign.
func (c *Client) Prepare(ctx context.Context, recordID, requesterAddress string, fileIndex int) (*SessionHandle, error) {
	body := prepareRequest{
		RecordReference:  recordID,
		RequesterAddress: requesterAddress,
		FileIndex:        fileIndex,
	}
	var resp prepareResponse
	if err := c.postJSON(ctx, preparePath, body, &resp); err != nil {
		return nil, err
	}
	return &SessionHandle{
		ID:               uuid.NewString(),
		SessionID:        resp.SessionID,
		RecordID:         recordID,
		RequesterAddress: requesterAddress,
		FileIndex:        fileIndex,
		Challenge:        resp.ChallengeMessage,
		ChallengeEncoded: resp.ChallengeMessageEncoded,
		PreparedAt:       time.Now().UTC(),
	}, nil
}

// Complete submits the signed challenge and returns the decrypted content
// for the caller to persist. The session is consumed on success; a second
// call with the same session fails on the backend and is never retried
// here, since a retry would break the single-use semantics.
func (c *Client) Complete(ctx context.Context, handle *SessionHandle, signature string) ([]byte, error) {
	if strings.TrimSpace(signature) == "" {
		return nil, ErrSignatureRequired
	}
	return c.postBinary(ctx, completePath, submitRequest{SessionID: handle.SessionID, Signature: signature})
}

// Content is decrypted record content with its declared MIME type, for
// inline display.
type Content struct {
	Bytes    []byte `json:"-"`
	MIMEType string `json:"mimeType"`
}

// View submits the signed challenge and returns the decrypted content for
// inline display, typed from the record's declared doc-type code.
func (c *Client) View(ctx context.Context, handle *SessionHandle, signature string, docType int) (*Content, error) {
	if strings.TrimSpace(signature) == "" {
		return nil, ErrSignatureRequired
	}
	data, err := c.postBinary(ctx, viewPath, submitRequest{SessionID: handle.SessionID, Signature: signature})
	if err != nil {
		return nil, err
	}
	return &Content{Bytes: data, MIMEType: DocTypeMIME(docType)}, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	data, err := c.postBinary(ctx, path, body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// postBinary posts a JSON body and returns the raw response bytes. Backend
// rejections (expired, consumed, verification mismatch) are surfaced
// verbatim from the response body.
func (c *Client) postBinary(ctx context.Context, path string, body interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.vaultURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vault request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = resp.Status
		}
		return nil, errors.New(msg)
	}
	return data, nil
}
