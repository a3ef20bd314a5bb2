package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrObjectNotFound is returned when the queried container object does not
// exist on the ledger.
var ErrObjectNotFound = errors.New("object not found")

// Client queries the ledger's object-graph endpoint. The endpoint is
// injected so tests can point it at a mock server.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{endpoint: endpoint, httpClient: httpClient}
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// query executes one GraphQL request and unmarshals the data envelope into
// out. Transport failures and non-2xx statuses are hard errors.
func (c *Client) query(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("object-graph request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("object-graph request failed: %s: %s", resp.Status, string(msg))
	}

	var envelope graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("object-graph response invalid: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("object-graph errors: %s", envelope.Errors[0].Message)
	}
	return json.Unmarshal(envelope.Data, out)
}

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type whitelistData struct {
	Object *struct {
		Address      string `json:"address"`
		Version      uint64 `json:"version"`
		Digest       string `json:"digest"`
		AsMoveObject *struct {
			Contents json.RawMessage `json:"contents"`
		} `json:"asMoveObject"`
		DynamicFields struct {
			PageInfo pageInfo           `json:"pageInfo"`
			Nodes    []DynamicFieldNode `json:"nodes"`
		} `json:"dynamicFields"`
	} `json:"object"`
}

// GetWhitelistObject fetches a container object together with every page of
// its dynamic fields.
func (c *Client) GetWhitelistObject(ctx context.Context, id string) (*WhitelistObject, error) {
	var obj *WhitelistObject
	var cursor interface{}

	for {
		variables := map[string]interface{}{"id": id, "after": cursor}
		var data whitelistData
		if err := c.query(ctx, whitelistQuery, variables, &data); err != nil {
			return nil, err
		}
		if data.Object == nil {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
		}
		if obj == nil {
			obj = &WhitelistObject{
				Address: data.Object.Address,
				Version: data.Object.Version,
				Digest:  data.Object.Digest,
			}
			if data.Object.AsMoveObject != nil {
				obj.Contents = data.Object.AsMoveObject.Contents
			}
		}
		obj.DynamicFields = append(obj.DynamicFields, data.Object.DynamicFields.Nodes...)

		page := data.Object.DynamicFields.PageInfo
		if !page.HasNextPage || page.EndCursor == "" {
			return obj, nil
		}
		cursor = page.EndCursor
	}
}

type snapshotData struct {
	Object *struct {
		Address      string   `json:"address"`
		Version      uint64   `json:"version"`
		Digest       string   `json:"digest"`
		Type         TypeRepr `json:"type"`
		AsMoveObject *struct {
			Contents []MoveValue `json:"contents"`
		} `json:"asMoveObject"`
	} `json:"object"`
}

// GetObjectSnapshot fetches the canonical content projection of one object,
// used when enriching a provisional timeline entry.
func (c *Client) GetObjectSnapshot(ctx context.Context, id string) (*ObjectSnapshot, error) {
	var data snapshotData
	if err := c.query(ctx, objectSnapshotQuery, map[string]interface{}{"id": id}, &data); err != nil {
		return nil, err
	}
	if data.Object == nil {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	snap := &ObjectSnapshot{
		Address:  data.Object.Address,
		Version:  data.Object.Version,
		Digest:   data.Object.Digest,
		TypeRepr: data.Object.Type.Repr,
	}
	if data.Object.AsMoveObject != nil && len(data.Object.AsMoveObject.Contents) > 0 {
		snap.JSON = data.Object.AsMoveObject.Contents[0].JSON
	}
	return snap, nil
}
