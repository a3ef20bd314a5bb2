package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// decodeRequest pulls the GraphQL envelope out of an incoming mock request.
func decodeRequest(t *testing.T, r *http.Request) graphQLRequest {
	t.Helper()
	var req graphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Fatalf("invalid request body: %v", err)
	}
	return req
}

func whitelistPage(hasNext bool, endCursor string, reprs ...string) string {
	nodes := ""
	for i, repr := range reprs {
		if i > 0 {
			nodes += ","
		}
		nodes += fmt.Sprintf(`{"name":{"type":{"repr":"%s"}},"value":{"__typename":"MoveValue"}}`, repr)
	}
	return fmt.Sprintf(`{"data":{"object":{
		"address":"0xwl","version":7,"digest":"dg",
		"dynamicFields":{
			"pageInfo":{"hasNextPage":%t,"endCursor":"%s"},
			"nodes":[%s]
		}
	}}}`, hasNext, endCursor, nodes)
}

func TestGetWhitelistObjectPaginates(t *testing.T) {
	var calls int
	var afters []interface{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		req := decodeRequest(t, r)
		after := req.Variables["after"]
		afters = append(afters, after)

		w.Header().Set("Content-Type", "application/json")
		if after == nil {
			fmt.Fprint(w, whitelistPage(true, "c1", "A"))
			return
		}
		fmt.Fprint(w, whitelistPage(false, "", "B"))
	}))
	defer ts.Close()

	obj, err := NewClient(ts.URL, nil).GetWhitelistObject(context.Background(), "0xwl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 page fetches, got %d", calls)
	}
	if len(afters) != 2 || afters[0] != nil || afters[1] != "c1" {
		t.Errorf("cursor not propagated, got afters %v", afters)
	}
	if obj.Address != "0xwl" || obj.Version != 7 || obj.Digest != "dg" {
		t.Errorf("unexpected object header: %+v", obj)
	}
	if len(obj.DynamicFields) != 2 {
		t.Fatalf("expected 2 accumulated fields, got %d", len(obj.DynamicFields))
	}
	if obj.DynamicFields[0].Name.Type.Repr != "A" || obj.DynamicFields[1].Name.Type.Repr != "B" {
		t.Errorf("fields out of page order: %+v", obj.DynamicFields)
	}
}

func TestGetWhitelistObjectNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"object":null}}`)
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, nil).GetWhitelistObject(context.Background(), "0xmissing")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestQueryServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend unavailable", http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, nil).GetWhitelistObject(context.Background(), "0xwl")
	if err == nil {
		t.Fatal("expected error on 500 response, got nil")
	}
}

func TestQuerySurfacesGraphQLErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors":[{"message":"unknown field"}]}`)
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, nil).GetWhitelistObject(context.Background(), "0xwl")
	if err == nil || err.Error() != "object-graph errors: unknown field" {
		t.Errorf("expected graphql error surfaced, got %v", err)
	}
}

func TestGetObjectSnapshot(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"object":{
			"address":"0xobj","version":3,"digest":"dd",
			"type":{"repr":"0x1::records::Entry"},
			"asMoveObject":{"contents":[{"json":{"status":"final"}}]}
		}}}`)
	}))
	defer ts.Close()

	snap, err := NewClient(ts.URL, nil).GetObjectSnapshot(context.Background(), "0xobj")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.TypeRepr != "0x1::records::Entry" {
		t.Errorf("unexpected type repr: %s", snap.TypeRepr)
	}
	if string(snap.JSON) != `{"status":"final"}` {
		t.Errorf("unexpected content projection: %s", snap.JSON)
	}
}
