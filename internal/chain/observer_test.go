package chain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func rpcServer(t *testing.T, wantMarker string, response string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode rpc request: %v", err)
		}
		if req.Method != "getSignaturesForAddress" {
			t.Errorf("Expected getSignaturesForAddress, got %s", req.Method)
		}
		if len(req.Params) == 0 || req.Params[0] != wantMarker {
			t.Errorf("Expected marker %q as first param, got %v", wantMarker, req.Params)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))
}

func TestFindTransactionByMarker_Found(t *testing.T) {
	server := rpcServer(t, "marker-1", `{"jsonrpc":"2.0","id":1,"result":[{"signature":"5xAbc"}]}`)
	defer server.Close()

	found, err := NewObserver(server.URL, 2*time.Second).FindTransactionByMarker(context.Background(), "marker-1")
	if err != nil {
		t.Fatalf("FindTransactionByMarker failed: %v", err)
	}
	if !found {
		t.Error("Expected transaction to be found")
	}
}

func TestFindTransactionByMarker_NotFound(t *testing.T) {
	server := rpcServer(t, "marker-1", `{"jsonrpc":"2.0","id":1,"result":[]}`)
	defer server.Close()

	found, err := NewObserver(server.URL, 2*time.Second).FindTransactionByMarker(context.Background(), "marker-1")
	if err != nil {
		t.Fatalf("FindTransactionByMarker failed: %v", err)
	}
	if found {
		t.Error("Expected no transaction; absence of evidence is not an error")
	}
}

func TestFindTransactionByMarker_RPCError(t *testing.T) {
	server := rpcServer(t, "marker-1", `{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"Invalid param"}}`)
	defer server.Close()

	_, err := NewObserver(server.URL, 2*time.Second).FindTransactionByMarker(context.Background(), "marker-1")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Expected ErrUnavailable, got %v", err)
	}
}

func TestFindTransactionByMarker_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := NewObserver(server.URL, 2*time.Second).FindTransactionByMarker(context.Background(), "marker-1")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Expected ErrUnavailable, got %v", err)
	}
}
