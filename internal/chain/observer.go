package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrUnavailable means the RPC endpoint could not answer. Absence of a
// transaction is not an error; only a failed query is.
var ErrUnavailable = errors.New("chain rpc unavailable")

// Observer answers whether any on-chain transaction references a given
// marker, using the Solana getSignaturesForAddress RPC. The payer embeds
// the session's reference key as an account in the transfer, so a single
// signature lookup against the marker is enough evidence of payment.
type Observer struct {
	rpcURL     string
	httpClient *http.Client
}

func NewObserver(rpcURL string, timeout time.Duration) *Observer {
	return &Observer{
		rpcURL:     rpcURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type rpcRequest struct {
	JsonRPC string `json:"jsonrpc"`
	Id      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result []struct {
		Signature string `json:"signature"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// FindTransactionByMarker reports whether at least one transaction
// referencing the marker has been observed on-chain.
func (o *Observer) FindTransactionByMarker(ctx context.Context, marker string) (bool, error) {
	body, err := json.Marshal(rpcRequest{
		JsonRPC: "2.0",
		Id:      1,
		Method:  "getSignaturesForAddress",
		Params:  []any{marker, map[string]any{"limit": 1}},
	})
	if err != nil {
		return false, fmt.Errorf("unable to build rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.rpcURL, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("unable to build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		zap.L().Warn("Chain RPC unreachable", zap.Error(err))
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Warn("Failed to close rpc response body", zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		zap.L().Warn("Chain RPC returned non-OK status", zap.Int("status", resp.StatusCode))
		return false, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
	}
	if payload.Error != nil {
		zap.L().Warn("Chain RPC returned error",
			zap.Int("code", payload.Error.Code),
			zap.String("message", payload.Error.Message))
		return false, fmt.Errorf("%w: rpc error %d: %s", ErrUnavailable, payload.Error.Code, payload.Error.Message)
	}

	return len(payload.Result) > 0, nil
}
