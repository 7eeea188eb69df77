package signing

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HTTPRelay talks to a relay server implementing SPEC_FULL.md §6's REST
// surface: start/join, peer listing, message post, long-poll read, and
// session completion. Message bodies are opaque MPC protocol bytes and are
// base64-encoded for transport, since the relay's wire format is JSON.
type HTTPRelay struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewHTTPRelay creates a relay client against baseURL (no trailing slash
// expected; callers can include one, it is trimmed). A nil logger disables
// request/response logging.
func NewHTTPRelay(baseURL string, log *zap.Logger) *HTTPRelay {
	if log == nil {
		log = zap.NewNop()
	}
	for len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	return &HTTPRelay{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 45 * time.Second},
		log:     log,
	}
}

func (r *HTTPRelay) Start(ctx context.Context, sessionID, localPartyID string) ([]string, error) {
	var resp struct {
		Joined []string `json:"joined"`
	}
	body := map[string]string{"party_id": localPartyID}
	if err := r.do(ctx, http.MethodPost, "/start/"+sessionID, body, &resp); err != nil {
		return nil, fmt.Errorf("%w: starting session: %v", ErrRelayUnavailable, err)
	}
	return resp.Joined, nil
}

func (r *HTTPRelay) Peers(ctx context.Context, sessionID string) ([]string, error) {
	var peers []string
	if err := r.do(ctx, http.MethodGet, "/start/"+sessionID, nil, &peers); err != nil {
		return nil, fmt.Errorf("%w: listing peers: %v", ErrRelayUnavailable, err)
	}
	return peers, nil
}

func (r *HTTPRelay) PostMessage(ctx context.Context, sessionID, from, to string, msgBody []byte) error {
	req := map[string]string{
		"from": from,
		"to":   to,
		"body": base64.StdEncoding.EncodeToString(msgBody),
	}
	if err := r.do(ctx, http.MethodPost, "/message/"+sessionID, req, nil); err != nil {
		return fmt.Errorf("%w: posting message: %v", ErrRelayUnavailable, err)
	}
	return nil
}

func (r *HTTPRelay) ReadMessages(ctx context.Context, sessionID, to string) ([]RelayMessage, error) {
	var wire []struct {
		From string `json:"from"`
		Body string `json:"body"`
	}
	if err := r.do(ctx, http.MethodGet, "/message/"+sessionID+"/"+to, nil, &wire); err != nil {
		return nil, fmt.Errorf("%w: reading messages: %v", ErrRelayUnavailable, err)
	}
	out := make([]RelayMessage, 0, len(wire))
	for _, m := range wire {
		decoded, err := base64.StdEncoding.DecodeString(m.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: decoding message from %s: %v", ErrRelayUnavailable, m.From, err)
		}
		out = append(out, RelayMessage{From: m.From, Body: decoded})
	}
	return out, nil
}

func (r *HTTPRelay) Complete(ctx context.Context, sessionID string) error {
	if err := r.do(ctx, http.MethodDelete, "/start/"+sessionID, nil, nil); err != nil {
		return fmt.Errorf("%w: completing session: %v", ErrRelayUnavailable, err)
	}
	return nil
}

func (r *HTTPRelay) do(ctx context.Context, method, path string, reqBody, dst interface{}) error {
	url := r.baseURL + path

	var reader io.Reader
	if reqBody != nil {
		encoded, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	r.log.Debug("relay request", zap.String("method", method), zap.String("url", url))

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	r.log.Debug("relay response", zap.String("url", url), zap.Int("status", resp.StatusCode))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("relay returned %d: %s", resp.StatusCode, respBody)
	}
	if dst == nil || len(respBody) == 0 {
		return nil
	}
	return json.Unmarshal(respBody, dst)
}
