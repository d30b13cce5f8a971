package pmxt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mselser95/pmxt-go/pkg/types"
)

const (
	// AccessTokenHeader carries the token the server wrote to its lock file.
	AccessTokenHeader = "x-pmxt-access-token"

	// RequestIDHeader correlates client and server logs.
	RequestIDHeader = "X-Request-Id"

	maxResponseBytes = 64 << 20
	maxErrorText     = 512
)

// request is the body of every POST /api/{exchange}/{method}.
type request struct {
	Args        []any          `json:"args"`
	Credentials map[string]any `json:"credentials,omitempty"`
}

// envelope wraps every server response.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

// errorMessage extracts error as either a string or {message}.
func (env *envelope) errorMessage() string {
	if len(env.Error) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(env.Error, &s); err == nil {
		return s
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(env.Error, &obj); err == nil {
		return obj.Message
	}
	return ""
}

// call invokes a server method and decodes data into out. A nil out
// discards data.
func (e *Exchange) call(ctx context.Context, method string, args []any, out any) error {
	if args == nil {
		args = []any{}
	}
	body := &request{Args: args, Credentials: e.creds.wire()}
	return e.roundTrip(ctx, http.MethodPost, method, body, out)
}

func (e *Exchange) roundTrip(ctx context.Context, httpMethod, method string, body any, out any) error {
	start := time.Now()
	err := e.send(ctx, httpMethod, method, body, out)
	RequestDurationSeconds.WithLabelValues(method).Observe(time.Since(start).Seconds())

	if err != nil {
		RequestErrorsTotal.WithLabelValues(method).Inc()
		e.logger.Debug("request-failed",
			zap.String("method", method),
			zap.Error(err))
	}
	return err
}

func (e *Exchange) send(ctx context.Context, httpMethod, method string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &types.TransportError{Method: method, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	endpoint := fmt.Sprintf("%s/api/%s/%s", e.baseURL, e.name, method)
	req, err := http.NewRequestWithContext(ctx, httpMethod, endpoint, reader)
	if err != nil {
		return &types.TransportError{Method: method, Err: fmt.Errorf("create request: %w", err)}
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if e.accessToken != "" {
		req.Header.Set(AccessTokenHeader, e.accessToken)
	}

	e.logger.Debug("sending-request",
		zap.String("method", method),
		zap.String("request-id", requestID))

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return &types.TransportError{Method: method, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &types.TransportError{
			Method:     method,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("read response: %w", err),
		}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := ""
		if decodeErr == nil {
			msg = env.errorMessage()
		}
		if msg == "" {
			msg = errorText(raw, resp.StatusCode)
		}
		return &types.TransportError{Method: method, StatusCode: resp.StatusCode, Message: msg}
	}

	if decodeErr != nil {
		return &types.TransportError{Method: method, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}

	if !env.Success {
		msg := env.errorMessage()
		if msg == "" {
			msg = "unknown error"
		}
		return &types.TransportError{Method: method, Message: msg}
	}

	if out == nil || len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &types.TransportError{Method: method, Err: fmt.Errorf("decode %s data: %w", method, err)}
	}
	return nil
}

func errorText(raw []byte, status int) string {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return http.StatusText(status)
	}
	if len(text) > maxErrorText {
		return text[:maxErrorText] + "..."
	}
	return text
}

// Call invokes any server method by name with positional args and returns
// the raw data of the response.
func (e *Exchange) Call(ctx context.Context, method string, args ...any) (json.RawMessage, error) {
	var data json.RawMessage
	if err := e.call(ctx, method, args, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// CallAPI calls an exchange REST endpoint by its operationId through the
// server's passthrough, e.g. CallAPI(ctx, "getMarket", map[string]any{"condition_id": id}).
func (e *Exchange) CallAPI(ctx context.Context, operationID string, params map[string]any) (json.RawMessage, error) {
	var data json.RawMessage
	if err := e.call(ctx, "callApi", []any{operationID, params}, &data); err != nil {
		return nil, err
	}
	return data, nil
}
