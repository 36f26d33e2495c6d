package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
)

// HTTPDoer describes the HTTP client used by the JSON-RPC transport.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Credentials holds the connection settings for one backend database.
type Credentials struct {
	URL      string
	Database string
	Username string
	Password string
}

type rpcClient struct {
	creds  Credentials
	url    string
	client HTTPDoer
	logger *slog.Logger
	uid    atomic.Int64
	nextID atomic.Int64
}

// NewClient constructs a JSON-RPC backed client. A nil doer falls back to
// http.DefaultClient and a nil logger to slog.Default.
func NewClient(creds Credentials, doer HTTPDoer, logger *slog.Logger) Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &rpcClient{
		creds:  creds,
		url:    strings.TrimRight(strings.TrimSpace(creds.URL), "/") + "/jsonrpc",
		client: doer,
		logger: logger,
	}
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int64     `json:"id"`
}

type rpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type rpcError struct {
	Code    int64          `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *rpcClient) call(ctx context.Context, service, method string, args []any, out any) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  rpcParams{Service: service, Method: method, Args: args},
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return fmt.Errorf("marshal rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s.%s: %w", service, method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("call %s.%s: unexpected status %d", service, method, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read rpc response: %w", err)
	}
	var decoded rpcResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fmt.Errorf("decode rpc response: %w", err)
	}
	if decoded.Error != nil {
		detail := decoded.Error.Message
		if data, ok := decoded.Error.Data["message"].(string); ok && data != "" {
			detail = strings.TrimSpace(data)
		}
		return fmt.Errorf("rpc %s.%s failed: %s", service, method, detail)
	}
	if out != nil {
		if err := json.Unmarshal(decoded.Result, out); err != nil {
			return fmt.Errorf("decode %s.%s result: %w", service, method, err)
		}
	}
	return nil
}

func (c *rpcClient) Authenticate(ctx context.Context) (int64, error) {
	var result any
	err := c.call(ctx, "common", "authenticate",
		[]any{c.creds.Database, c.creds.Username, c.creds.Password, map[string]any{}}, &result)
	if err != nil {
		return 0, err
	}
	uid, ok := AsInt64(result)
	if !ok || uid <= 0 {
		// The backend answers false instead of a uid on bad credentials.
		return 0, fmt.Errorf("%w: database %q user %q", ErrAuthentication, c.creds.Database, c.creds.Username)
	}
	c.uid.Store(uid)
	c.logger.Debug("authenticated against odoo backend", "database", c.creds.Database, "uid", uid)
	return uid, nil
}

func (c *rpcClient) executeKw(ctx context.Context, model, method string, args []any, kwargs map[string]any, out any) error {
	uid := c.uid.Load()
	if uid == 0 {
		return fmt.Errorf("%w: %s.%s", ErrNotAuthenticated, model, method)
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	callArgs := []any{c.creds.Database, uid, c.creds.Password, model, method, args, kwargs}
	return c.call(ctx, "object", "execute_kw", callArgs, out)
}

func (c *rpcClient) SearchRead(ctx context.Context, model string, domain []any, fields []string, limit int) ([]Record, error) {
	if domain == nil {
		domain = []any{}
	}
	kwargs := map[string]any{}
	if len(fields) > 0 {
		kwargs["fields"] = fields
	}
	if limit > 0 {
		kwargs["limit"] = limit
	}
	var records []Record
	if err := c.executeKw(ctx, model, "search_read", []any{domain}, kwargs, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *rpcClient) Read(ctx context.Context, model string, ids []int64, fields []string) ([]Record, error) {
	kwargs := map[string]any{}
	if len(fields) > 0 {
		kwargs["fields"] = fields
	}
	var records []Record
	if err := c.executeKw(ctx, model, "read", []any{ids}, kwargs, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *rpcClient) NameGet(ctx context.Context, model string, ids []int64) ([]NamePair, error) {
	var raw [][2]any
	if err := c.executeKw(ctx, model, "name_get", []any{ids}, nil, &raw); err != nil {
		return nil, err
	}
	return decodeNamePairs(model, raw)
}

func (c *rpcClient) NameSearch(ctx context.Context, model, name string, limit int) ([]NamePair, error) {
	kwargs := map[string]any{}
	if limit > 0 {
		kwargs["limit"] = limit
	}
	var raw [][2]any
	if err := c.executeKw(ctx, model, "name_search", []any{name}, kwargs, &raw); err != nil {
		return nil, err
	}
	return decodeNamePairs(model, raw)
}

func (c *rpcClient) Create(ctx context.Context, model string, values Record) (int64, error) {
	var result any
	if err := c.executeKw(ctx, model, "create", []any{values}, nil, &result); err != nil {
		return 0, err
	}
	id, ok := AsInt64(result)
	if !ok {
		return 0, fmt.Errorf("create %s: unexpected result %v", model, result)
	}
	return id, nil
}

func (c *rpcClient) Write(ctx context.Context, model string, ids []int64, values Record) (bool, error) {
	var ok bool
	if err := c.executeKw(ctx, model, "write", []any{ids, values}, nil, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (c *rpcClient) Unlink(ctx context.Context, model string, ids []int64) (bool, error) {
	var ok bool
	if err := c.executeKw(ctx, model, "unlink", []any{ids}, nil, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

func decodeNamePairs(model string, raw [][2]any) ([]NamePair, error) {
	pairs := make([]NamePair, 0, len(raw))
	for _, entry := range raw {
		id, ok := AsInt64(entry[0])
		if !ok {
			return nil, fmt.Errorf("%s: unexpected name result %v", model, entry)
		}
		name, _ := entry[1].(string)
		pairs = append(pairs, NamePair{ID: id, Name: name})
	}
	return pairs, nil
}
