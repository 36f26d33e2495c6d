package odoo_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tally/internal/odoo"
)

type rpcCall struct {
	Service string
	Method  string
	Args    []any
}

// modelMethod returns the model-level method of an object call. Every object
// call arrives as execute_kw with the real method at args[4]; common-service
// calls keep their envelope method.
func (c rpcCall) modelMethod() string {
	if c.Service == "object" && len(c.Args) > 4 {
		if method, ok := c.Args[4].(string); ok {
			return method
		}
	}
	return c.Method
}

func newRPCServer(t *testing.T, handler func(call rpcCall) (any, *string)) (*httptest.Server, *[]rpcCall) {
	t.Helper()
	var calls []rpcCall
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jsonrpc" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Params struct {
				Service string `json:"service"`
				Method  string `json:"method"`
				Args    []any  `json:"args"`
			} `json:"params"`
			ID int64 `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		call := rpcCall{Service: req.Params.Service, Method: req.Params.Method, Args: req.Params.Args}
		calls = append(calls, call)

		result, rpcErr := handler(call)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = map[string]any{"code": 200, "message": *rpcErr}
		} else {
			resp["result"] = result
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func testCreds(url string) odoo.Credentials {
	return odoo.Credentials{URL: url, Database: "acme", Username: "bot", Password: "secret"}
}

func TestAuthenticateSuccess(t *testing.T) {
	server, calls := newRPCServer(t, func(call rpcCall) (any, *string) {
		return 7, nil
	})
	client := odoo.NewClient(testCreds(server.URL), nil, nil)

	uid, err := client.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if uid != 7 {
		t.Fatalf("expected uid 7, got %d", uid)
	}
	if len(*calls) != 1 || (*calls)[0].Service != "common" || (*calls)[0].Method != "authenticate" {
		t.Fatalf("unexpected calls: %#v", *calls)
	}
}

func TestAuthenticateRejected(t *testing.T) {
	server, _ := newRPCServer(t, func(call rpcCall) (any, *string) {
		// The backend answers false on bad credentials.
		return false, nil
	})
	client := odoo.NewClient(testCreds(server.URL), nil, nil)

	if _, err := client.Authenticate(context.Background()); !errors.Is(err, odoo.ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
}

func TestCallsRequireAuthentication(t *testing.T) {
	server, calls := newRPCServer(t, func(call rpcCall) (any, *string) {
		return nil, nil
	})
	client := odoo.NewClient(testCreds(server.URL), nil, nil)

	if _, err := client.Create(context.Background(), "project.task", odoo.Record{"name": "x"}); !errors.Is(err, odoo.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if len(*calls) != 0 {
		t.Fatalf("no RPC call must be issued before authentication, got %d", len(*calls))
	}
}

func TestExecuteKwShapes(t *testing.T) {
	server, calls := newRPCServer(t, func(call rpcCall) (any, *string) {
		switch call.modelMethod() {
		case "authenticate":
			return 7, nil
		case "search_read":
			return []map[string]any{{"id": 3, "name": "Internal"}}, nil
		case "name_search":
			return [][]any{{42, "setup"}}, nil
		case "create":
			return 99, nil
		case "unlink":
			return true, nil
		}
		return nil, nil
	})
	client := odoo.NewClient(testCreds(server.URL), nil, nil)
	ctx := context.Background()

	if _, err := client.Authenticate(ctx); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	records, err := client.SearchRead(ctx, "project.project", []any{[]any{"name", "=", "Internal"}}, []string{"id", "name"}, 10)
	if err != nil {
		t.Fatalf("SearchRead failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if id, ok := records[0].ID(); !ok || id != 3 {
		t.Fatalf("unexpected record id: %#v", records[0])
	}

	pairs, err := client.NameSearch(ctx, "project.task", "setup", 10)
	if err != nil {
		t.Fatalf("NameSearch failed: %v", err)
	}
	if len(pairs) != 1 || pairs[0].ID != 42 || pairs[0].Name != "setup" {
		t.Fatalf("unexpected name pairs: %#v", pairs)
	}

	id, err := client.Create(ctx, "account.analytic.line", odoo.Record{"name": "work"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id != 99 {
		t.Fatalf("expected created id 99, got %d", id)
	}

	ok, err := client.Unlink(ctx, "account.analytic.line", []int64{99})
	if err != nil || !ok {
		t.Fatalf("Unlink failed: ok=%v err=%v", ok, err)
	}

	// The object calls must carry db, uid, password, model, method.
	objectCall := (*calls)[1]
	if objectCall.Service != "object" || objectCall.Method != "execute_kw" {
		t.Fatalf("unexpected object call: %#v", objectCall)
	}
	if len(objectCall.Args) != 7 {
		t.Fatalf("expected 7 execute_kw args, got %d", len(objectCall.Args))
	}
	if objectCall.Args[0] != "acme" || objectCall.Args[3] != "project.project" || objectCall.Args[4] != "search_read" {
		t.Fatalf("unexpected execute_kw args: %#v", objectCall.Args)
	}
}

func TestRPCErrorSurfaces(t *testing.T) {
	message := "Object project.task doesn't exist"
	server, _ := newRPCServer(t, func(call rpcCall) (any, *string) {
		if call.Method == "authenticate" {
			return 7, nil
		}
		return nil, &message
	})
	client := odoo.NewClient(testCreds(server.URL), nil, nil)
	ctx := context.Background()
	if _, err := client.Authenticate(ctx); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if _, err := client.Read(ctx, "project.task", []int64{1}, nil); err == nil {
		t.Fatal("expected rpc error to surface")
	}
}

func TestMany2OneDecoding(t *testing.T) {
	record := odoo.Record{"project_id": []any{float64(5), "Internal"}}
	id, name, ok := record.Many2One("project_id")
	if !ok || id != 5 || name != "Internal" {
		t.Fatalf("unexpected many2one: %d %q %v", id, name, ok)
	}

	unset := odoo.Record{"project_id": false}
	if _, _, ok := unset.Many2One("project_id"); ok {
		t.Fatal("expected unset many2one to report !ok")
	}
}
