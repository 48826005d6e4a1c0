package odoo

import (
	"context"
	"errors"
	"testing"

	"github.com/kolo/xmlrpc"
)

type rpcCall struct {
	method string
	args   any
}

type fakeRPC struct {
	calls   []rpcCall
	handler func(method string, args any) (any, error)
}

func (f *fakeRPC) Call(method string, args any, reply any) error {
	f.calls = append(f.calls, rpcCall{method: method, args: args})
	out, err := f.handler(method, args)
	if err != nil {
		return err
	}
	*(reply.(*any)) = out
	return nil
}

func testClient(common, object *fakeRPC) *Client {
	return &Client{
		cfg:    Config{URL: "http://odoo:8069", Database: "erp", Username: "admin", Password: "secret"},
		common: common,
		object: object,
		models: map[string]bool{},
	}
}

func TestAuthenticateCachesUID(t *testing.T) {
	t.Parallel()

	common := &fakeRPC{handler: func(method string, args any) (any, error) {
		return int64(7), nil
	}}
	c := testClient(common, &fakeRPC{})
	ctx := context.Background()

	uid, err := c.Authenticate(ctx)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if uid != 7 {
		t.Fatalf("uid = %d, want 7", uid)
	}

	if _, err := c.Authenticate(ctx); err != nil {
		t.Fatalf("second Authenticate() error = %v", err)
	}
	if len(common.calls) != 1 {
		t.Fatalf("authenticate called %d times, want 1", len(common.calls))
	}
}

func TestAuthenticateBadCredentials(t *testing.T) {
	t.Parallel()

	// Odoo answers boolean false instead of a uid.
	common := &fakeRPC{handler: func(method string, args any) (any, error) {
		return false, nil
	}}
	c := testClient(common, &fakeRPC{})

	_, err := c.Authenticate(context.Background())
	if !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
	var connErr *ConnError
	if !errors.As(err, &connErr) || connErr.Op != "authenticate" {
		t.Fatalf("expected *ConnError for op authenticate, got %v", err)
	}
}

func TestExecuteWrapsFaults(t *testing.T) {
	t.Parallel()

	common := &fakeRPC{handler: func(method string, args any) (any, error) {
		return int64(2), nil
	}}
	object := &fakeRPC{handler: func(method string, args any) (any, error) {
		return nil, xmlrpc.FaultError{Code: 3, String: "Access Denied"}
	}}
	c := testClient(common, object)

	_, err := c.Execute(context.Background(), "res.partner", "search_read", nil, nil)
	var opErr *OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected *OpError, got %v", err)
	}
	if opErr.Model != "res.partner" || opErr.Method != "search_read" {
		t.Fatalf("unexpected op: %s.%s", opErr.Model, opErr.Method)
	}
	if opErr.FaultCode != 3 || opErr.Message != "Access Denied" {
		t.Fatalf("fault not carried: %+v", opErr)
	}
}

func TestExecuteCallShape(t *testing.T) {
	t.Parallel()

	common := &fakeRPC{handler: func(method string, args any) (any, error) {
		return int64(2), nil
	}}
	object := &fakeRPC{handler: func(method string, args any) (any, error) {
		return []any{}, nil
	}}
	c := testClient(common, object)

	if _, err := c.SearchRead(context.Background(), "res.partner", Domain{C("name", "ilike", "acme")}, []string{"name"}, &QueryOptions{Limit: 5}); err != nil {
		t.Fatalf("SearchRead() error = %v", err)
	}

	call := object.calls[0]
	if call.method != "execute_kw" {
		t.Fatalf("method = %s, want execute_kw", call.method)
	}
	params := call.args.([]any)
	if len(params) != 7 {
		t.Fatalf("execute_kw params = %d, want 7", len(params))
	}
	if params[0] != "erp" || params[1] != int64(2) || params[2] != "secret" {
		t.Fatalf("unexpected session triplet: %v", params[:3])
	}
	if params[3] != "res.partner" || params[4] != "search_read" {
		t.Fatalf("unexpected target: %v %v", params[3], params[4])
	}
	kwargs := params[6].(map[string]any)
	if kwargs["limit"] != 5 {
		t.Fatalf("limit kwarg = %v, want 5", kwargs["limit"])
	}
}

func TestSearchReadDecodesRecords(t *testing.T) {
	t.Parallel()

	common := &fakeRPC{handler: func(method string, args any) (any, error) {
		return int64(2), nil
	}}
	object := &fakeRPC{handler: func(method string, args any) (any, error) {
		return []any{
			map[string]any{
				"id":         int64(11),
				"name":       "INV/001",
				"partner_id": []any{int64(4), "Acme Corp"},
				"email":      false,
			},
		}, nil
	}}
	c := testClient(common, object)

	records, err := c.SearchRead(context.Background(), "account.move", nil, nil, nil)
	if err != nil {
		t.Fatalf("SearchRead() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}

	rec := records[0]
	if rec.Int("id") != 11 {
		t.Fatalf("id = %d", rec.Int("id"))
	}
	if rec.Rel("partner_id") != "Acme Corp" || rec.RelID("partner_id") != 4 {
		t.Fatalf("many2one not decoded: %v", rec["partner_id"])
	}
	// Odoo nulls are boolean false.
	if rec.Str("email") != "" {
		t.Fatalf("null field Str = %q, want empty", rec.Str("email"))
	}
}

func TestVersionWrapsTransportErrors(t *testing.T) {
	t.Parallel()

	common := &fakeRPC{handler: func(method string, args any) (any, error) {
		return nil, errors.New("connection refused")
	}}
	c := testClient(common, &fakeRPC{})

	_, err := c.Version(context.Background())
	var connErr *ConnError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected *ConnError, got %v", err)
	}
	if connErr.Op != "version" {
		t.Fatalf("op = %s", connErr.Op)
	}
}

func TestInstalledModules(t *testing.T) {
	t.Parallel()

	common := &fakeRPC{handler: func(method string, args any) (any, error) {
		return int64(2), nil
	}}
	object := &fakeRPC{handler: func(method string, args any) (any, error) {
		return []any{
			map[string]any{"name": "account"},
			map[string]any{"name": "hr"},
		}, nil
	}}
	c := testClient(common, object)

	modules, err := c.InstalledModules(context.Background())
	if err != nil {
		t.Fatalf("InstalledModules() error = %v", err)
	}
	if len(modules) != 2 || modules[0] != "account" || modules[1] != "hr" {
		t.Fatalf("modules = %v", modules)
	}
}

func TestModelExistsCachesResult(t *testing.T) {
	t.Parallel()

	common := &fakeRPC{handler: func(method string, args any) (any, error) {
		return int64(2), nil
	}}
	object := &fakeRPC{handler: func(method string, args any) (any, error) {
		return int64(1), nil
	}}
	c := testClient(common, object)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		exists, err := c.ModelExists(ctx, "contract.contract")
		if err != nil {
			t.Fatalf("ModelExists() error = %v", err)
		}
		if !exists {
			t.Fatal("ModelExists() = false, want true")
		}
	}
	if len(object.calls) != 1 {
		t.Fatalf("search_count called %d times, want 1", len(object.calls))
	}
}
