package odoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kolo/xmlrpc"
	"github.com/rs/zerolog/log"
)

// Config holds connection settings for an Odoo instance.
type Config struct {
	URL      string        `envconfig:"URL" split_words:"true" required:"true"`
	Database string        `envconfig:"DATABASE" split_words:"true" required:"true"`
	Username string        `envconfig:"USERNAME" split_words:"true" required:"true"`
	Password string        `envconfig:"PASSWORD" split_words:"true" required:"true"`
	Timeout  time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

// Record is a single decoded Odoo record. Odoo encodes null values as
// boolean false and many2one fields as [id, display_name] pairs; the
// accessors below normalize both.
type Record map[string]any

func (r Record) Str(field string) string {
	if s, ok := r[field].(string); ok {
		return s
	}
	return ""
}

func (r Record) Int(field string) int64 {
	switch v := r[field].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func (r Record) Float(field string) float64 {
	switch v := r[field].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func (r Record) Bool(field string) bool {
	b, _ := r[field].(bool)
	return b
}

// Rel returns the display name of a many2one field.
func (r Record) Rel(field string) string {
	pair, ok := r[field].([]any)
	if !ok || len(pair) < 2 {
		return ""
	}
	name, _ := pair[1].(string)
	return name
}

// RelID returns the id of a many2one field, or 0 when unset.
func (r Record) RelID(field string) int64 {
	pair, ok := r[field].([]any)
	if !ok || len(pair) < 1 {
		return 0
	}
	switch id := pair[0].(type) {
	case int64:
		return id
	case int:
		return int64(id)
	case float64:
		return int64(id)
	}
	return 0
}

// IDs returns a one2many/many2many field as a slice of ids.
func (r Record) IDs(field string) []int64 {
	raw, ok := r[field].([]any)
	if !ok {
		return nil
	}
	out := make([]int64, 0, len(raw))
	for _, v := range raw {
		switch id := v.(type) {
		case int64:
			out = append(out, id)
		case int:
			out = append(out, int64(id))
		case float64:
			out = append(out, int64(id))
		}
	}
	return out
}

// Domain is an Odoo search domain: condition triplets, optionally
// interleaved with prefix operators ("|", "&", "!").
type Domain []any

// C builds a single domain condition.
func C(field, op string, value any) []any {
	return []any{field, op, value}
}

// QueryOptions carries the optional kwargs of search/search_read.
type QueryOptions struct {
	Limit  int
	Offset int
	Order  string
}

func (o *QueryOptions) kwargs() map[string]any {
	kw := map[string]any{}
	if o == nil {
		return kw
	}
	if o.Limit > 0 {
		kw["limit"] = o.Limit
	}
	if o.Offset > 0 {
		kw["offset"] = o.Offset
	}
	if o.Order != "" {
		kw["order"] = o.Order
	}
	return kw
}

// Conn is the transport contract the domain operations are built on.
type Conn interface {
	SearchRead(ctx context.Context, model string, domain Domain, fields []string, opts *QueryOptions) ([]Record, error)
	Search(ctx context.Context, model string, domain Domain, opts *QueryOptions) ([]int64, error)
	SearchCount(ctx context.Context, model string, domain Domain) (int, error)
	Read(ctx context.Context, model string, ids []int64, fields []string) ([]Record, error)
	Create(ctx context.Context, model string, values map[string]any) (int64, error)
	Write(ctx context.Context, model string, ids []int64, values map[string]any) error
	Unlink(ctx context.Context, model string, ids []int64) error
	CallMethod(ctx context.Context, model, method string, args []any) (any, error)
	ModelExists(ctx context.Context, model string) (bool, error)
}

type rpcCaller interface {
	Call(serviceMethod string, args any, reply any) error
}

// Client talks to Odoo over the external XML-RPC API. The uid obtained
// from the first authenticate call is cached for the client's lifetime.
type Client struct {
	cfg    Config
	common rpcCaller
	object rpcCaller

	mu     sync.Mutex
	uid    int64
	models map[string]bool
}

var _ Conn = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, fmt.Errorf("odoo: url is required")
	}

	transport := &http.Transport{ResponseHeaderTimeout: cfg.Timeout}

	common, err := xmlrpc.NewClient(base+"/xmlrpc/2/common", transport)
	if err != nil {
		return nil, fmt.Errorf("odoo: create common endpoint client: %w", err)
	}
	object, err := xmlrpc.NewClient(base+"/xmlrpc/2/object", transport)
	if err != nil {
		return nil, fmt.Errorf("odoo: create object endpoint client: %w", err)
	}

	return &Client{
		cfg:    cfg,
		common: common,
		object: object,
		models: map[string]bool{},
	}, nil
}

// Authenticate resolves and caches the session uid.
func (c *Client) Authenticate(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticateLocked()
}

func (c *Client) authenticateLocked() (int64, error) {
	if c.uid != 0 {
		return c.uid, nil
	}

	var raw any
	args := []any{c.cfg.Database, c.cfg.Username, c.cfg.Password, map[string]any{}}
	if err := c.common.Call("authenticate", args, &raw); err != nil {
		return 0, &ConnError{Op: "authenticate", Err: err}
	}

	uid := asInt64(raw)
	if uid == 0 {
		// Odoo answers boolean false for bad credentials.
		return 0, &ConnError{
			Op:  "authenticate",
			Err: fmt.Errorf("%w: database=%s user=%s", ErrAuthFailed, c.cfg.Database, c.cfg.Username),
		}
	}

	c.uid = uid
	log.Debug().Int64("uid", uid).Str("database", c.cfg.Database).Msg("odoo session authenticated")
	return uid, nil
}

// Execute runs execute_kw against the object endpoint.
func (c *Client) Execute(ctx context.Context, model, method string, args []any, kwargs map[string]any) (any, error) {
	uid, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}

	var out any
	call := []any{c.cfg.Database, uid, c.cfg.Password, model, method, args, kwargs}
	if err := c.object.Call("execute_kw", call, &out); err != nil {
		var fault xmlrpc.FaultError
		if errors.As(err, &fault) {
			return nil, &OpError{Model: model, Method: method, FaultCode: fault.Code, Message: fault.String}
		}
		return nil, &OpError{Model: model, Method: method, Err: err}
	}
	return out, nil
}

func (c *Client) SearchRead(ctx context.Context, model string, domain Domain, fields []string, opts *QueryOptions) ([]Record, error) {
	kwargs := opts.kwargs()
	if len(fields) > 0 {
		kwargs["fields"] = fields
	}
	out, err := c.Execute(ctx, model, "search_read", []any{domainArg(domain)}, kwargs)
	if err != nil {
		return nil, err
	}
	return asRecords(out), nil
}

func (c *Client) Search(ctx context.Context, model string, domain Domain, opts *QueryOptions) ([]int64, error) {
	out, err := c.Execute(ctx, model, "search", []any{domainArg(domain)}, opts.kwargs())
	if err != nil {
		return nil, err
	}
	raw, _ := out.([]any)
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		ids = append(ids, asInt64(v))
	}
	return ids, nil
}

func (c *Client) SearchCount(ctx context.Context, model string, domain Domain) (int, error) {
	out, err := c.Execute(ctx, model, "search_count", []any{domainArg(domain)}, nil)
	if err != nil {
		return 0, err
	}
	return int(asInt64(out)), nil
}

func (c *Client) Read(ctx context.Context, model string, ids []int64, fields []string) ([]Record, error) {
	kwargs := map[string]any{}
	if len(fields) > 0 {
		kwargs["fields"] = fields
	}
	out, err := c.Execute(ctx, model, "read", []any{ids}, kwargs)
	if err != nil {
		return nil, err
	}
	return asRecords(out), nil
}

func (c *Client) Create(ctx context.Context, model string, values map[string]any) (int64, error) {
	out, err := c.Execute(ctx, model, "create", []any{values}, nil)
	if err != nil {
		return 0, err
	}
	return asInt64(out), nil
}

func (c *Client) Write(ctx context.Context, model string, ids []int64, values map[string]any) error {
	_, err := c.Execute(ctx, model, "write", []any{ids, values}, nil)
	return err
}

func (c *Client) Unlink(ctx context.Context, model string, ids []int64) error {
	_, err := c.Execute(ctx, model, "unlink", []any{ids}, nil)
	return err
}

// CallMethod invokes an arbitrary model method, e.g. action_post.
func (c *Client) CallMethod(ctx context.Context, model, method string, args []any) (any, error) {
	return c.Execute(ctx, model, method, args, nil)
}

// ModelExists reports whether a model is installed. Results are cached
// since installed modules do not change within a session.
func (c *Client) ModelExists(ctx context.Context, model string) (bool, error) {
	c.mu.Lock()
	if exists, ok := c.models[model]; ok {
		c.mu.Unlock()
		return exists, nil
	}
	c.mu.Unlock()

	count, err := c.SearchCount(ctx, "ir.model", Domain{C("model", "=", model)})
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	c.models[model] = count > 0
	c.mu.Unlock()
	return count > 0, nil
}

// Version reports the server version info from the common endpoint.
// Works without credentials, so it doubles as a reachability probe.
func (c *Client) Version(ctx context.Context) (Record, error) {
	var raw any
	if err := c.common.Call("version", []any{}, &raw); err != nil {
		return nil, &ConnError{Op: "version", Err: err}
	}
	if m, ok := raw.(map[string]any); ok {
		return Record(m), nil
	}
	return Record{}, nil
}

// InstalledModules lists the technical names of installed addons.
func (c *Client) InstalledModules(ctx context.Context) ([]string, error) {
	records, err := c.SearchRead(ctx, "ir.module.module",
		Domain{C("state", "=", "installed")}, []string{"name"}, &QueryOptions{Order: "name asc"})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(records))
	for _, rec := range records {
		names = append(names, rec.Str("name"))
	}
	return names, nil
}

func domainArg(domain Domain) []any {
	if domain == nil {
		return []any{}
	}
	return []any(domain)
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func asRecords(v any) []Record {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	records := make([]Record, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			records = append(records, Record(m))
		}
	}
	return records
}
