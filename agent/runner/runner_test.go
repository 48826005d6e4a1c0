package runner

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/egware/erpagent/agent"
	"github.com/egware/erpagent/agent/memory"
	"github.com/egware/erpagent/agent/persona"
	"github.com/egware/erpagent/agent/tool"
	"github.com/egware/erpagent/odoo"
)

type fakeToolCallingModel struct {
	responses []*schema.Message
	err       error
	idx       int
	inputs    [][]*schema.Message
	tools     []*schema.ToolInfo
}

func (f *fakeToolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	if f.idx >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[f.idx]
	f.idx++
	return msg, nil
}

func (f *fakeToolCallingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeToolCallingModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	f.tools = tools
	return f, nil
}

func financeRegistry(t *testing.T, run func(ctx context.Context, args tool.Args) (any, error)) *tool.Registry {
	t.Helper()
	r := tool.NewRegistry()
	err := r.Register(agent.PersonaFinance, tool.Binding{
		Info: &schema.ToolInfo{Name: "get_financial_summary", Desc: "financial position"},
		Run:  run,
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return r
}

func newTestRunner(t *testing.T, fake *fakeToolCallingModel, registry *tool.Registry, store memory.Store) *Runner {
	t.Helper()
	r, err := New(context.Background(), fake, registry, store, persona.Load())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestHandleMessageInvalidInput(t *testing.T) {
	t.Parallel()

	r := newTestRunner(t, &fakeToolCallingModel{}, tool.NewRegistry(), memory.NewInMemoryStore())
	ctx := context.Background()

	if _, err := r.HandleMessage(ctx, "t1", "   "); !errors.Is(err, agent.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if _, err := r.HandleMessage(ctx, "", "hello"); !errors.Is(err, agent.ErrEmptyThread) {
		t.Fatalf("expected ErrEmptyThread, got %v", err)
	}
}

func TestHandleMessageNoToolPath(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{{Role: schema.Assistant, Content: "Hello! How can I help you today?"}},
	}
	store := memory.NewInMemoryStore()
	r := newTestRunner(t, fake, tool.NewRegistry(), store)

	reply, err := r.HandleMessage(context.Background(), "t1", "hello there")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if reply.Persona != agent.PersonaExecutive {
		t.Fatalf("persona = %s, want executive", reply.Persona)
	}
	if reply.Text != "Hello! How can I help you today?" {
		t.Fatalf("unexpected reply: %q", reply.Text)
	}
	if len(fake.inputs) != 1 {
		t.Fatalf("model called %d times, want 1", len(fake.inputs))
	}

	history, _ := store.History(context.Background(), "t1")
	if len(history) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(history))
	}
	if history[0].Role != agent.RoleUser || history[1].Role != agent.RoleAssistant {
		t.Fatalf("unexpected roles: %s, %s", history[0].Role, history[1].Role)
	}
}

func TestHandleMessageToolCallPath(t *testing.T) {
	t.Parallel()

	var gotArgs tool.Args
	registry := financeRegistry(t, func(ctx context.Context, args tool.Args) (any, error) {
		gotArgs = args
		return map[string]any{"total_receivables": 1200.50}, nil
	})

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{
				Role: schema.Assistant,
				ToolCalls: []schema.ToolCall{{
					ID: "call-1",
					Function: schema.FunctionCall{
						Name:      "get_financial_summary",
						Arguments: `{"limit": 5}`,
					},
				}},
			},
			{Role: schema.Assistant, Content: "You are owed 1200.50 in receivables."},
		},
	}
	store := memory.NewInMemoryStore()
	r := newTestRunner(t, fake, registry, store)

	reply, err := r.HandleMessage(context.Background(), "t1", "show me the financial summary")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if reply.Persona != agent.PersonaFinance {
		t.Fatalf("persona = %s, want finance", reply.Persona)
	}
	if reply.Text != "You are owed 1200.50 in receivables." {
		t.Fatalf("unexpected reply: %q", reply.Text)
	}
	if gotArgs.Int("limit") != 5 {
		t.Fatalf("tool args limit = %d, want 5", gotArgs.Int("limit"))
	}

	// First call carries the persona tools, second is the synthesis turn.
	if len(fake.inputs) != 2 {
		t.Fatalf("model called %d times, want 2", len(fake.inputs))
	}
	synthesis := fake.inputs[1]
	last := synthesis[len(synthesis)-1]
	if !strings.Contains(last.Content, "Tool results:") {
		t.Fatalf("synthesis prompt missing tool results: %q", last.Content)
	}
	if !strings.Contains(last.Content, "total_receivables") {
		t.Fatalf("synthesis prompt missing tool output: %q", last.Content)
	}
}

// fakeERPConn serves the contract fixtures through the real tool
// adapters, so the whole chain from classifier to synthesis is covered.
type fakeERPConn struct {
	records []odoo.Record
}

func (f *fakeERPConn) SearchRead(ctx context.Context, model string, domain odoo.Domain, fields []string, opts *odoo.QueryOptions) ([]odoo.Record, error) {
	return f.records, nil
}

func (f *fakeERPConn) Search(ctx context.Context, model string, domain odoo.Domain, opts *odoo.QueryOptions) ([]int64, error) {
	return nil, nil
}

func (f *fakeERPConn) SearchCount(ctx context.Context, model string, domain odoo.Domain) (int, error) {
	return len(f.records), nil
}

func (f *fakeERPConn) Read(ctx context.Context, model string, ids []int64, fields []string) ([]odoo.Record, error) {
	return f.records, nil
}

func (f *fakeERPConn) Create(ctx context.Context, model string, values map[string]any) (int64, error) {
	return 0, errors.New("create not supported in fake")
}

func (f *fakeERPConn) Write(ctx context.Context, model string, ids []int64, values map[string]any) error {
	return nil
}

func (f *fakeERPConn) Unlink(ctx context.Context, model string, ids []int64) error {
	return nil
}

func (f *fakeERPConn) CallMethod(ctx context.Context, model, method string, args []any) (any, error) {
	return nil, nil
}

func (f *fakeERPConn) ModelExists(ctx context.Context, model string) (bool, error) {
	return model == "contract.contract", nil
}

func TestHandleMessageContractsEndToEnd(t *testing.T) {
	t.Parallel()

	conn := &fakeERPConn{records: []odoo.Record{
		{"id": int64(1), "name": "Acme Hosting Agreement", "partner_id": []any{int64(7), "Acme Corp"}, "state": "open"},
		{"id": int64(2), "name": "Globex Support Plan", "partner_id": []any{int64(9), "Globex"}, "state": "open"},
	}}
	registry := tool.NewRegistry()
	for _, b := range tool.ContractBindings(odoo.NewContractOps(conn)) {
		if err := registry.Register(agent.PersonaContracts, b); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{
				Role: schema.Assistant,
				ToolCalls: []schema.ToolCall{{
					ID: "call-1",
					Function: schema.FunctionCall{
						Name:      "search_contracts",
						Arguments: `{"state": "open"}`,
					},
				}},
			},
			{Role: schema.Assistant, Content: "There are 2 active contracts: Acme Hosting Agreement and Globex Support Plan."},
		},
	}
	r := newTestRunner(t, fake, registry, memory.NewInMemoryStore())

	reply, err := r.HandleMessage(context.Background(), "t1", "List all active contracts")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if reply.Persona != agent.PersonaContracts {
		t.Fatalf("persona = %s, want contracts", reply.Persona)
	}
	if !strings.Contains(reply.Text, "2") || !strings.Contains(reply.Text, "Acme Hosting Agreement") {
		t.Fatalf("reply missing count or contract name: %q", reply.Text)
	}

	var bound []string
	for _, info := range fake.tools {
		bound = append(bound, info.Name)
	}
	if !slices.Contains(bound, "search_contracts") {
		t.Fatalf("search_contracts not bound, got %v", bound)
	}

	synthesis := fake.inputs[1]
	last := synthesis[len(synthesis)-1]
	if !strings.Contains(last.Content, "Acme Hosting Agreement") || !strings.Contains(last.Content, "Globex Support Plan") {
		t.Fatalf("synthesis prompt missing fixture contracts: %q", last.Content)
	}
}

func TestHandleMessageIsDeterministic(t *testing.T) {
	t.Parallel()

	reply := &schema.Message{Role: schema.Assistant, Content: "Finance is looking healthy this quarter."}
	fake := &fakeToolCallingModel{responses: []*schema.Message{reply, reply}}
	r := newTestRunner(t, fake, tool.NewRegistry(), memory.NewInMemoryStore())
	ctx := context.Background()

	first, err := r.HandleMessage(ctx, "t1", "how is revenue trending?")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	second, err := r.HandleMessage(ctx, "t1", "how is revenue trending?")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if first.Text != second.Text || first.Persona != second.Persona {
		t.Fatalf("replies diverged: %+v vs %+v", first, second)
	}
}

func TestHandleMessageToolErrorIsInline(t *testing.T) {
	t.Parallel()

	registry := financeRegistry(t, func(ctx context.Context, args tool.Args) (any, error) {
		return nil, errors.New("odoo unreachable")
	})

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{
				Role: schema.Assistant,
				ToolCalls: []schema.ToolCall{{
					Function: schema.FunctionCall{Name: "get_financial_summary", Arguments: `{}`},
				}},
			},
			{Role: schema.Assistant, Content: "I could not reach the ERP, please retry."},
		},
	}
	r := newTestRunner(t, fake, registry, memory.NewInMemoryStore())

	reply, err := r.HandleMessage(context.Background(), "t1", "invoice report please")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if reply.Text != "I could not reach the ERP, please retry." {
		t.Fatalf("unexpected reply: %q", reply.Text)
	}

	synthesis := fake.inputs[1]
	last := synthesis[len(synthesis)-1]
	if !strings.Contains(last.Content, "odoo unreachable") {
		t.Fatalf("synthesis prompt missing inline tool error: %q", last.Content)
	}
}

func TestHandleMessageModelFailureDegradesToApology(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{err: errors.New("quota exhausted")}
	store := memory.NewInMemoryStore()
	r := newTestRunner(t, fake, tool.NewRegistry(), store)

	reply, err := r.HandleMessage(context.Background(), "t1", "show me the invoices")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v, want degraded reply", err)
	}
	if !strings.HasPrefix(reply.Text, "Sorry, I encountered an error processing your request:") {
		t.Fatalf("unexpected apology text: %q", reply.Text)
	}
	if !strings.Contains(reply.Text, "quota exhausted") {
		t.Fatalf("apology does not mention the cause: %q", reply.Text)
	}
	if reply.Persona != agent.PersonaFinance {
		t.Fatalf("apology persona = %s, want finance", reply.Persona)
	}

	// The failed turn is still recorded.
	history, _ := store.History(context.Background(), "t1")
	if len(history) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(history))
	}
	if !strings.HasPrefix(history[1].Content, "Sorry, I encountered an error") {
		t.Fatalf("apology not persisted: %q", history[1].Content)
	}
}

func TestHandleMessageReplaysBoundedHistory(t *testing.T) {
	t.Parallel()

	store := memory.NewInMemoryStore()
	ctx := context.Background()
	for i := 0; i < memory.MaxEntries; i++ {
		role := agent.RoleUser
		if i%2 == 1 {
			role = agent.RoleAssistant
		}
		_ = store.Append(ctx, "t1", agent.Message{Role: role, Content: "old"})
	}

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{{Role: schema.Assistant, Content: "noted"}},
	}
	r := newTestRunner(t, fake, tool.NewRegistry(), store)

	if _, err := r.HandleMessage(ctx, "t1", "what can you do?"); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	// system prompt + replay window + current user message.
	want := 1 + memory.ContextWindow + 1
	if got := len(fake.inputs[0]); got != want {
		t.Fatalf("model saw %d messages, want %d", got, want)
	}
	if fake.inputs[0][0].Role != schema.System {
		t.Fatalf("first message role = %s, want system", fake.inputs[0][0].Role)
	}
}
