package tool

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/egware/erpagent/agent"
)

func binding(name string, run func(ctx context.Context, args Args) (any, error)) Binding {
	return Binding{
		Info: &schema.ToolInfo{Name: name, Desc: name},
		Run:  run,
	}
}

func okRun(ctx context.Context, args Args) (any, error) {
	return "ok", nil
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register(agent.PersonaFinance, binding("get_summary", okRun)); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	err := r.Register(agent.PersonaContracts, binding("get_summary", okRun))
	if err == nil {
		t.Fatal("expected duplicate name to be rejected")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegistryRejectsInvalidBindings(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register(agent.PersonaFinance, Binding{Info: &schema.ToolInfo{}, Run: okRun}); err == nil {
		t.Fatal("expected nameless binding to be rejected")
	}
	if err := r.Register(agent.PersonaFinance, Binding{Info: &schema.ToolInfo{Name: "x"}}); err == nil {
		t.Fatal("expected binding without Run to be rejected")
	}
}

func TestRegistryInfosPartitionByPersona(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	_ = r.Register(agent.PersonaFinance, binding("a", okRun), binding("b", okRun))
	_ = r.Register(agent.PersonaHR, binding("c", okRun))

	if got := len(r.Infos(agent.PersonaFinance)); got != 2 {
		t.Fatalf("finance tools = %d, want 2", got)
	}
	if got := len(r.Infos(agent.PersonaHR)); got != 1 {
		t.Fatalf("hr tools = %d, want 1", got)
	}
	if got := len(r.Infos(agent.PersonaExecutive)); got != 0 {
		t.Fatalf("executive tools = %d, want 0", got)
	}
	if _, ok := r.Lookup("c"); !ok {
		t.Fatal("Lookup(c) failed after registration")
	}
}

func TestExecutorReportsErrorsInline(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	_ = r.Register(agent.PersonaFinance,
		binding("works", func(ctx context.Context, args Args) (any, error) {
			return map[string]any{"total": args.Int("n")}, nil
		}),
		binding("fails", func(ctx context.Context, args Args) (any, error) {
			return nil, errors.New("backend unreachable")
		}),
	)
	exec := NewExecutor(r)
	ctx := context.Background()

	res := exec(ctx, "works", Args{"n": float64(7)})
	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if got := res.Result.(map[string]any)["total"].(int64); got != 7 {
		t.Fatalf("result total = %d, want 7", got)
	}

	res = exec(ctx, "fails", Args{})
	if res.Error != "backend unreachable" {
		t.Fatalf("error = %q, want backend unreachable", res.Error)
	}

	res = exec(ctx, "missing", Args{})
	if !strings.Contains(res.Error, `unknown tool "missing"`) {
		t.Fatalf("unknown tool error = %q", res.Error)
	}
}

func TestArgsAccessors(t *testing.T) {
	t.Parallel()

	args := Args{
		"name":  "acme",
		"limit": float64(25),
		"rate":  float64(1.5),
		"flag":  true,
	}

	if got := args.String("name"); got != "acme" {
		t.Fatalf("String = %q", got)
	}
	if got := args.Int("limit"); got != 25 {
		t.Fatalf("Int = %d", got)
	}
	if got := args.IntOr("missing", 10); got != 10 {
		t.Fatalf("IntOr default = %d", got)
	}
	if got := args.FloatOr("rate", 0); got != 1.5 {
		t.Fatalf("FloatOr = %v", got)
	}
	if !args.Bool("flag") {
		t.Fatal("Bool = false, want true")
	}

	var lines []struct {
		AccountID int64 `json:"account_id"`
	}
	nested := Args{"lines": []any{map[string]any{"account_id": float64(42)}}}
	if err := nested.Decode("lines", &lines); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(lines) != 1 || lines[0].AccountID != 42 {
		t.Fatalf("decoded lines = %+v", lines)
	}
}
