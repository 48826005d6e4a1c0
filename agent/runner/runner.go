// Package runner drives one conversation turn: route to a persona,
// invoke the model with that persona's tools, execute emitted tool
// calls against the ERP, and synthesize a final answer.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	"github.com/egware/erpagent/agent"
	"github.com/egware/erpagent/agent/classify"
	"github.com/egware/erpagent/agent/memory"
	"github.com/egware/erpagent/agent/persona"
	"github.com/egware/erpagent/agent/tool"
)

type Runner struct {
	base    model.ToolCallingChatModel
	bound   map[agent.Persona]model.ToolCallingChatModel
	exec    tool.Executor
	store   memory.Store
	prompts persona.Set

	graph compose.Runnable[Input, Output]

	now func() time.Time
}

func New(ctx context.Context, base model.ToolCallingChatModel, registry *tool.Registry, store memory.Store, prompts persona.Set) (*Runner, error) {
	if base == nil {
		return nil, errors.New("chat model is required")
	}
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}
	if store == nil {
		return nil, errors.New("memory store is required")
	}

	// Tool sets are immutable, so bind them per persona up front.
	bound := map[agent.Persona]model.ToolCallingChatModel{}
	for _, p := range agent.Personas {
		infos := registry.Infos(p)
		if len(infos) == 0 {
			continue
		}
		m, err := base.WithTools(infos)
		if err != nil {
			return nil, fmt.Errorf("bind tools persona=%s: %w", p, err)
		}
		bound[p] = m
	}

	r := &Runner{
		base:    base,
		bound:   bound,
		exec:    tool.NewExecutor(registry),
		store:   store,
		prompts: prompts,
		now:     time.Now,
	}

	graph, err := r.compileTurnGraph(ctx)
	if err != nil {
		return nil, err
	}
	r.graph = graph
	return r, nil
}

func (r *Runner) compileTurnGraph(ctx context.Context) (compose.Runnable[Input, Output], error) {
	graph := compose.NewGraph[Input, Output]()

	if err := graph.AddLambdaNode("validate_input",
		compose.InvokableLambda(func(ctx context.Context, in Input) (*turnState, error) {
			return r.validateInput(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_input: %w", err)
	}

	if err := graph.AddLambdaNode("route_persona",
		compose.InvokableLambda(func(ctx context.Context, st *turnState) (*turnState, error) {
			return r.routePersona(st)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node route_persona: %w", err)
	}

	if err := graph.AddLambdaNode("load_history",
		compose.InvokableLambda(func(ctx context.Context, st *turnState) (*turnState, error) {
			return r.loadHistory(ctx, st)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_history: %w", err)
	}

	if err := graph.AddLambdaNode("compose_prompt",
		compose.InvokableLambda(func(ctx context.Context, st *turnState) (*turnState, error) {
			return r.composePrompt(st)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node compose_prompt: %w", err)
	}

	if err := graph.AddLambdaNode("call_model",
		compose.InvokableLambda(func(ctx context.Context, st *turnState) (*turnState, error) {
			return r.callModel(ctx, st)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node call_model: %w", err)
	}

	if err := graph.AddLambdaNode("execute_tools",
		compose.InvokableLambda(func(ctx context.Context, st *turnState) (*turnState, error) {
			return r.executeTools(ctx, st)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node execute_tools: %w", err)
	}

	if err := graph.AddLambdaNode("synthesize",
		compose.InvokableLambda(func(ctx context.Context, st *turnState) (*turnState, error) {
			return r.synthesize(ctx, st)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node synthesize: %w", err)
	}

	if err := graph.AddLambdaNode("persist_turn",
		compose.InvokableLambda(func(ctx context.Context, st *turnState) (*turnState, error) {
			return r.persistTurn(ctx, st)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node persist_turn: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, st *turnState) (Output, error) {
			return finalizeReply(st)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_input"},
		{"validate_input", "route_persona"},
		{"route_persona", "load_history"},
		{"load_history", "compose_prompt"},
		{"compose_prompt", "call_model"},
		{"call_model", "execute_tools"},
		{"execute_tools", "synthesize"},
		{"synthesize", "persist_turn"},
		{"persist_turn", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runnable, err := graph.Compile(ctx, compose.WithGraphName("runner.handle_message"))
	if err != nil {
		return nil, fmt.Errorf("compile turn graph: %w", err)
	}
	return runnable, nil
}

// HandleMessage runs one conversation turn. Invalid input surfaces as
// an error; model and downstream failures degrade to an apology reply
// so chat surfaces stay responsive.
func (r *Runner) HandleMessage(ctx context.Context, threadID, text string) (agent.Reply, error) {
	out, err := r.graph.Invoke(ctx, Input{ThreadID: threadID, Text: text})
	if err == nil {
		return out.Reply, nil
	}
	if errors.Is(err, agent.ErrEmptyMessage) || errors.Is(err, agent.ErrEmptyThread) {
		return agent.Reply{}, err
	}

	log.Error().Err(err).Str("thread_id", threadID).Msg("turn failed, replying with apology")

	reply := agent.Reply{
		ThreadID: threadID,
		Persona:  classify.Route(text),
		Text:     apologyText(err),
	}

	now := r.now()
	if saveErr := r.store.Append(ctx, threadID,
		agent.Message{Role: agent.RoleUser, Content: text, At: now},
		agent.Message{Role: agent.RoleAssistant, Content: reply.Text, At: now},
	); saveErr != nil {
		log.Warn().Err(saveErr).Str("thread_id", threadID).Msg("failed to persist apology turn")
	}
	return reply, nil
}

func apologyText(err error) string {
	msg := err.Error()
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return "Sorry, I encountered an error processing your request: " + msg
}
