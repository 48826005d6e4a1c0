package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/egware/erpagent/agent"
	"github.com/egware/erpagent/agent/classify"
	"github.com/egware/erpagent/agent/memory"
	"github.com/egware/erpagent/agent/tool"
)

// Input is one user turn entering the graph.
type Input struct {
	ThreadID string
	Text     string
}

// Output leaves the graph with the finished reply.
type Output struct {
	Reply agent.Reply
}

// turnState is threaded through the graph nodes of a single turn.
type turnState struct {
	threadID string
	text     string
	now      time.Time

	persona agent.Persona
	prompt  string

	history  []agent.Message
	messages []*schema.Message
	first    *schema.Message
	results  []agent.ToolResult
	final    string
}

func (r *Runner) validateInput(in Input) (*turnState, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, agent.ErrEmptyMessage
	}
	threadID := strings.TrimSpace(in.ThreadID)
	if threadID == "" {
		return nil, agent.ErrEmptyThread
	}
	return &turnState{threadID: threadID, text: text, now: r.now()}, nil
}

func (r *Runner) routePersona(st *turnState) (*turnState, error) {
	st.persona = classify.Route(st.text)

	prompt, err := r.prompts.Prompt(st.persona, st.now)
	if err != nil {
		return nil, err
	}
	st.prompt = prompt

	log.Debug().Str("thread_id", st.threadID).Str("persona", string(st.persona)).Msg("routed message")
	return st, nil
}

func (r *Runner) loadHistory(ctx context.Context, st *turnState) (*turnState, error) {
	history, err := r.store.History(ctx, st.threadID)
	if err != nil {
		return nil, fmt.Errorf("load history thread=%s: %w", st.threadID, err)
	}
	st.history = memory.Window(history)
	return st, nil
}

func (r *Runner) composePrompt(st *turnState) (*turnState, error) {
	messages := make([]*schema.Message, 0, len(st.history)+2)
	messages = append(messages, schema.SystemMessage(st.prompt))
	for _, msg := range st.history {
		switch msg.Role {
		case agent.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(msg.Content, nil))
		default:
			messages = append(messages, schema.UserMessage(msg.Content))
		}
	}
	messages = append(messages, schema.UserMessage(st.text))
	st.messages = messages
	return st, nil
}

func (r *Runner) callModel(ctx context.Context, st *turnState) (*turnState, error) {
	m := r.base
	if bound, ok := r.bound[st.persona]; ok {
		m = bound
	}

	out, err := m.Generate(ctx, st.messages)
	if err != nil {
		return nil, fmt.Errorf("%w: persona=%s: %v", agent.ErrModelInvoke, st.persona, err)
	}
	st.first = out
	return st, nil
}

func (r *Runner) executeTools(ctx context.Context, st *turnState) (*turnState, error) {
	if len(st.first.ToolCalls) == 0 {
		st.final = ExtractTextContent(st.first.Content)
		return st, nil
	}

	for _, call := range st.first.ToolCalls {
		name := call.Function.Name

		args := tool.Args{}
		if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				st.results = append(st.results, agent.ToolResult{
					Tool:  name,
					Error: fmt.Sprintf("invalid arguments: %v", err),
				})
				continue
			}
		}

		res := r.exec(ctx, name, args)
		st.results = append(st.results, res)
		log.Debug().Str("tool", name).Bool("ok", res.Error == "").Msg("executed tool call")
	}
	return st, nil
}

// synthesize runs exactly one follow-up model turn over the tool
// results. The model is invoked without tools so the answer is text.
func (r *Runner) synthesize(ctx context.Context, st *turnState) (*turnState, error) {
	if len(st.results) == 0 {
		return st, nil
	}

	messages := append(st.messages, st.first)
	messages = append(messages, schema.UserMessage(
		"Tool results:\n"+formatToolResults(st.results)+
			"\n\nNow provide a helpful response based on these results."))

	out, err := r.base.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: synthesis persona=%s: %v", agent.ErrModelInvoke, st.persona, err)
	}
	st.final = ExtractTextContent(out.Content)
	return st, nil
}

func (r *Runner) persistTurn(ctx context.Context, st *turnState) (*turnState, error) {
	err := r.store.Append(ctx, st.threadID,
		agent.Message{Role: agent.RoleUser, Content: st.text, At: st.now},
		agent.Message{Role: agent.RoleAssistant, Content: st.final, At: r.now()},
	)
	if err != nil {
		return nil, fmt.Errorf("persist thread=%s: %w", st.threadID, err)
	}
	return st, nil
}

func finalizeReply(st *turnState) (Output, error) {
	return Output{Reply: agent.Reply{
		ThreadID: st.threadID,
		Persona:  st.persona,
		Text:     st.final,
	}}, nil
}
