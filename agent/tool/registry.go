// Package tool binds ERP operations to model-visible tool schemas.
package tool

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/egware/erpagent/agent"
)

// Binding pairs a tool schema with its implementation.
type Binding struct {
	Info *schema.ToolInfo
	Run  func(ctx context.Context, args Args) (any, error)
}

// Registry holds every tool, partitioned by persona. Tool names are
// globally unique; registration rejects duplicates.
type Registry struct {
	byName    map[string]Binding
	byPersona map[agent.Persona][]*schema.ToolInfo
}

func NewRegistry() *Registry {
	return &Registry{
		byName:    map[string]Binding{},
		byPersona: map[agent.Persona][]*schema.ToolInfo{},
	}
}

func (r *Registry) Register(persona agent.Persona, bindings ...Binding) error {
	for _, b := range bindings {
		if b.Info == nil || b.Info.Name == "" {
			return fmt.Errorf("tool: binding without a name for persona=%s", persona)
		}
		if b.Run == nil {
			return fmt.Errorf("tool: %s has no implementation", b.Info.Name)
		}
		if _, exists := r.byName[b.Info.Name]; exists {
			return fmt.Errorf("tool: duplicate name %q", b.Info.Name)
		}
		r.byName[b.Info.Name] = b
		r.byPersona[persona] = append(r.byPersona[persona], b.Info)
	}
	return nil
}

// Lookup resolves a tool by its globally unique name.
func (r *Registry) Lookup(name string) (Binding, bool) {
	b, ok := r.byName[name]
	return b, ok
}

// Infos returns the tool schemas bound to a persona. An empty result
// means the persona answers without tools.
func (r *Registry) Infos(persona agent.Persona) []*schema.ToolInfo {
	return r.byPersona[persona]
}

// Executor runs one tool call and reports the outcome inline; execution
// failures never abort the conversation turn.
type Executor func(ctx context.Context, name string, args Args) agent.ToolResult

func NewExecutor(r *Registry) Executor {
	return func(ctx context.Context, name string, args Args) agent.ToolResult {
		binding, ok := r.Lookup(name)
		if !ok {
			return agent.ToolResult{Tool: name, Error: fmt.Sprintf("unknown tool %q", name)}
		}

		result, err := binding.Run(ctx, args)
		if err != nil {
			log.Warn().Err(err).Str("tool", name).Msg("tool execution failed")
			return agent.ToolResult{Tool: name, Error: err.Error()}
		}
		return agent.ToolResult{Tool: name, Result: result}
	}
}
