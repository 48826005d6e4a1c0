package persona

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/egware/erpagent/agent"
)

func TestLoadCoversAllPersonas(t *testing.T) {
	t.Parallel()

	set := Load()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	for _, p := range agent.Personas {
		prompt, err := set.Prompt(p, now)
		if err != nil {
			t.Fatalf("Prompt(%s) error = %v", p, err)
		}
		if prompt == "" {
			t.Fatalf("Prompt(%s) is empty", p)
		}
		if strings.Contains(prompt, "{{current_date}}") {
			t.Fatalf("Prompt(%s) still contains the date placeholder", p)
		}
		if !strings.Contains(prompt, "2026-03-15") {
			t.Fatalf("Prompt(%s) missing interpolated date", p)
		}
	}
}

func TestPromptUnknownPersona(t *testing.T) {
	t.Parallel()

	set := Load()
	_, err := set.Prompt(agent.Persona("ghost"), time.Now())
	if !errors.Is(err, agent.ErrPromptMissing) {
		t.Fatalf("expected ErrPromptMissing, got %v", err)
	}
}
