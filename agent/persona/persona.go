// Package persona holds the per-persona system prompts.
package persona

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/egware/erpagent/agent"
)

var (
	//go:embed template/executive.txt
	executiveRaw string

	//go:embed template/contracts.txt
	contractsRaw string

	//go:embed template/hr.txt
	hrRaw string

	//go:embed template/finance.txt
	financeRaw string
)

const datePlaceholder = "{{current_date}}"

// Set holds the loaded prompt templates, keyed by persona.
type Set struct {
	prompts map[agent.Persona]string
}

// Load returns the embedded prompt set. Safe to call concurrently; the
// embed is compile-time and trimming is cheap.
func Load() Set {
	return Set{prompts: map[agent.Persona]string{
		agent.PersonaExecutive: strings.TrimSpace(executiveRaw),
		agent.PersonaContracts: strings.TrimSpace(contractsRaw),
		agent.PersonaHR:        strings.TrimSpace(hrRaw),
		agent.PersonaFinance:   strings.TrimSpace(financeRaw),
	}}
}

// Prompt renders the system prompt for a persona with the current date
// interpolated.
func (s Set) Prompt(p agent.Persona, now time.Time) (string, error) {
	raw, ok := s.prompts[p]
	if !ok || raw == "" {
		return "", fmt.Errorf("%w: persona=%s", agent.ErrPromptMissing, p)
	}
	return strings.ReplaceAll(raw, datePlaceholder, now.Format("2006-01-02")), nil
}
