package agent

import "time"

// Persona identifies which prompt/tool bundle handles a message.
type Persona string

const (
	PersonaExecutive Persona = "executive"
	PersonaContracts Persona = "contracts"
	PersonaHR        Persona = "hr"
	PersonaFinance   Persona = "finance"
)

// Personas lists every routable persona in routing-precedence order.
var Personas = []Persona{PersonaExecutive, PersonaContracts, PersonaHR, PersonaFinance}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a conversation thread.
type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Reply is the finished response for one user turn.
type Reply struct {
	ThreadID string  `json:"thread_id"`
	Persona  Persona `json:"persona"`
	Text     string  `json:"text"`
}

// ToolResult is the outcome of one executed tool call. Execution
// failures are carried inline so the synthesis turn can see them.
type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}
