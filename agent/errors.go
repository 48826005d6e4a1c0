package agent

import "errors"

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrEmptyThread    = errors.New("thread id is empty")
	ErrModelInvoke    = errors.New("model invoke failed")
	ErrPromptMissing  = errors.New("required prompt is missing")
	ErrUnknownPersona = errors.New("unknown persona")
)
