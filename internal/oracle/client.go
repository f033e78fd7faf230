package oracle

import (
	"context"
	"errors"
)

var (
	ErrEmptyCompletion = errors.New("empty completion from oracle")
	ErrUnknownProvider = errors.New("unknown oracle provider")
)

// CompletionClient is the narrow contract to the external text-completion
// service: instruction and prompt in, free text or a failure out.
type CompletionClient interface {
	Complete(ctx context.Context, instruction, prompt string) (string, error)
}
