// Package llm wraps the model backend behind a capability interface. The
// pipeline never reasons about prompts beyond handing over page content,
// instructions and a schema hint; everything model-specific lives here.
package llm

import (
	"context"
	"encoding/json"
)

// Request is one model invocation. Content carries the page markdown,
// Instructions the stage prompt, SchemaHint the JSON shape the stage expects
// back.
type Request struct {
	Content      string
	Instructions string
	SchemaHint   string
}

type Service interface {
	Run(ctx context.Context, req Request) (json.RawMessage, error)
}
