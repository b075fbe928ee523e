// Package llm is the boundary to the language-model provider: a small
// client interface, a Gemini HTTP implementation, a prompt builder that
// keeps context inside a token budget, and the deterministic fallback
// used whenever the model is unavailable.
package llm

import "context"

// Message is one turn of conversation history sent to the model.
type Message struct {
	Role string // "user" or "model"
	Text string
}

// Request is a fully built generation request.
type Request struct {
	System  string
	History []Message
	Prompt  string
}

// Client generates a reply for a request. Implementations must honor ctx
// cancellation; callers bound every Generate with a timeout.
type Client interface {
	Generate(ctx context.Context, req *Request) (string, error)
}
