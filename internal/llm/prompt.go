package llm

import (
	"fmt"
	"strings"

	"github.com/tiktoken-go/tokenizer"

	"github.com/vetassist/vetchat/internal/domain"
)

const systemPreamble = `You are a veterinary assistant helping pet owners describe their pet's condition and giving careful, practical guidance. You are not a substitute for a veterinarian. Keep replies short and concrete. If the situation could be serious, say so and recommend seeing a vet. Never prescribe medication doses.`

// Builder assembles generation requests from session state, trimming
// history so the total context stays inside a token budget.
type Builder struct {
	codec     tokenizer.Codec
	maxTokens int
}

// NewBuilder creates a builder with the given context token budget.
// The cl100k encoding is used as a close-enough approximation of the
// provider's tokenizer for budgeting purposes.
func NewBuilder(maxTokens int) (*Builder, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	return &Builder{codec: codec, maxTokens: maxTokens}, nil
}

// Build creates a request for the next conversational reply. hint is the
// question the dialogue wants asked next; empty means no slot is missing.
func (b *Builder) Build(rec *domain.SessionRecord, message, hint string) *Request {
	sections := []string{
		"Pet profile: " + rec.Profile.Summary(),
		"\nConsultation stage: " + string(rec.Consultation.Stage),
	}
	if rec.Consultation.SymptomOnset != "" {
		sections = append(sections, "\nSymptom onset: "+rec.Consultation.SymptomOnset)
	}
	if rec.Consultation.Urgency != "" {
		sections = append(sections, "\nReported severity: "+rec.Consultation.Urgency)
	}
	if hint != "" {
		sections = append(sections, "\nAfter addressing the owner's message, ask exactly this follow-up: "+hint)
	}
	prompt := b.compose("", "\n\nOwner's message: "+message, sections)

	budget := b.maxTokens - b.countTokens(systemPreamble) - b.countTokens(prompt)

	return &Request{
		System:  systemPreamble,
		History: b.trimHistory(rec.History, budget),
		Prompt:  prompt,
	}
}

// BuildAssessment creates the one-shot assessment request emitted when
// all essential facts are gathered.
func (b *Builder) BuildAssessment(rec *domain.SessionRecord) *Request {
	sections := []string{
		"Pet profile: " + rec.Profile.Summary(),
	}
	if rec.Consultation.SymptomOnset != "" {
		sections = append(sections, "\nSymptom onset: "+rec.Consultation.SymptomOnset)
	}
	if rec.Consultation.Urgency != "" {
		sections = append(sections, "\nReported severity: "+rec.Consultation.Urgency)
	}
	prefix := "All the key facts are gathered. Give a concise assessment for this case.\n"
	core := "\nCover: likely explanations, home care that is safe to try, and the signs that mean a vet visit is needed now."
	prompt := b.compose(prefix, core, sections)

	budget := b.maxTokens - b.countTokens(systemPreamble) - b.countTokens(prompt)

	return &Request{
		System:  systemPreamble,
		History: b.trimHistory(rec.History, budget),
		Prompt:  prompt,
	}
}

// compose joins the optional context sections between prefix and core,
// dropping any section that would push the request past the token budget.
// The preamble, prefix and core always ship; history is trimmed separately
// against whatever budget is left.
func (b *Builder) compose(prefix, core string, sections []string) string {
	used := b.countTokens(systemPreamble) + b.countTokens(prefix) + b.countTokens(core)
	var sb strings.Builder
	sb.WriteString(prefix)
	for _, s := range sections {
		cost := b.countTokens(s)
		if used+cost > b.maxTokens {
			continue
		}
		used += cost
		sb.WriteString(s)
	}
	sb.WriteString(core)
	return sb.String()
}

// trimHistory keeps the most recent turns that fit the remaining budget.
func (b *Builder) trimHistory(history []domain.Turn, budget int) []Message {
	if budget <= 0 {
		return nil
	}

	var kept []Message
	used := 0
	for i := len(history) - 1; i >= 0; i-- {
		turn := history[i]
		cost := b.countTokens(turn.Text)
		if used+cost > budget {
			break
		}
		used += cost
		role := "user"
		if turn.Role == "assistant" {
			role = "model"
		}
		kept = append(kept, Message{Role: role, Text: turn.Text})
	}

	// Reverse back into chronological order.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}

func (b *Builder) countTokens(text string) int {
	ids, _, err := b.codec.Encode(text)
	if err != nil {
		// Rough fallback: ~4 characters per token.
		return len(text) / 4
	}
	return len(ids)
}

// Tokens reports the total token count of a request, for tests and
// logging.
func (b *Builder) Tokens(req *Request) int {
	total := b.countTokens(req.System) + b.countTokens(req.Prompt)
	for _, msg := range req.History {
		total += b.countTokens(msg.Text)
	}
	return total
}
