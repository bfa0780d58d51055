package command

import "strings"

// Kind classifies a parse result.
type Kind string

const (
	// KindText dispatches the original utterance as literal typed output.
	KindText Kind = "text"
	// KindCommand dispatches a matched registry definition.
	KindCommand Kind = "command"
	// KindSystem is a pause/resume/stop control phrase for the router.
	KindSystem Kind = "system"
)

// Result is the outcome of parsing one final transcript.
type Result struct {
	Kind       Kind
	Normalized string
	// Literal holds the utterance verbatim, original casing and suffix
	// included. Only meaningful for KindText.
	Literal string
	// CommandID is set for KindCommand and KindSystem.
	CommandID string
	// Fuzzy reports that the command matched through the fuzzy stage.
	Fuzzy      bool
	FuzzyScore float64
}

// Parser resolves final transcripts in fixed precedence order: system
// phrases, then suffix-marked registry commands, then (when enabled) fuzzy
// suffix matches, then literal text. Anything that fails every command stage
// becomes literal output, never a dropped utterance.
type Parser struct {
	registry *Registry
	snippets *SnippetExpander
	fuzzy    *FuzzyMatcher
	suffix   string
}

// DefaultSuffix is the trailing marker word that flags an utterance as a
// command attempt.
const DefaultSuffix = "command"

// ParserOption configures optional parser stages.
type ParserOption func(*Parser)

// WithFuzzy enables the fuzzy suffix stage. Off by default.
func WithFuzzy(m *FuzzyMatcher) ParserOption {
	return func(p *Parser) { p.fuzzy = m }
}

// WithSnippets enables snippet expansion on literal output.
func WithSnippets(e *SnippetExpander) ParserOption {
	return func(p *Parser) { p.snippets = e }
}

// WithSuffix overrides the command marker word.
func WithSuffix(suffix string) ParserOption {
	return func(p *Parser) {
		if s := Normalize(suffix); s != "" {
			p.suffix = s
		}
	}
}

func NewParser(registry *Registry, opts ...ParserOption) *Parser {
	p := &Parser{registry: registry, suffix: DefaultSuffix}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse maps one final transcript to its dispatch decision.
func (p *Parser) Parse(text string) Result {
	normalized := Normalize(text)

	if id, ok := SpecialPhrases[normalized]; ok {
		return Result{Kind: KindSystem, Normalized: normalized, CommandID: id}
	}

	if phrase, ok := p.stripSuffix(normalized); ok {
		if def, ok := p.registry.Match(phrase); ok {
			return Result{Kind: KindCommand, Normalized: normalized, CommandID: def.ID}
		}
		if p.fuzzy != nil {
			if candidate, score, ok := p.fuzzy.Best(phrase, p.registry.EnabledPhrases()); ok {
				if def, ok := p.registry.Match(candidate); ok {
					return Result{
						Kind:       KindCommand,
						Normalized: normalized,
						CommandID:  def.ID,
						Fuzzy:      true,
						FuzzyScore: score,
					}
				}
			}
		}
	}

	literal := text
	if p.snippets != nil {
		literal = p.snippets.Expand(literal)
	}
	return Result{Kind: KindText, Normalized: normalized, Literal: literal}
}

// stripSuffix returns the phrase preceding the command marker. A bare marker
// word, or text without it, is not a command attempt.
func (p *Parser) stripSuffix(normalized string) (string, bool) {
	marker := " " + p.suffix
	if !strings.HasSuffix(normalized, marker) {
		return "", false
	}
	phrase := strings.TrimSpace(strings.TrimSuffix(normalized, marker))
	if phrase == "" {
		return "", false
	}
	return phrase, true
}
