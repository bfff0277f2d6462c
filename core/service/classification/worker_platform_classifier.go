package classification

import (
	"strings"

	"github.com/Vansh1811/INBoxit-sub000/core/domain"
)

// =============================================================================
// Platform Classifier
// =============================================================================

// Input is what the classifier looks at for one message.
type Input struct {
	Domain  string
	From    string
	Subject string
	Snippet string
}

// PlatformClassifier resolves a sender to a platform. It holds no mutable
// state and is safe for concurrent use.
type PlatformClassifier struct {
	registry *Registry
}

// NewPlatformClassifier uses the built-in registry when r is nil.
func NewPlatformClassifier(r *Registry) *PlatformClassifier {
	if r == nil {
		r = DefaultRegistry()
	}
	return &PlatformClassifier{registry: r}
}

// Classify returns the flat result for in.
func (c *PlatformClassifier) Classify(in Input) domain.ClassificationResult {
	d, ok := NormalizeDomain(in.Domain)
	if !ok {
		return Fallback{}.Result(strings.ToLower(strings.TrimSpace(in.Domain)))
	}
	return c.match(d, in).Result(d)
}

// Match runs the steps in order and returns the first that fires.
func (c *PlatformClassifier) Match(in Input) Match {
	d, ok := NormalizeDomain(in.Domain)
	if !ok {
		return Fallback{}
	}
	return c.match(d, in)
}

func (c *PlatformClassifier) match(d string, in Input) Match {
	if p, ok := c.registry.Lookup(d); ok {
		return DirectMatch{Platform: p}
	}
	if m, ok := c.aliasMatch(d); ok {
		return m
	}
	if m, ok := c.keywordMatch(in); ok {
		return m
	}
	return Generated{Name: GenerateName(d)}
}

func (c *PlatformClassifier) aliasMatch(d string) (AliasMatch, bool) {
	for i := 0; i < c.registry.Len(); i++ {
		p := c.registry.at(i)
		for _, alias := range p.Aliases {
			if strings.Contains(d, alias) {
				return AliasMatch{Platform: p, Alias: alias}, true
			}
		}
	}
	return AliasMatch{}, false
}

func (c *PlatformClassifier) keywordMatch(in Input) (KeywordMatch, bool) {
	text := strings.ToLower(in.From + " " + in.Subject + " " + in.Snippet)
	if strings.TrimSpace(text) == "" {
		return KeywordMatch{}, false
	}

	var best KeywordMatch
	for i := 0; i < c.registry.Len(); i++ {
		p := c.registry.at(i)
		if len(p.Keywords) == 0 {
			continue
		}

		matched := 0
		for _, kw := range p.Keywords {
			if strings.Contains(text, kw) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}

		score := float64(matched) * float64(p.Confidence) / float64(len(p.Keywords))
		if score > best.Score {
			best = KeywordMatch{Platform: p, Matched: matched, Score: score}
		}
	}

	if best.Platform == nil || best.Score <= KeywordThreshold {
		return KeywordMatch{}, false
	}
	return best, true
}
