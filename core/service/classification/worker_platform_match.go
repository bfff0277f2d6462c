package classification

import (
	"math"

	"github.com/Vansh1811/INBoxit-sub000/core/domain"
)

const (
	// KeywordThreshold is the score a keyword match must strictly exceed.
	KeywordThreshold = 30.0

	GeneratedConfidence = 40
	FallbackConfidence  = 20

	unknownPlatformName = "Unknown"
)

// Match is the outcome of the first classification step that fired.
// Each variant carries only what its step produced.
type Match interface {
	Method() domain.DetectionMethod
	Result(normalizedDomain string) domain.ClassificationResult
	sealed()
}

// DirectMatch is an exact registry domain hit.
type DirectMatch struct {
	Platform *Platform
}

// AliasMatch is a registry alias found inside the domain.
type AliasMatch struct {
	Platform *Platform
	Alias    string
}

// KeywordMatch is the best-scoring platform by keyword overlap.
type KeywordMatch struct {
	Platform *Platform
	Matched  int
	Score    float64
}

// Generated is a display name derived from the domain itself.
type Generated struct {
	Name string
}

// Fallback is used when the domain cannot be parsed.
type Fallback struct{}

func (DirectMatch) sealed()  {}
func (AliasMatch) sealed()   {}
func (KeywordMatch) sealed() {}
func (Generated) sealed()    {}
func (Fallback) sealed()     {}

func (DirectMatch) Method() domain.DetectionMethod  { return domain.DetectionDirectMatch }
func (AliasMatch) Method() domain.DetectionMethod   { return domain.DetectionAliasMatch }
func (KeywordMatch) Method() domain.DetectionMethod { return domain.DetectionKeywordMatch }
func (Generated) Method() domain.DetectionMethod    { return domain.DetectionDomainGeneration }
func (Fallback) Method() domain.DetectionMethod     { return domain.DetectionFallback }

func (m DirectMatch) Result(d string) domain.ClassificationResult {
	return platformResult(m.Platform, d, m.Platform.Confidence, m.Method())
}

func (m AliasMatch) Result(d string) domain.ClassificationResult {
	return platformResult(m.Platform, d, m.Platform.Confidence, m.Method())
}

func (m KeywordMatch) Result(d string) domain.ClassificationResult {
	return platformResult(m.Platform, d, m.Confidence(), m.Method())
}

// Confidence rounds the score and keeps it below the platform's base confidence.
func (m KeywordMatch) Confidence() int {
	c := int(math.Round(m.Score))
	if c >= m.Platform.Confidence {
		c = m.Platform.Confidence - 1
	}
	return c
}

func (m Generated) Result(d string) domain.ClassificationResult {
	return domain.ClassificationResult{
		PlatformName:    m.Name,
		Domain:          d,
		Category:        domain.CategoryOther,
		Confidence:      GeneratedConfidence,
		DetectionMethod: m.Method(),
	}
}

func (m Fallback) Result(d string) domain.ClassificationResult {
	return domain.ClassificationResult{
		PlatformName:    unknownPlatformName,
		Domain:          d,
		Category:        domain.CategoryOther,
		Confidence:      FallbackConfidence,
		DetectionMethod: m.Method(),
	}
}

func platformResult(p *Platform, d string, confidence int, method domain.DetectionMethod) domain.ClassificationResult {
	return domain.ClassificationResult{
		PlatformName:    p.Name,
		Domain:          d,
		Category:        p.Category,
		Confidence:      confidence,
		DetectionMethod: method,
	}
}
