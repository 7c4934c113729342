package resolver

import (
	"strings"

	"reelgrab/internal/domain"
)

// Rule maps error-text substrings to a failure kind and user message.
// Rules are evaluated in order; the first match wins.
type Rule struct {
	Substrings []string
	Kind       domain.FailureKind
	Message    string
}

// Classifier turns opaque extraction-engine error text into a classified
// DownloadFailure. Substring matching against a third party's English error
// strings is best-effort, not exhaustive; unmatched errors pass through as
// Unknown with the raw text.
type Classifier struct {
	rules []Rule
}

// NewClassifier returns a classifier with the default rule table.
func NewClassifier() *Classifier {
	return &Classifier{
		rules: []Rule{
			{
				Substrings: []string{"private"},
				Kind:       domain.KindPrivate,
				Message:    domain.MsgPrivate,
			},
			{
				Substrings: []string{"not available"},
				Kind:       domain.KindPrivate,
				Message:    domain.MsgUnavailable,
			},
			{
				Substrings: []string{"login", "sign in"},
				Kind:       domain.KindRequiresAuth,
				Message:    domain.MsgRequiresLogin,
			},
		},
	}
}

// Classify maps raw engine error text to a DownloadFailure attributed to the
// given strategy.
func (c *Classifier) Classify(raw string, strategy domain.Strategy) *domain.DownloadFailure {
	lower := strings.ToLower(raw)
	for _, rule := range c.rules {
		for _, sub := range rule.Substrings {
			if strings.Contains(lower, sub) {
				return domain.NewFailure(rule.Kind, strategy, rule.Message).WithDetail(raw)
			}
		}
	}
	return domain.Failuref(domain.KindUnknown, strategy, "Erro ao baixar o vídeo: %s", raw)
}
