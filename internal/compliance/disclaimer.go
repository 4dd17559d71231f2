package compliance

import (
	"strings"
)

// defaultDisclaimerText is the fallback when legal.yaml carries no disclaimer.
const defaultDisclaimerText = "אין לראות במידע המוצג המלצה או ייעוץ להשקעה."

// financial terms whose presence in a reply requires the legal disclaimer.
var disclaimerTerms = []string{
	"תשואה", "ריבית", "רווח", "החזר",
	"השקעה", "סיכון", "הגנה", "קרן",
}

// DisclaimerConfig configures the disclaimer service.
type DisclaimerConfig struct {
	// Enabled controls whether disclaimers are added.
	Enabled bool
	// CustomText overrides the disclaimer loaded from the knowledge base.
	CustomText string
}

// DefaultDisclaimerConfig returns sensible defaults.
func DefaultDisclaimerConfig() DisclaimerConfig {
	return DisclaimerConfig{Enabled: true}
}

// DisclaimerService appends the regulatory disclaimer to replies that quote
// financial terms.
type DisclaimerService struct {
	config DisclaimerConfig
}

// NewDisclaimerService creates a new disclaimer service.
func NewDisclaimerService(config DisclaimerConfig) *DisclaimerService {
	return &DisclaimerService{config: config}
}

// GetDisclaimerText returns the disclaimer text in effect.
func (s *DisclaimerService) GetDisclaimerText() string {
	if s.config.CustomText != "" {
		return s.config.CustomText
	}
	return defaultDisclaimerText
}

// NeedsDisclaimer reports whether the reply text mentions any financial term
// that requires the disclaimer.
func (s *DisclaimerService) NeedsDisclaimer(text string) bool {
	if !s.config.Enabled {
		return false
	}
	for _, term := range disclaimerTerms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// AddDisclaimer appends the disclaimer when the reply requires one.
// A reply that already contains the disclaimer is returned unchanged, so
// repeated post-processing never duplicates it.
func (s *DisclaimerService) AddDisclaimer(message string) string {
	if !s.NeedsDisclaimer(message) {
		return message
	}

	disclaimer := s.GetDisclaimerText()
	if strings.Contains(message, disclaimer) {
		return message
	}

	return strings.TrimSpace(message) + "\n\n" + disclaimer
}
