package conversation

import "strings"

// Intent is a coarse classification of a customer utterance.
type Intent string

const (
	IntentReturnsInquiry   Intent = "returns_inquiry"
	IntentAgreementRequest Intent = "agreement_request"
)

// returnsKeywords mark questions about returns, interest rates or coupons.
// Return information is regulated and gated behind investor qualification.
var returnsKeywords = []string{
	"תשואה", "תשואות", "ריבית", "קופון", "רווח", "רווחים",
	"החזר", "אחוזים", "תשלום תקופתי",
}

// agreementKeywords mark requests about the marketing agreement or sign-up.
var agreementKeywords = []string{
	"הסכם", "חוזה", "התקשרות", "טופס", "רישום",
}

// IntentSet is the set of intents detected for one utterance.
type IntentSet map[Intent]bool

// Has reports whether the set contains the given intent.
func (s IntentSet) Has(intent Intent) bool {
	return s[intent]
}

// ClassifyIntents detects intents by case-insensitive substring containment.
// Multiple intents may fire for one utterance; the engine applies the fixed
// precedence returns inquiry before agreement request. Empty input yields an
// empty set.
func ClassifyIntents(text string) IntentSet {
	intents := make(IntentSet)
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return intents
	}

	for _, kw := range returnsKeywords {
		if strings.Contains(lowered, kw) {
			intents[IntentReturnsInquiry] = true
			break
		}
	}
	for _, kw := range agreementKeywords {
		if strings.Contains(lowered, kw) {
			intents[IntentAgreementRequest] = true
			break
		}
	}
	return intents
}
