package extraction

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "IL"

// NormalizeE164 formats an extracted phone candidate to E.164 when it parses
// as a valid number for the default region. Candidates that fail validation
// return ""; the local-format value stays authoritative and this is a
// supplementary field for CRM export.
func NormalizeE164(candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsValidNumber(number) {
		return ""
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}
