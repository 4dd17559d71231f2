package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIntents(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		returns   bool
		agreement bool
	}{
		{name: "returns keyword", text: "מה התשואה על המוצר?", returns: true},
		{name: "coupon keyword", text: "יש קופון תקופתי?", returns: true},
		{name: "interest keyword", text: "כמה ריבית משלמים", returns: true},
		{name: "agreement keyword", text: "איך חותמים על הסכם?", agreement: true},
		{name: "form keyword", text: "אפשר לקבל טופס רישום", agreement: true},
		{name: "both intents", text: "רוצה לחתום על הסכם ולשמוע על תשואות", returns: true, agreement: true},
		{name: "neither", text: "ספר לי על החברה"},
		{name: "empty", text: ""},
		{name: "whitespace only", text: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intents := ClassifyIntents(tt.text)
			assert.Equal(t, tt.returns, intents.Has(IntentReturnsInquiry), "returns inquiry")
			assert.Equal(t, tt.agreement, intents.Has(IntentAgreementRequest), "agreement request")
		})
	}
}

func TestClassifyIntentsEmptySet(t *testing.T) {
	intents := ClassifyIntents("")
	assert.Empty(t, intents)
}
