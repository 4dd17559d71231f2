package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/movne-global/sales-ai-platform/internal/knowledge"
)

const systemPromptTemplate = `אתה נציג שיווק השקעות מקצועי ומנוסה של מובנה גלובל, עם הבנה עמוקה במוצרים פיננסיים.

מידע על החברה:
%s

מידע על המוצרים:
%s

יתרונות מרכזיים:
%s

מידע נוסף מהמסמכים:
%s

היסטוריית השיחה האחרונה:
%s

הנחיות חשובות:
1. תן הסברים מקצועיים ומעמיקים, אבל בשפה ברורה
2. אסור לציין אחוזי תשואה או ריבית ספציפיים ללא חתימת הסכם
3. הדגש את היתרונות הייחודיים:
   - נזילות יומית עם מחיר מהמנפיק
   - העסקה ישירה מול הבנק
   - המוצר בחשבון הבנק של הלקוח
4. התאם את רמת ההסבר לשאלה
5. השתמש בדוגמאות להמחשה
6. הוסף אימוג'י אחד מתאים בסוף

ענה בצורה טבעית ומקצועית, כמו יועץ השקעות מנוסה שמסביר ללקוח.`

// recentHistoryTurns caps how many transcript lines the prompt carries.
const recentHistoryTurns = 3

// SystemPromptBuilder assembles the generative fallback's system prompt from
// static knowledge, optional document search results and recent history.
type SystemPromptBuilder struct {
	provider knowledge.Provider
	docs     knowledge.Repository
}

// NewSystemPromptBuilder creates a prompt builder. docs may be nil when no
// document repository is configured.
func NewSystemPromptBuilder(provider knowledge.Provider, docs knowledge.Repository) *SystemPromptBuilder {
	if provider == nil {
		panic("conversation: knowledge provider cannot be nil")
	}
	return &SystemPromptBuilder{provider: provider, docs: docs}
}

// Build renders the system prompt for one turn. Missing knowledge keys
// degrade to empty sections rather than errors.
func (b *SystemPromptBuilder) Build(ctx context.Context, utterance string, history []Message) string {
	var docInfo string
	if b.docs != nil {
		matches := knowledge.QueryDocuments(ctx, b.docs, "products", utterance, 3)
		docInfo = strings.Join(matches, "\n")
	}

	return fmt.Sprintf(systemPromptTemplate,
		b.provider.Get("company"),
		b.provider.Get("product"),
		b.provider.Get("advantages"),
		docInfo,
		formatHistory(history),
	)
}

// formatHistory renders the last few turns as customer/agent lines.
func formatHistory(history []Message) string {
	start := len(history) - recentHistoryTurns
	if start < 0 {
		start = 0
	}

	var lines []string
	for _, msg := range history[start:] {
		speaker := "נציג"
		if msg.Role == ChatRoleUser {
			speaker = "לקוח"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, msg.Content))
	}
	return strings.Join(lines, "\n")
}
