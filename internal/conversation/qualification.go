package conversation

import "strings"

// QualificationStatus tracks the qualified-investor sub-dialogue for one
// conversation. It is persisted on the conversation row and only derived
// from message history for rows written before the column existed.
type QualificationStatus string

const (
	QualificationUnasked        QualificationStatus = "unasked"
	QualificationAwaitingAnswer QualificationStatus = "awaiting_answer"
	QualificationQualified      QualificationStatus = "qualified"
	QualificationNotQualified   QualificationStatus = "not_qualified"
	// QualificationExpired marks a conversation where the question was asked
	// but the answer can no longer be located. The engine treats it like a
	// terminal state and defers to the generative fallback.
	QualificationExpired QualificationStatus = "expired"
)

// IsTerminal reports whether the sub-dialogue is finished for this
// conversation. Terminal states must never re-trigger the question.
func (s QualificationStatus) IsTerminal() bool {
	switch s {
	case QualificationQualified, QualificationNotQualified, QualificationExpired:
		return true
	}
	return false
}

// qualificationMarker identifies the scripted question in assistant messages.
var qualificationMarker = "האם אתה משקיע כשיר"

// affirmativeMarker is the keyword that qualifies the customer's answer.
const affirmativeMarker = "כן"

// Form URLs handed out by the scripted flows.
const (
	QualifiedInvestorFormURL  = "https://movne-global.streamlit.app/הצהרת_משקיע_כשיר"
	MarketingAgreementFormURL = "https://movne-global.streamlit.app/הסכם_שיווק_השקעות"
)

// qualificationQuestion quotes the regulatory qualified-investor thresholds.
// The figures are regulatory constants and must stay verbatim.
const qualificationQuestion = `לפני שנוכל לדבר על תשואות ספציפיות,
כחברה המפוקחת על ידי רשות ניירות ערך, עלי לוודא האם אתה משקיע כשיר.

האם אתה עומד באחד מהתנאים הבאים:
1. השווי הכולל של הנכסים הנזילים שבבעלותך עולה על 8,364,177 ₪
2. הכנסתך השנתית בשנתיים האחרונות עולה על 1,254,627 ₪
3. השווי הכולל של נכסיך הנזילים עולה על 5,227,610 ₪ וגם הכנסתך השנתית מעל 627,313 ₪

האם אתה עומד באחד מהתנאים הללו? 🤔`

const qualifiedResponse = `מצוין! אנא מלא את טופס הצהרת המשקיע הכשיר בקישור הבא:
` + QualifiedInvestorFormURL + `

לאחר מילוי הטופס נשמח לשלוח לך במייל את כל המידע המפורט על התשואות והמוצרים שלנו.
האם תרצה להשאיר את כתובת המייל שלך? 📧`

const notQualifiedResponse = `תודה על הכנות. אני ממליץ שנתחיל בחתימה על הסכם שיווק השקעות:
` + MarketingAgreementFormURL + `

ההסכם יעזור לנו:
• להכיר טוב יותר את הצרכים שלך
• להבין את מטרות ההשקעה שלך
• לקבוע את פרופיל הסיכון המתאים לך

לאחר מילוי ההסכם, נשמח לקבוע פגישה אישית להתאמת מוצר מושלם עבורך.

האם יש משהו נוסף שתרצה לדעת על תהליך ההתקשרות? 🤝`

// agreementResponse answers a direct agreement request outside the
// qualification flow.
const agreementResponse = `אשמח להפנות אותך להסכם השיווק שלנו:
` + MarketingAgreementFormURL + `

ההסכם כולל:
• פרטים אישיים בסיסיים
• שאלון הכרת לקוח
• הגדרת מטרות השקעה
• בחירת פרופיל סיכון

לאחר מילוי ההסכם נוכל:
1. להתאים עבורך מוצר מושלם
2. לקבוע פגישה אישית
3. לדבר על פרטים ספציפיים

האם יש משהו שתרצה לדעת על ההסכם לפני שתתחיל למלא? 📝`

// QualificationResult is the outcome of one qualification step.
type QualificationResult struct {
	// Reply is the scripted response to send. Empty when Handled is false.
	Reply string
	// Next is the status to persist for the conversation.
	Next QualificationStatus
	// Handled reports whether the sub-dialogue produced the turn's reply.
	// When false the engine falls through to the generative fallback.
	Handled bool
}

// AdvanceQualification runs one step of the qualified-investor sub-dialogue.
// It is called when the current turn carries a returns inquiry or when an
// answer to the question is pending. The utterance is the customer's current
// message; history is the persisted transcript before this turn.
func AdvanceQualification(status QualificationStatus, utterance string, history []Message) QualificationResult {
	switch status {
	case QualificationUnasked:
		return QualificationResult{
			Reply:   qualificationQuestion,
			Next:    QualificationAwaitingAnswer,
			Handled: true,
		}
	case QualificationAwaitingAnswer:
		answer, found := answerToQuestion(history, utterance)
		if !found {
			// Question asked but no answer can be located. Stop asking and
			// let the generative fallback take the turn.
			return QualificationResult{Next: QualificationExpired, Handled: false}
		}
		if strings.Contains(strings.ToLower(answer), affirmativeMarker) {
			return QualificationResult{
				Reply:   qualifiedResponse,
				Next:    QualificationQualified,
				Handled: true,
			}
		}
		return QualificationResult{
			Reply:   notQualifiedResponse,
			Next:    QualificationNotQualified,
			Handled: true,
		}
	default:
		// Terminal states never re-ask.
		return QualificationResult{Next: status, Handled: false}
	}
}

// answerToQuestion locates the customer's reply to the qualification
// question. When the question is the most recent message in history, the
// current utterance is the reply. When an older user message already follows
// the question, that message is the reply.
func answerToQuestion(history []Message, utterance string) (string, bool) {
	questionIdx := -1
	for i, msg := range history {
		if msg.Role == ChatRoleAssistant && strings.Contains(msg.Content, qualificationMarker) {
			questionIdx = i
		}
	}
	if questionIdx == -1 {
		// Status says awaiting but no question in history. Treat the current
		// utterance as the answer rather than repeating the question.
		return utterance, utterance != ""
	}
	if questionIdx == len(history)-1 {
		return utterance, utterance != ""
	}
	next := history[questionIdx+1]
	if next.Role == ChatRoleUser {
		return next.Content, true
	}
	return "", false
}

// DeriveQualificationStatus reconstructs the status from message history.
// Used for conversations persisted before the status column existed.
func DeriveQualificationStatus(history []Message) QualificationStatus {
	questionIdx := -1
	for i, msg := range history {
		if msg.Role == ChatRoleAssistant && strings.Contains(msg.Content, qualificationMarker) {
			questionIdx = i
		}
	}
	if questionIdx == -1 {
		return QualificationUnasked
	}
	if questionIdx == len(history)-1 {
		return QualificationAwaitingAnswer
	}
	next := history[questionIdx+1]
	if next.Role != ChatRoleUser {
		return QualificationExpired
	}
	if strings.Contains(strings.ToLower(next.Content), affirmativeMarker) {
		return QualificationQualified
	}
	return QualificationNotQualified
}
