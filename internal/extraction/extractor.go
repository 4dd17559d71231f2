package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Kind labels one category of extracted contact information.
type Kind string

const (
	KindPhone        Kind = "phone"
	KindEmail        Kind = "email"
	KindName         Kind = "name"
	KindInvestorType Kind = "investor_type"
	KindCompany      Kind = "company"
)

// Candidates holds the normalized contact values found in one extraction
// pass, deduplicated per kind within the pass. Repeated mentions across
// turns are intentionally re-captured; cross-pass dedup is a storage concern.
type Candidates struct {
	Phones        []string
	Emails        []string
	Names         []string
	InvestorTypes []string
	Companies     []string
}

// IsEmpty reports whether the pass found nothing.
func (c Candidates) IsEmpty() bool {
	return len(c.Phones) == 0 && len(c.Emails) == 0 && len(c.Names) == 0 &&
		len(c.InvestorTypes) == 0 && len(c.Companies) == 0
}

// ---------- package-level compiled regexes ----------

var phonePatterns = []*regexp.Regexp{
	// Israeli mobile numbers
	regexp.MustCompile(`(?:\+972|972|05|\+05)[0-9\-\s]{8,10}`),
	// landline numbers
	regexp.MustCompile(`0[0-9\-\s]{8,9}`),
	// VOIP numbers
	regexp.MustCompile(`07[0-9\-\s]{8}`),
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

const hebrewWordClass = `[\x{0590}-\x{05FF}\w\s]`

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:שמי|קוראים לי|אני)\s+(` + hebrewWordClass + `{2,25})`),
	regexp.MustCompile(`(?:מדבר|מדברת)\s+(` + hebrewWordClass + `{2,25})`),
	regexp.MustCompile(`(?:שלום|היי),?\s+(` + hebrewWordClass + `{2,25})`),
}

// investorPatterns maps bucket labels to the regex alternatives that
// classify an utterance into that bucket. A single utterance may land in
// several buckets.
var investorPatterns = map[string][]*regexp.Regexp{
	"accredited": {
		regexp.MustCompile(`(?i)משקיע מוסדי`),
		regexp.MustCompile(`(?i)כשיר`),
		regexp.MustCompile(`(?i)מנוסה`),
		regexp.MustCompile(`(?i)תיק השקעות גדול`),
		regexp.MustCompile(`(?i)ניסיון בשוק ההון`),
	},
	"high_net_worth": {
		regexp.MustCompile(`(?i)תיק השקעות של מעל`),
		regexp.MustCompile(`(?i)נכסים נזילים`),
		regexp.MustCompile(`(?i)הון עצמי`),
		regexp.MustCompile(`(?i)השקעות משמעותיות`),
	},
	"professional": {
		regexp.MustCompile(`(?i)מנהל תיקים`),
		regexp.MustCompile(`(?i)יועץ השקעות`),
		regexp.MustCompile(`(?i)ברוקר`),
		regexp.MustCompile(`(?i)סוחר מקצועי`),
	},
}

// investorBucketOrder fixes the result order; map iteration would make the
// output unstable between runs.
var investorBucketOrder = []string{"accredited", "high_net_worth", "professional"}

var companyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`חברת\s+(` + hebrewWordClass + `{2,50})`),
	regexp.MustCompile(`עובד ב(` + hebrewWordClass + `{2,50})`),
	regexp.MustCompile(`מנכ"ל\s+(` + hebrewWordClass + `{2,50})`),
}

var phoneStripper = regexp.MustCompile(`[^\d+]`)

// Extract runs every extraction rule over the text and returns the cleaned,
// per-kind deduplicated candidate sets. Pure function, no side effects.
func Extract(text string) Candidates {
	raw := Candidates{}

	for _, pattern := range phonePatterns {
		for _, match := range pattern.FindAllString(text, -1) {
			raw.Phones = append(raw.Phones, match)
		}
	}

	for _, match := range emailPattern.FindAllString(text, -1) {
		raw.Emails = append(raw.Emails, strings.ToLower(match))
	}

	for _, pattern := range namePatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			if len(match) > 1 {
				raw.Names = append(raw.Names, match[1])
			}
		}
	}

	for _, bucket := range investorBucketOrder {
		for _, pattern := range investorPatterns[bucket] {
			if pattern.MatchString(text) {
				raw.InvestorTypes = append(raw.InvestorTypes, bucket)
				break
			}
		}
	}

	for _, pattern := range companyPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			if len(match) > 1 {
				raw.Companies = append(raw.Companies, match[1])
			}
		}
	}

	return clean(raw)
}

// clean re-validates every raw match. Capture groups legitimately pick up
// trailing punctuation or sentence fragments, so each value is re-trimmed
// and re-checked against its length bounds before acceptance.
func clean(raw Candidates) Candidates {
	out := Candidates{}

	seenPhones := make(map[string]struct{})
	for _, phone := range raw.Phones {
		normalized := phoneStripper.ReplaceAllString(phone, "")
		if len(normalized) < 9 {
			continue
		}
		if _, ok := seenPhones[normalized]; ok {
			continue
		}
		seenPhones[normalized] = struct{}{}
		out.Phones = append(out.Phones, normalized)
	}

	seenEmails := make(map[string]struct{})
	for _, email := range raw.Emails {
		email = strings.ToLower(strings.TrimSpace(email))
		// The pattern already guarantees both, but cheap re-checks catch
		// regressions if the pattern ever changes.
		if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
			continue
		}
		if _, ok := seenEmails[email]; ok {
			continue
		}
		seenEmails[email] = struct{}{}
		out.Emails = append(out.Emails, email)
	}

	seenNames := make(map[string]struct{})
	for _, name := range raw.Names {
		name = strings.TrimSpace(name)
		if !withinRuneBounds(name, 2, 25) {
			continue
		}
		if _, ok := seenNames[name]; ok {
			continue
		}
		seenNames[name] = struct{}{}
		out.Names = append(out.Names, name)
	}

	seenTypes := make(map[string]struct{})
	for _, it := range raw.InvestorTypes {
		if _, ok := seenTypes[it]; ok {
			continue
		}
		seenTypes[it] = struct{}{}
		out.InvestorTypes = append(out.InvestorTypes, it)
	}

	seenCompanies := make(map[string]struct{})
	for _, company := range raw.Companies {
		company = strings.TrimSpace(company)
		if !withinRuneBounds(company, 2, 50) {
			continue
		}
		if _, ok := seenCompanies[company]; ok {
			continue
		}
		seenCompanies[company] = struct{}{}
		out.Companies = append(out.Companies, company)
	}

	return out
}

func withinRuneBounds(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}
