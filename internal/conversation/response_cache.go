package conversation

import (
	"strings"
	"time"

	"github.com/movne-global/sales-ai-platform/internal/knowledge"
)

// greetingToken is replaced in cached templates with a wall-clock greeting.
const greetingToken = "DYNAMIC_GREETING"

// cacheEntry is one (pattern, template) pair. Patterns are matched by
// substring containment against the lowercased utterance.
type cacheEntry struct {
	pattern  string
	response string
}

// ResponseCache holds the canned sales responses as an explicit ordered
// list. The first matching entry wins, so precedence is fixed by insertion
// order and stable across runs. The table is built once at startup and read
// concurrently without locking.
type ResponseCache struct {
	entries []cacheEntry
	now     func() time.Time
}

// NewResponseCache builds the cache from the ordered sales-responses table.
// A pattern field may hold several alternatives separated by '|'; each
// alternative becomes its own entry, preserving document order.
func NewResponseCache(responses []knowledge.PatternResponse) *ResponseCache {
	c := &ResponseCache{now: time.Now}
	for _, pr := range responses {
		for _, alt := range strings.Split(pr.Pattern, "|") {
			alt = strings.ToLower(strings.TrimSpace(alt))
			if alt == "" {
				continue
			}
			c.entries = append(c.entries, cacheEntry{pattern: alt, response: pr.Response})
		}
	}
	return c
}

// Lookup returns the first matching canned response with the greeting token
// substituted. The second return is false when no pattern matches, which is
// a normal outcome, not an error.
func (c *ResponseCache) Lookup(utterance string) (string, bool) {
	lowered := strings.ToLower(strings.TrimSpace(utterance))
	if lowered == "" {
		return "", false
	}
	for _, entry := range c.entries {
		if strings.Contains(lowered, entry.pattern) {
			return strings.ReplaceAll(entry.response, greetingToken, c.greeting()), true
		}
	}
	return "", false
}

// Len returns the number of entries in the table.
func (c *ResponseCache) Len() int {
	return len(c.entries)
}

func (c *ResponseCache) greeting() string {
	hour := c.now().Hour()
	switch {
	case hour >= 5 && hour < 12:
		return "בוקר טוב"
	case hour >= 12 && hour < 17:
		return "צהריים טובים"
	case hour >= 17 && hour < 21:
		return "ערב טוב"
	default:
		return "לילה טוב"
	}
}
