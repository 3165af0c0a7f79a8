package classifier

import (
	"regexp"
	"strings"
	"sync"

	"github.com/jimallen/TasksAgent-sub000/internal/domain"
)

// Rule is a single weighted matcher against one message field. A compiled
// Regex takes precedence over the literal Pattern; the literal match is a
// case-insensitive substring test.
type Rule struct {
	Field    domain.RuleField
	Pattern  string
	Regex    *regexp.Regexp
	Priority int
	Service  domain.Service
}

// NewLiteralRule builds a rule matching on a case-insensitive substring.
func NewLiteralRule(field domain.RuleField, pattern string, priority int, service domain.Service) Rule {
	return Rule{Field: field, Pattern: pattern, Priority: priority, Service: service}
}

// NewRegexRule builds a rule matching on a regular expression.
func NewRegexRule(field domain.RuleField, expr string, priority int, service domain.Service) (Rule, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Rule{}, err
	}
	return Rule{Field: field, Regex: re, Priority: priority, Service: service}, nil
}

func mustRegexRule(field domain.RuleField, expr string, priority int, service domain.Service) Rule {
	return Rule{Field: field, Regex: regexp.MustCompile(expr), Priority: priority, Service: service}
}

// Matches tests the rule against a single field value. Empty text never
// matches, so missing message fields simply contribute nothing to the score.
func (r Rule) Matches(text string) bool {
	if text == "" {
		return false
	}
	if r.Regex != nil {
		return r.Regex.MatchString(text)
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(r.Pattern))
}

// Registry holds the ordered rule list. Rules may be appended at runtime but
// never removed; reads take a snapshot so classification never observes a
// half-applied update.
type Registry struct {
	mu    sync.RWMutex
	rules []Rule
}

// NewRegistry returns a registry seeded with the built-in platform rules.
func NewRegistry() *Registry {
	return &Registry{rules: defaultRules()}
}

// NewEmptyRegistry returns a registry with no rules. Mainly for tests.
func NewEmptyRegistry() *Registry {
	return &Registry{}
}

// Add appends a custom rule; it affects all subsequent classifications.
func (reg *Registry) Add(rule Rule) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.rules = append(reg.rules, rule)
}

// Rules returns a snapshot of the current rule list in registration order.
func (reg *Registry) Rules() []Rule {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]Rule, len(reg.rules))
	copy(out, reg.rules)
	return out
}

// Len reports the number of registered rules.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rules)
}

func defaultRules() []Rule {
	return []Rule{
		// Google Meet
		mustRegexRule(domain.RuleFieldSender, `(?i)(@google\.com|@meet\.google\.com|noreply.*google|calendar-notification@google|gemini-notes@google)`, 10, domain.ServiceGoogleMeet),
		mustRegexRule(domain.RuleFieldSubject, `(?i)Recording of .* - Google Meet`, 10, domain.ServiceGoogleMeet),
		mustRegexRule(domain.RuleFieldSubject, `(?i)Notes: .*`, 9, domain.ServiceGoogleMeet),
		mustRegexRule(domain.RuleFieldSubject, `(?i)Meeting recording - .*`, 8, domain.ServiceGoogleMeet),
		mustRegexRule(domain.RuleFieldSubject, `(?i)Transcript for .* meeting`, 9, domain.ServiceGoogleMeet),
		mustRegexRule(domain.RuleFieldBody, `(?i)meet\.google\.com/[a-z]{3}-[a-z]{4}-[a-z]{3}`, 7, domain.ServiceGoogleMeet),
		mustRegexRule(domain.RuleFieldBody, `(?i)Google Meet recording`, 8, domain.ServiceGoogleMeet),
		mustRegexRule(domain.RuleFieldAttachment, `(?i)transcript.*\.(txt|pdf|docx?|vtt)`, 9, domain.ServiceGoogleMeet),

		// Zoom
		mustRegexRule(domain.RuleFieldSender, `(?i)@zoom\.us`, 10, domain.ServiceZoom),
		mustRegexRule(domain.RuleFieldSubject, `(?i)Cloud Recording - .* is now available`, 10, domain.ServiceZoom),

		// Teams
		mustRegexRule(domain.RuleFieldSender, `(?i)@microsoft\.com|@teams\.microsoft\.com`, 10, domain.ServiceTeams),
		mustRegexRule(domain.RuleFieldSubject, `(?i)Meeting Recording: .*`, 9, domain.ServiceTeams),

		// Generic meeting signals
		mustRegexRule(domain.RuleFieldSubject, `(?i)\b(meeting|call|conference|standup|sync|discussion)\b.*\b(recording|transcript|notes|summary)\b`, 5, ""),
		mustRegexRule(domain.RuleFieldBody, `(?i)\b(transcript|recording|meeting notes|action items)\b`, 3, ""),
		mustRegexRule(domain.RuleFieldAttachment, `(?i)\.(txt|pdf|docx?|vtt|srt)$`, 2, ""),
	}
}
