// Package filter turns classifier output plus configurable criteria into a
// pass/fail decision per message.
package filter

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jimallen/TasksAgent-sub000/internal/classifier"
	"github.com/jimallen/TasksAgent-sub000/internal/domain"
)

// Confidence contributions per satisfied criterion.
const (
	scoreSenderDomain    = 30
	scoreSenderEmail     = 40
	scoreSubjectPattern  = 25
	scoreBodyPattern     = 15
	scoreAttachment      = 20
	scoreRequiredLabel   = 10
	penaltyDefaultDomain = 10
)

var reAngleAddr = regexp.MustCompile(`<([^>]+)>`)

// Evaluator applies filter criteria to messages. Default criteria are held
// explicitly and merged with per-call overrides; there is no package-level
// mutable state.
type Evaluator struct {
	mu       sync.RWMutex
	defaults domain.FilterCriteria

	classifier *classifier.Classifier
	log        *zap.Logger
}

// NewEvaluator builds an evaluator with the given default criteria.
func NewEvaluator(defaults domain.FilterCriteria, cls *classifier.Classifier, log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{defaults: defaults, classifier: cls, log: log}
}

// DefaultCriteria returns a copy of the current default criteria.
func (e *Evaluator) DefaultCriteria() domain.FilterCriteria {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.defaults
}

// UpdateDefaultCriteria merges the given fields into the default criteria.
func (e *Evaluator) UpdateDefaultCriteria(criteria domain.FilterCriteria) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.defaults = merge(e.defaults, &criteria)
	e.log.Debug("updated default filter criteria", zap.String("component", "filter"))
}

// Filter evaluates each message and keeps the ones that pass.
func (e *Evaluator) Filter(messages []domain.InboundMessage, criteria *domain.FilterCriteria) []domain.InboundMessage {
	filtered := make([]domain.InboundMessage, 0, len(messages))
	for _, msg := range messages {
		result := e.Evaluate(msg, criteria)
		if result.Passed {
			e.log.Debug("message passed filter",
				zap.String("component", "filter"),
				zap.String("message_id", msg.ID),
				zap.Int("confidence", result.Confidence),
				zap.String("reason", result.Reason))
			filtered = append(filtered, msg)
		}
	}
	e.log.Info("filtered messages",
		zap.String("component", "filter"),
		zap.Int("in", len(messages)),
		zap.Int("out", len(filtered)))
	return filtered
}

// Evaluate checks one message against the merged criteria. A nil criteria
// argument means "defaults only". Criteria are evaluated in a fixed order;
// hard failures short-circuit, soft signals only adjust confidence.
func (e *Evaluator) Evaluate(msg domain.InboundMessage, criteria *domain.FilterCriteria) domain.FilterResult {
	e.mu.RLock()
	defaults := e.defaults
	e.mu.RUnlock()

	merged := merge(defaults, criteria)
	// Domains coming from the defaults are a soft constraint; domains the
	// caller supplied explicitly are a hard one.
	domainsExplicit := criteria != nil && len(criteria.SenderDomains) > 0

	matched := make([]domain.Criterion, 0, 4)
	confidence := 0

	fail := func(reason string) domain.FilterResult {
		return domain.FilterResult{Passed: false, Reason: reason, Confidence: confidence, MatchedCriteria: matched}
	}

	if len(merged.SenderDomains) > 0 {
		switch {
		case matchesSenderDomain(msg.From, merged.SenderDomains):
			matched = append(matched, domain.CriterionSenderDomain)
			confidence += scoreSenderDomain
		case !domainsExplicit:
			confidence -= penaltyDefaultDomain
		default:
			return fail("Sender domain does not match")
		}
	}

	if len(merged.SenderEmails) > 0 {
		if !matchesSenderEmail(msg.From, merged.SenderEmails) {
			return fail("Sender email does not match")
		}
		matched = append(matched, domain.CriterionSenderEmail)
		confidence += scoreSenderEmail
	}

	if len(merged.SubjectPatterns) > 0 && matchesPatterns(msg.Subject, merged.SubjectPatterns) {
		matched = append(matched, domain.CriterionSubjectPattern)
		confidence += scoreSubjectPattern
	}

	if len(merged.BodyPatterns) > 0 && matchesPatterns(msg.Body, merged.BodyPatterns) {
		matched = append(matched, domain.CriterionBodyPattern)
		confidence += scoreBodyPattern
	}

	if merged.HasAttachment != nil {
		if *merged.HasAttachment != msg.HasAttachments() {
			if *merged.HasAttachment {
				return fail("Message does not have attachments")
			}
			return fail("Message has attachments but none expected")
		}
		matched = append(matched, domain.CriterionAttachment)
		confidence += scoreAttachment
	}

	if len(merged.Labels) > 0 {
		if !hasAnyLabel(msg.Labels, merged.Labels) {
			return fail("Missing required label")
		}
		matched = append(matched, domain.CriterionRequiredLabel)
		confidence += scoreRequiredLabel
	}

	if len(merged.ExcludeLabels) > 0 && hasAnyLabel(msg.Labels, merged.ExcludeLabels) {
		return fail("Has excluded label")
	}

	if merged.DateRange != nil {
		if !inDateRange(msg, merged.DateRange) {
			return fail("Outside date range")
		}
		matched = append(matched, domain.CriterionDateRange)
	}

	// Blend in the classifier: strong pattern evidence can carry a message
	// even when few explicit criteria matched.
	if e.classifier != nil {
		if parsed := e.classifier.Classify(msg); parsed.Confidence > confidence {
			confidence = parsed.Confidence
		}
	}

	if merged.MinConfidence > 0 && confidence < merged.MinConfidence {
		return fail(fmt.Sprintf("Confidence %d below threshold %d", confidence, merged.MinConfidence))
	}

	return domain.FilterResult{
		Passed:          true,
		Reason:          "Meets all criteria",
		Confidence:      confidence,
		MatchedCriteria: matched,
	}
}

// merge overlays non-empty override fields on top of base.
func merge(base domain.FilterCriteria, override *domain.FilterCriteria) domain.FilterCriteria {
	if override == nil {
		return base
	}
	out := base
	if len(override.SenderDomains) > 0 {
		out.SenderDomains = override.SenderDomains
	}
	if len(override.SenderEmails) > 0 {
		out.SenderEmails = override.SenderEmails
	}
	if len(override.SubjectPatterns) > 0 {
		out.SubjectPatterns = override.SubjectPatterns
	}
	if len(override.BodyPatterns) > 0 {
		out.BodyPatterns = override.BodyPatterns
	}
	if override.HasAttachment != nil {
		out.HasAttachment = override.HasAttachment
	}
	if override.MinConfidence != 0 {
		out.MinConfidence = override.MinConfidence
	}
	if len(override.Labels) > 0 {
		out.Labels = override.Labels
	}
	if len(override.ExcludeLabels) > 0 {
		out.ExcludeLabels = override.ExcludeLabels
	}
	if override.DateRange != nil {
		out.DateRange = override.DateRange
	}
	return out
}

func matchesSenderDomain(from string, domains []string) bool {
	fromLower := strings.ToLower(from)
	for _, d := range domains {
		d = strings.ToLower(d)
		d = strings.TrimPrefix(d, "@")
		if d != "" && strings.Contains(fromLower, d) {
			return true
		}
	}
	return false
}

func matchesSenderEmail(from string, emails []string) bool {
	fromLower := strings.ToLower(from)
	// Pull the address out of a "Name <email>" header if present.
	actual := fromLower
	if m := reAngleAddr.FindStringSubmatch(fromLower); m != nil {
		actual = m[1]
	}
	for _, email := range emails {
		if email != "" && strings.Contains(actual, strings.ToLower(email)) {
			return true
		}
	}
	return false
}

// matchesPatterns supports plain substrings and /regex/-delimited patterns.
func matchesPatterns(text string, patterns []string) bool {
	textLower := strings.ToLower(text)
	for _, pattern := range patterns {
		if len(pattern) > 2 && strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/") {
			re, err := regexp.Compile("(?i)" + pattern[1:len(pattern)-1])
			if err == nil && re.MatchString(text) {
				return true
			}
			continue
		}
		if pattern != "" && strings.Contains(textLower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

func hasAnyLabel(labels, wanted []string) bool {
	for _, w := range wanted {
		for _, l := range labels {
			if l == w {
				return true
			}
		}
	}
	return false
}

func inDateRange(msg domain.InboundMessage, r *domain.DateRange) bool {
	if r.Start != nil && msg.Date.Before(*r.Start) {
		return false
	}
	if r.End != nil && msg.Date.After(*r.End) {
		return false
	}
	return true
}
