// Package classifier scores inbound messages against a weighted rule set to
// decide whether they carry a meeting transcript.
package classifier

import (
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/jimallen/TasksAgent-sub000/internal/domain"
)

// ScoringPolicy groups the scoring constants so behavior changes are explicit
// and testable apart from the matching logic.
type ScoringPolicy struct {
	// ReferenceCeiling approximates the raw score of several high-priority
	// matches; confidence is the raw score normalized against it.
	ReferenceCeiling float64
	// BodyWeight discounts body-rule contributions; body matches are less
	// reliable than sender or subject matches.
	BodyWeight float64
	// TranscriptThreshold is the confidence at or above which a message is
	// considered a transcript.
	TranscriptThreshold int
	// ServiceMinPriority is the minimum priority a sender/subject rule needs
	// for its service tag to be taken as the inferred service.
	ServiceMinPriority int
	// Gate tiers for ShouldProcess, highest first.
	TierHigh   int
	TierMedium int
	TierLow    int
}

// DefaultScoringPolicy returns the deployed scoring constants.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		ReferenceCeiling:    30,
		BodyWeight:          0.7,
		TranscriptThreshold: 30,
		ServiceMinPriority:  8,
		TierHigh:            70,
		TierMedium:          40,
		TierLow:             20,
	}
}

// Classifier scores messages against a rule registry. Classify is total: it
// never fails, missing fields just score zero.
type Classifier struct {
	registry *Registry
	policy   ScoringPolicy
	log      *zap.Logger
}

// New creates a classifier over the given registry and policy.
func New(registry *Registry, policy ScoringPolicy, log *zap.Logger) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{registry: registry, policy: policy, log: log}
}

// Registry exposes the rule registry, e.g. for custom-pattern registration.
func (c *Classifier) Registry() *Registry {
	return c.registry
}

// Classify scores a message and extracts meeting metadata.
func (c *Classifier) Classify(msg domain.InboundMessage) domain.ClassificationResult {
	rules := c.registry.Rules()

	var totalScore float64
	service := domain.ServiceUnknown

	for _, rule := range rules {
		if rule.Field != domain.RuleFieldSender {
			continue
		}
		if rule.Matches(msg.From) {
			totalScore += float64(rule.Priority)
			if rule.Service != "" && rule.Priority >= c.policy.ServiceMinPriority {
				service = rule.Service
			}
		}
	}

	for _, rule := range rules {
		if rule.Field != domain.RuleFieldSubject {
			continue
		}
		if rule.Matches(msg.Subject) {
			totalScore += float64(rule.Priority)
			if rule.Service != "" && rule.Priority >= c.policy.ServiceMinPriority {
				service = rule.Service
			}
		}
	}

	for _, rule := range rules {
		if rule.Field != domain.RuleFieldBody {
			continue
		}
		if rule.Matches(msg.Body) {
			totalScore += float64(rule.Priority) * c.policy.BodyWeight
			if rule.Service != "" && service == domain.ServiceUnknown {
				service = rule.Service
			}
		}
	}

	var candidate *domain.AttachmentRef
	for i := range msg.Attachments {
		att := msg.Attachments[i]
		for _, rule := range rules {
			if rule.Field != domain.RuleFieldAttachment {
				continue
			}
			if rule.Matches(att.Filename) {
				totalScore += float64(rule.Priority)
				candidate = &att
				break
			}
		}
	}

	confidence := int(math.Round(totalScore / c.policy.ReferenceCeiling * 100))
	if confidence > 100 {
		confidence = 100
	}

	result := domain.ClassificationResult{
		IsTranscript: confidence >= c.policy.TranscriptThreshold,
		Confidence:   confidence,
		Service:      service,
		MeetingInfo:  extractMeetingInfo(msg, service),
		Attachment:   candidate,
	}

	switch {
	case candidate != nil:
		result.TranscriptLocation = domain.LocationAttachment
	case hasTranscriptInBody(msg.Body):
		result.TranscriptLocation = domain.LocationBody
	case hasTranscriptLink(msg.Body):
		result.TranscriptLocation = domain.LocationLink
	default:
		result.TranscriptLocation = domain.LocationNone
	}

	c.log.Debug("classified message",
		zap.String("component", "classifier"),
		zap.String("message_id", msg.ID),
		zap.Bool("is_transcript", result.IsTranscript),
		zap.Int("confidence", confidence),
		zap.String("service", string(service)))

	return result
}

// ShouldProcess is the decision gate combining classifier confidence with the
// configured sender-domain and subject-pattern allowlists and attachment
// presence. The tiers come from the scoring policy.
func (c *Classifier) ShouldProcess(msg domain.InboundMessage, senderDomains, subjectPatterns []string) bool {
	fromLower := strings.ToLower(msg.From)
	matchesDomain := false
	for _, d := range senderDomains {
		d = strings.ToLower(strings.TrimPrefix(d, "@"))
		if d != "" && strings.Contains(fromLower, d) {
			matchesDomain = true
			break
		}
	}

	subjectLower := strings.ToLower(msg.Subject)
	matchesSubject := false
	for _, p := range subjectPatterns {
		if p != "" && strings.Contains(subjectLower, strings.ToLower(p)) {
			matchesSubject = true
			break
		}
	}

	hasAttachments := msg.HasAttachments()
	confidence := c.Classify(msg).Confidence

	switch {
	case confidence >= c.policy.TierHigh:
		return true
	case confidence >= c.policy.TierMedium:
		return matchesDomain || matchesSubject
	case confidence >= c.policy.TierLow:
		return (matchesDomain || matchesSubject) && hasAttachments
	default:
		return matchesDomain && matchesSubject && hasAttachments
	}
}
