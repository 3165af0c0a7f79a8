package extractor

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/jimallen/TasksAgent-sub000/internal/domain"
)

// fallbackConfidence is the fixed overall confidence of heuristic extraction,
// signalling low-confidence results to downstream consumers.
const fallbackConfidence = 30

// taskLineConfidence is the per-task confidence for heuristic matches.
const taskLineConfidence = 50

// lineMatcher is one ordered heuristic: a pattern whose first capture group
// is the task description.
type lineMatcher struct {
	name    string
	pattern *regexp.Regexp
}

// taskLineMatchers are applied per line, in order. A line may match several
// and yield several candidates; dedup collapses them afterwards.
var taskLineMatchers = []lineMatcher{
	{"commitment", regexp.MustCompile(`(?i)(?:I will|I'll|I can|Let me|I need to|I should|I have to)\s+(.+)`)},
	{"marker", regexp.MustCompile(`(?i)(?:TODO|Action|Task|Follow.?up):\s*(.+)`)},
	{"next_steps", regexp.MustCompile(`(?i)(?:Next steps?|Action items?):\s*(.+)`)},
	{"checkbox", regexp.MustCompile(`\[ \]\s+(.+)`)},
	{"bullet", regexp.MustCompile(`(?i)^[-*•]\s*(.+(?:will|need to|should|must).+)`)},
}

// Lead-in words case-insensitive, the name tokens themselves capitalized.
var reParticipantName = regexp.MustCompile(`(?:(?i:with|from|to|cc)|(?i:attendees?):)\s*([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`)

// fallbackExtraction scans content line by line against the ordered heuristic
// matchers. Deterministic and total.
func (e *Extractor) fallbackExtraction(content, subject string) domain.ExtractionResult {
	var tasks []domain.ExtractedTask

	for _, line := range strings.Split(content, "\n") {
		for _, matcher := range taskLineMatchers {
			m := matcher.pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			description := cleanDescription(m[1])
			if len(description) <= 5 {
				continue
			}
			tasks = append(tasks, domain.ExtractedTask{
				Description: description,
				Assignee:    domain.Unassigned,
				Priority:    domain.PriorityMedium,
				Confidence:  taskLineConfidence,
				Category:    "other",
				RawText:     line,
			})
		}
	}

	participants := []string{}
	seen := map[string]struct{}{}
	for _, m := range reParticipantName.FindAllStringSubmatch(content, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		participants = append(participants, m[1])
	}

	summary := subject
	if summary == "" {
		summary = "Meeting notes"
	}

	deduped := dedupTasks(tasks)
	e.log.Debug("fallback extraction complete",
		zap.String("component", "extractor"),
		zap.Int("tasks", len(deduped)),
		zap.Int("participants", len(participants)))

	return domain.ExtractionResult{
		Tasks:        deduped,
		Summary:      summary,
		Participants: participants,
		MeetingDate:  e.now(),
		KeyDecisions: []string{},
		NextSteps:    []string{},
		Confidence:   fallbackConfidence,
	}
}
