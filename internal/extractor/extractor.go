// Package extractor converts transcript text into structured tasks and
// meeting metadata. Extract is total: any failure on the AI path falls
// through to the deterministic fallback, so callers always get a well-formed
// result.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jimallen/TasksAgent-sub000/internal/ai"
	"github.com/jimallen/TasksAgent-sub000/internal/domain"
)

// promptContentLimit bounds how much transcript text goes into the prompt.
const promptContentLimit = 15000

const systemInstruction = "You are a task extraction assistant. Always respond with valid JSON only, no markdown or explanations."

var (
	reBullet     = regexp.MustCompile(`^[-*•]\s*`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// Extractor runs AI-assisted extraction with a pattern-based fallback.
type Extractor struct {
	client ai.CompletionClient
	log    *zap.Logger
	now    func() time.Time
}

// New builds an extractor. A nil or unconfigured client means every call
// takes the fallback path.
func New(client ai.CompletionClient, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{client: client, log: log, now: time.Now}
}

// Extract pulls tasks, participants, and meeting metadata out of a message.
// The returned status says which path produced the result.
func (e *Extractor) Extract(ctx context.Context, content, subject string) (domain.ExtractionResult, domain.ExtractionStatus) {
	if e.client == nil || !e.client.Configured() {
		e.log.Debug("no completion credential configured, using fallback extraction",
			zap.String("component", "extractor"))
		return e.fallbackExtraction(content, subject), domain.ExtractionFallback
	}

	prompt := buildPrompt(content, subject)
	response, err := e.client.Complete(ctx, prompt, systemInstruction)
	if err != nil {
		e.log.Warn("completion call failed, using fallback extraction",
			zap.String("component", "extractor"), zap.Error(err))
		return e.fallbackExtraction(content, subject), domain.ExtractionFallback
	}

	result, err := e.parseResponse(response)
	if err != nil {
		e.log.Warn("could not parse completion response, using fallback extraction",
			zap.String("component", "extractor"), zap.Error(err))
		return e.fallbackExtraction(content, subject), domain.ExtractionFallback
	}
	return result, domain.ExtractionSuccess
}

func buildPrompt(content, subject string) string {
	truncated := content
	marker := ""
	if len(truncated) > promptContentLimit {
		truncated = truncated[:promptContentLimit]
		marker = " ... [truncated]"
	}

	return fmt.Sprintf(`You are an expert at extracting actionable tasks from meeting transcripts. Analyze the following meeting transcript and extract all tasks, action items, and commitments.

MEETING SUBJECT: %s

TRANSCRIPT:
%s%s

Extract the following information and return as JSON:

1. **tasks** - Array of task objects with:
   - description: Clear, actionable task description
   - assignee: Person responsible (use actual names from the meeting, default "Unassigned" if unclear)
   - priority: "high", "medium", or "low" based on urgency/importance
   - confidence: 0-100 score of how confident you are this is a real task
   - dueDate: ISO date string if mentioned (optional)
   - category: engineering/product/design/documentation/communication/other
   - context: Brief context about why this task exists
   - rawText: The original text that led to this task

2. **summary** - 2-3 sentence meeting summary

3. **participants** - Array of participant names (extract all names mentioned)

4. **meetingDate** - ISO date string (use today if not specified)

5. **keyDecisions** - Array of important decisions made

6. **nextSteps** - Array of general next steps beyond specific tasks

Guidelines:
- Focus on explicit commitments ("I will", "I'll", "Let me", "I can", "[Name] will")
- Include tasks with deadlines or time constraints
- Capture follow-ups and action items
- Ignore general discussions or past work
- Be conservative - only extract clear tasks
- Only use names that actually appear in the transcript
- Default assignee should be "Unassigned" for unclear ownership

Return ONLY valid JSON, no other text:`, subject, truncated, marker)
}

type aiTask struct {
	Description string `json:"description"`
	Assignee    string `json:"assignee"`
	Priority    any    `json:"priority"`
	Confidence  any    `json:"confidence"`
	DueDate     string `json:"dueDate"`
	Category    string `json:"category"`
	Context     string `json:"context"`
	RawText     string `json:"rawText"`
}

type aiResponse struct {
	Tasks        []aiTask `json:"tasks"`
	Summary      string   `json:"summary"`
	Participants []string `json:"participants"`
	MeetingDate  string   `json:"meetingDate"`
	KeyDecisions []string `json:"keyDecisions"`
	NextSteps    []string `json:"nextSteps"`
}

// parseResponse extracts the JSON object substring (first "{" to last "}")
// from the response and normalizes it. Prose containing braces around the
// intended object can defeat this; see DESIGN.md.
func (e *Extractor) parseResponse(response string) (domain.ExtractionResult, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end <= start {
		return domain.ExtractionResult{}, fmt.Errorf("no JSON object found in response")
	}

	var parsed aiResponse
	if err := json.Unmarshal([]byte(response[start:end+1]), &parsed); err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("could not parse response JSON: %w", err)
	}

	tasks := dedupTasks(normalizeTasks(parsed.Tasks))

	summary := parsed.Summary
	if summary == "" {
		summary = "Meeting transcript processed"
	}

	meetingDate := e.now()
	if parsed.MeetingDate != "" {
		if d, ok := parseLooseDate(parsed.MeetingDate); ok {
			meetingDate = d
		}
	}

	return domain.ExtractionResult{
		Tasks:        tasks,
		Summary:      summary,
		Participants: nonEmpty(parsed.Participants),
		MeetingDate:  meetingDate,
		KeyDecisions: orEmpty(parsed.KeyDecisions),
		NextSteps:    orEmpty(parsed.NextSteps),
		Confidence:   overallConfidence(tasks),
	}, nil
}

func normalizeTasks(tasks []aiTask) []domain.ExtractedTask {
	out := make([]domain.ExtractedTask, 0, len(tasks))
	for _, t := range tasks {
		task := domain.ExtractedTask{
			Description: cleanDescription(t.Description),
			Assignee:    t.Assignee,
			Priority:    normalizePriority(t.Priority),
			Confidence:  normalizeConfidence(t.Confidence),
			DueDate:     t.DueDate,
			Category:    t.Category,
			Context:     t.Context,
			RawText:     t.RawText,
		}
		if task.Assignee == "" {
			task.Assignee = domain.Unassigned
		}
		if task.Category == "" {
			task.Category = "other"
		}
		if len(task.Description) <= 5 {
			continue
		}
		out = append(out, task)
	}
	return out
}

func cleanDescription(description string) string {
	description = reBullet.ReplaceAllString(description, "")
	description = reWhitespace.ReplaceAllString(description, " ")
	return strings.TrimSpace(description)
}

func normalizePriority(priority any) domain.TaskPriority {
	p := strings.ToLower(fmt.Sprintf("%v", priority))
	switch {
	case strings.Contains(p, "high") || p == "3":
		return domain.PriorityHigh
	case strings.Contains(p, "low") || p == "1":
		return domain.PriorityLow
	default:
		return domain.PriorityMedium
	}
}

func normalizeConfidence(confidence any) int {
	var c float64
	switch v := confidence.(type) {
	case float64:
		c = v
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 75
		}
		c = parsed
	default:
		return 75
	}
	if math.IsNaN(c) {
		return 75
	}
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return int(math.Round(c))
}

// dedupTasks drops tasks whose lowercased description+assignee pair was seen
// before, keeping first occurrences. Idempotent.
func dedupTasks(tasks []domain.ExtractedTask) []domain.ExtractedTask {
	seen := make(map[string]struct{}, len(tasks))
	out := make([]domain.ExtractedTask, 0, len(tasks))
	for _, task := range tasks {
		key := strings.ToLower(task.Description) + "-" + strings.ToLower(task.Assignee)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, task)
	}
	return out
}

func overallConfidence(tasks []domain.ExtractedTask) int {
	if len(tasks) == 0 {
		return 0
	}
	sum := 0
	for _, task := range tasks {
		sum += task.Confidence
	}
	return int(math.Round(float64(sum) / float64(len(tasks))))
}

func parseLooseDate(s string) (time.Time, bool) {
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
		"January 2, 2006",
		"1/2/2006",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
