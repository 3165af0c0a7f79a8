package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MessageRef is a lightweight pointer to a message in the inbox store.
type MessageRef struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

// AttachmentRef is a weak reference to an attachment; the bytes stay remote.
type AttachmentRef struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// InboundMessage is a fully fetched inbox message. Immutable once built.
type InboundMessage struct {
	ID          string          `json:"id"`
	ThreadID    string          `json:"thread_id"`
	Subject     string          `json:"subject"`
	From        string          `json:"from"`
	Date        time.Time       `json:"date"`
	Body        string          `json:"body"`
	Attachments []AttachmentRef `json:"attachments"`
	Labels      []string        `json:"labels"`
}

// HasAttachments reports whether the message carries at least one attachment.
func (m InboundMessage) HasAttachments() bool {
	return len(m.Attachments) > 0
}

// MeetingInfo holds metadata extracted from a transcript message.
// All fields are best-effort; zero values mean "not found".
type MeetingInfo struct {
	Title        string    `json:"title,omitempty"`
	Date         time.Time `json:"date,omitempty"`
	Time         string    `json:"time,omitempty"`
	Duration     string    `json:"duration,omitempty"`
	MeetingID    string    `json:"meeting_id,omitempty"`
	Participants []string  `json:"participants,omitempty"`
	Organizer    string    `json:"organizer,omitempty"`
}

// ClassificationResult is the classifier's verdict on a single message.
type ClassificationResult struct {
	IsTranscript       bool               `json:"is_transcript"`
	Confidence         int                `json:"confidence"`
	Service            Service            `json:"service"`
	MeetingInfo        MeetingInfo        `json:"meeting_info"`
	TranscriptLocation TranscriptLocation `json:"transcript_location"`
	Attachment         *AttachmentRef     `json:"attachment,omitempty"`
}

// DateRange is an inclusive [Start, End] window; nil bounds are open.
type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// FilterCriteria is a set of pass/fail conditions evaluated against a message.
// Slice and pointer fields are optional; empty means "not constrained".
type FilterCriteria struct {
	SenderDomains   []string   `json:"sender_domains,omitempty"`
	SenderEmails    []string   `json:"sender_emails,omitempty"`
	SubjectPatterns []string   `json:"subject_patterns,omitempty"`
	BodyPatterns    []string   `json:"body_patterns,omitempty"`
	HasAttachment   *bool      `json:"has_attachment,omitempty"`
	MinConfidence   int        `json:"min_confidence,omitempty"`
	Labels          []string   `json:"labels,omitempty"`
	ExcludeLabels   []string   `json:"exclude_labels,omitempty"`
	DateRange       *DateRange `json:"date_range,omitempty"`
}

// FilterResult is the outcome of evaluating one message against criteria.
type FilterResult struct {
	Passed          bool        `json:"passed"`
	Reason          string      `json:"reason,omitempty"`
	Confidence      int         `json:"confidence"`
	MatchedCriteria []Criterion `json:"matched_criteria"`
}

// ExtractedTask is one actionable item pulled out of a transcript.
type ExtractedTask struct {
	Description string       `json:"description"`
	Assignee    string       `json:"assignee"`
	Priority    TaskPriority `json:"priority"`
	Confidence  int          `json:"confidence"`
	DueDate     string       `json:"due_date,omitempty"`
	Category    string       `json:"category"`
	Context     string       `json:"context,omitempty"`
	RawText     string       `json:"raw_text,omitempty"`
}

// ExtractionResult is the full structured output for one transcript.
type ExtractionResult struct {
	Tasks        []ExtractedTask `json:"tasks"`
	Summary      string          `json:"summary"`
	Participants []string        `json:"participants"`
	MeetingDate  time.Time       `json:"meeting_date"`
	KeyDecisions []string        `json:"key_decisions"`
	NextSteps    []string        `json:"next_steps"`
	Confidence   int             `json:"confidence"`
}

// Credential is the OAuth token pair owned by the session manager.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// ExtractionLog is the persisted audit record for one processed message.
type ExtractionLog struct {
	ID           uuid.UUID        `db:"id"               json:"id"`
	MessageID    string           `db:"gmail_message_id" json:"gmail_message_id"`
	Subject      string           `db:"subject"          json:"subject"`
	Service      Service          `db:"service"          json:"service"`
	Status       ExtractionStatus `db:"status"           json:"status"`
	TaskCount    int              `db:"task_count"       json:"task_count"`
	Confidence   int              `db:"confidence"       json:"confidence"`
	Tasks        json.RawMessage  `db:"tasks"            json:"tasks"`
	ErrorMessage string           `db:"error_message"    json:"error_message,omitempty"`
	Timestamp    time.Time        `db:"timestamp"        json:"timestamp"`
}
