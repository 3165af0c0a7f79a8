package domain

// --- ENUM Types ---

// Service identifies the meeting platform a message was inferred to come from.
type Service string

const (
	ServiceGoogleMeet Service = "google-meet"
	ServiceZoom       Service = "zoom"
	ServiceTeams      Service = "teams"
	ServiceUnknown    Service = "unknown"
)

// RuleField names the message field a classification rule matches against.
type RuleField string

const (
	RuleFieldSender     RuleField = "sender"
	RuleFieldSubject    RuleField = "subject"
	RuleFieldBody       RuleField = "body"
	RuleFieldAttachment RuleField = "attachment"
)

// TranscriptLocation says where the transcript content lives, if anywhere.
type TranscriptLocation string

const (
	LocationAttachment TranscriptLocation = "attachment"
	LocationBody       TranscriptLocation = "body"
	LocationLink       TranscriptLocation = "link"
	LocationNone       TranscriptLocation = "none"
)

// Criterion tags an independently evaluable filter condition.
type Criterion string

const (
	CriterionSenderDomain   Criterion = "sender_domain"
	CriterionSenderEmail    Criterion = "sender_email"
	CriterionSubjectPattern Criterion = "subject_pattern"
	CriterionBodyPattern    Criterion = "body_pattern"
	CriterionAttachment     Criterion = "attachment_requirement"
	CriterionRequiredLabel  Criterion = "required_label"
	CriterionDateRange      Criterion = "date_range"
)

// TaskPriority is the urgency bucket of an extracted task.
type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

// Unassigned is the assignee sentinel for tasks without a clear owner.
const Unassigned = "Unassigned"

// ExtractionStatus records the outcome of one message's extraction run.
type ExtractionStatus string

const (
	ExtractionSuccess  ExtractionStatus = "success"
	ExtractionFallback ExtractionStatus = "fallback"
	ExtractionSkipped  ExtractionStatus = "skipped"
	ExtractionFailure  ExtractionStatus = "failure"
)
