package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jimallen/TasksAgent-sub000/internal/domain"
)

func newTestClassifier() *Classifier {
	return New(NewRegistry(), DefaultScoringPolicy(), zap.NewNop())
}

func googleMeetRecording() domain.InboundMessage {
	return domain.InboundMessage{
		ID:      "msg-1",
		From:    "Google Meet <meet-recordings-noreply@google.com>",
		Subject: "Recording of Team Standup - Google Meet",
		Attachments: []domain.AttachmentRef{
			{ID: "att-1", Filename: "transcript.vtt", MimeType: "text/vtt", Size: 2048},
		},
	}
}

func TestClassify_GoogleMeetRecording(t *testing.T) {
	// Arrange
	cls := newTestClassifier()

	// Act
	result := cls.Classify(googleMeetRecording())

	// Assert
	assert.True(t, result.IsTranscript)
	assert.Equal(t, 97, result.Confidence)
	assert.Equal(t, domain.ServiceGoogleMeet, result.Service)
	assert.Equal(t, domain.LocationAttachment, result.TranscriptLocation)
	require.NotNil(t, result.Attachment)
	assert.Equal(t, "transcript.vtt", result.Attachment.Filename)
	assert.Equal(t, "Team Standup", result.MeetingInfo.Title)
}

func TestClassify_ZoomRecording(t *testing.T) {
	cls := newTestClassifier()

	result := cls.Classify(domain.InboundMessage{
		ID:      "msg-2",
		From:    "Zoom <no-reply@zoom.us>",
		Subject: "Cloud Recording - Weekly Sync is now available",
	})

	assert.True(t, result.IsTranscript)
	assert.Equal(t, 67, result.Confidence)
	assert.Equal(t, domain.ServiceZoom, result.Service)
	assert.Equal(t, domain.LocationNone, result.TranscriptLocation)
	assert.Nil(t, result.Attachment)
	assert.Equal(t, "Weekly Sync", result.MeetingInfo.Title)
}

func TestClassify_PlainMessage(t *testing.T) {
	cls := newTestClassifier()

	result := cls.Classify(domain.InboundMessage{
		ID:      "msg-3",
		From:    "newsletter@shop.example.com",
		Subject: "Your weekly deals",
		Body:    "Check out this week's offers.",
	})

	assert.False(t, result.IsTranscript)
	assert.Equal(t, 0, result.Confidence)
	assert.Equal(t, domain.ServiceUnknown, result.Service)
	assert.Equal(t, domain.LocationNone, result.TranscriptLocation)
}

func TestClassify_ConfidenceCappedAt100(t *testing.T) {
	cls := newTestClassifier()

	msg := googleMeetRecording()
	msg.Body = "Join at meet.google.com/abc-defg-hij\nYour Google Meet recording is ready."

	result := cls.Classify(msg)

	assert.Equal(t, 100, result.Confidence)
	assert.True(t, result.IsTranscript)
}

func TestClassify_BodyMatchesAreDiscounted(t *testing.T) {
	cls := newTestClassifier()

	// Body-only evidence: 8 and 3 priority rules at the 0.7 body weight.
	result := cls.Classify(domain.InboundMessage{
		ID:   "msg-4",
		From: "someone@example.com",
		Body: "The Google Meet recording is attached below.",
	})

	assert.Equal(t, 26, result.Confidence)
	assert.False(t, result.IsTranscript)
	assert.Equal(t, domain.ServiceGoogleMeet, result.Service, "body rules still infer the service when nothing else did")
}

func TestClassify_CustomRuleRaisesScore(t *testing.T) {
	// Arrange
	cls := newTestClassifier()
	msg := domain.InboundMessage{
		ID:      "msg-5",
		From:    "recorder@acme-notes.io",
		Subject: "Weekly sync notes",
	}

	before := cls.Classify(msg)
	assert.False(t, before.IsTranscript)

	// Act
	cls.Registry().Add(NewLiteralRule(domain.RuleFieldSender, "@acme-notes.io", 10, ""))
	after := cls.Classify(msg)

	// Assert
	assert.True(t, after.IsTranscript)
	assert.Greater(t, after.Confidence, before.Confidence)
}

func TestRule_Matches(t *testing.T) {
	literal := NewLiteralRule(domain.RuleFieldSubject, "Recording", 5, "")
	assert.True(t, literal.Matches("meeting RECORDING available"))
	assert.False(t, literal.Matches("meeting notes"))
	assert.False(t, literal.Matches(""), "empty field never matches")

	regex, err := NewRegexRule(domain.RuleFieldSubject, `(?i)^Notes:`, 5, "")
	require.NoError(t, err)
	assert.True(t, regex.Matches("Notes: retro"))
	assert.False(t, regex.Matches("Meeting Notes: retro"))

	_, err = NewRegexRule(domain.RuleFieldSubject, `([`, 5, "")
	assert.Error(t, err)
}

func TestRegistry_RulesReturnsSnapshot(t *testing.T) {
	reg := NewEmptyRegistry()
	reg.Add(NewLiteralRule(domain.RuleFieldSubject, "one", 1, ""))

	snapshot := reg.Rules()
	reg.Add(NewLiteralRule(domain.RuleFieldSubject, "two", 2, ""))

	assert.Len(t, snapshot, 1)
	assert.Equal(t, 2, reg.Len())
}

func TestShouldProcess_HighConfidenceNeedsNoAllowlist(t *testing.T) {
	cls := newTestClassifier()

	assert.True(t, cls.ShouldProcess(googleMeetRecording(), nil, nil))
}

func TestShouldProcess_MediumConfidenceNeedsDomainOrSubject(t *testing.T) {
	cls := newTestClassifier()
	msg := domain.InboundMessage{
		From:    "Zoom <no-reply@zoom.us>",
		Subject: "Cloud Recording - Weekly Sync is now available",
	}

	assert.False(t, cls.ShouldProcess(msg, nil, nil))
	assert.True(t, cls.ShouldProcess(msg, []string{"@zoom.us"}, nil))
	assert.True(t, cls.ShouldProcess(msg, nil, []string{"cloud recording"}))
}

func TestShouldProcess_LowConfidenceAlsoNeedsAttachment(t *testing.T) {
	cls := newTestClassifier()
	msg := domain.InboundMessage{
		From:    "bot@example.com",
		Subject: "Weekly sync notes",
		Attachments: []domain.AttachmentRef{
			{ID: "att-1", Filename: "notes.txt"},
		},
	}

	assert.True(t, cls.ShouldProcess(msg, []string{"example.com"}, nil))

	msg.Attachments = nil
	assert.False(t, cls.ShouldProcess(msg, []string{"example.com"}, nil))
}

func TestShouldProcess_NoConfidenceNeedsEverything(t *testing.T) {
	cls := newTestClassifier()
	msg := domain.InboundMessage{
		From:    "team@example.com",
		Subject: "Project update",
		Attachments: []domain.AttachmentRef{
			{ID: "att-1", Filename: "notes.docx"},
		},
	}

	assert.True(t, cls.ShouldProcess(msg, []string{"example.com"}, []string{"update"}))
	assert.False(t, cls.ShouldProcess(msg, []string{"example.com"}, nil))
	assert.False(t, cls.ShouldProcess(msg, nil, []string{"update"}))
}
