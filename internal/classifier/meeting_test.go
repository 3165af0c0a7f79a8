package classifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimallen/TasksAgent-sub000/internal/domain"
)

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		service domain.Service
		want    string
	}{
		{"google recording", "Recording of Team Standup - Google Meet", domain.ServiceGoogleMeet, "Team Standup"},
		{"google transcript", "Transcript for Q3 Planning", domain.ServiceGoogleMeet, "Q3 Planning"},
		{"zoom", "Cloud Recording - Design Review is now available", domain.ServiceZoom, "Design Review"},
		{"teams", "Meeting Recording: Sprint Retro", domain.ServiceTeams, "Sprint Retro"},
		{"reply and forward prefixes", "Re: Fwd: Budget Review", domain.ServiceUnknown, "Budget Review"},
		{"timestamp stripped", "Team Sync 3:00 PM", domain.ServiceUnknown, "Team Sync"},
		{"nothing left", "Recording:", domain.ServiceUnknown, "Untitled Meeting"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractTitle(tt.subject, tt.service))
		})
	}
}

func TestExtractDateTime(t *testing.T) {
	t.Run("iso timestamp", func(t *testing.T) {
		date, timeOfDay, ok := extractDateTime("", "Scheduled for 2025-01-15 14:30 UTC")
		require.True(t, ok)
		assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), date)
		assert.Equal(t, "14:30", timeOfDay)
	})

	t.Run("us date", func(t *testing.T) {
		date, timeOfDay, ok := extractDateTime("", "The meeting was held 1/15/2025 at 2:30 PM")
		require.True(t, ok)
		assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), date)
		assert.Equal(t, "2:30 PM", timeOfDay)
	})

	t.Run("month name", func(t *testing.T) {
		date, timeOfDay, ok := extractDateTime("", "Held on January 15, 2025 at 2:30 PM")
		require.True(t, ok)
		assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), date)
		assert.Equal(t, "2:30 PM", timeOfDay)
	})

	t.Run("subject is searched too", func(t *testing.T) {
		_, _, ok := extractDateTime("Standup 2025-02-01 09:00", "")
		assert.True(t, ok)
	})

	t.Run("no date", func(t *testing.T) {
		_, _, ok := extractDateTime("Standup", "no dates here")
		assert.False(t, ok)
	})
}

func TestExtractMeetingID(t *testing.T) {
	assert.Equal(t, "abc-defg-hij",
		extractMeetingID("Join at meet.google.com/abc-defg-hij", domain.ServiceGoogleMeet))
	assert.Equal(t, "123456789",
		extractMeetingID("Meeting ID: 123456789", domain.ServiceZoom))
	assert.Equal(t, "123456789",
		extractMeetingID("Meeting ID: 123 456 789", domain.ServiceTeams))
	assert.Equal(t, "ABC-123",
		extractMeetingID("Conference ID: ABC-123", domain.ServiceUnknown))
	assert.Empty(t, extractMeetingID("no id here", domain.ServiceGoogleMeet))
}

func TestExtractDuration(t *testing.T) {
	assert.Equal(t, "45 minutes", extractDuration("Duration: 45 minutes"))
	assert.Equal(t, "1:02:30", extractDuration("Length: 1:02:30"))
	assert.Equal(t, "30 mins", extractDuration("Team sync (30 mins) went well"))
	assert.Empty(t, extractDuration("no duration mentioned"))
}

func TestExtractParticipants(t *testing.T) {
	body := "Summary of the call.\n" +
		"Participants: Alice Johnson, Bob Lee\n" +
		"Carol Chen; dave@example.com\n" +
		"Duration: 45 minutes\n"

	got := extractParticipants(body)

	assert.Equal(t, []string{"Alice Johnson", "Bob Lee", "Carol Chen"}, got,
		"continuation lines are collected, addresses dropped, next label stops the block")
	assert.Nil(t, extractParticipants("no attendee list here"))
}

func TestExtractOrganizer(t *testing.T) {
	assert.Equal(t, "Alice Johnson", extractOrganizer("Alice Johnson <alice@example.com>", ""))
	assert.Equal(t, "Bob Lee", extractOrganizer("noreply@google.com", "Organizer: Bob Lee"))
	assert.Empty(t, extractOrganizer("noreply@google.com", "no organizer line"))
}

func TestTranscriptBodySignals(t *testing.T) {
	assert.True(t, hasTranscriptInBody("MEETING TRANSCRIPT\nSpeaker 1: hello"))
	assert.True(t, hasTranscriptInBody("00:01:12 Alice: let's begin"))
	assert.True(t, hasTranscriptInBody("Action items: ship the release"))
	assert.False(t, hasTranscriptInBody("Just a regular update."))

	assert.True(t, hasTranscriptLink("View the transcript when ready"))
	assert.True(t, hasTranscriptLink("https://meet.example.com/r/transcript"))
	assert.False(t, hasTranscriptLink("no links at all"))
}
