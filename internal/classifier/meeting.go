package classifier

import (
	"regexp"
	"strings"
	"time"

	"github.com/jimallen/TasksAgent-sub000/internal/domain"
)

var (
	reTitleGoogleRecording = regexp.MustCompile(`(?i)Recording of (.*) - Google Meet`)
	reTitleGoogleMeeting   = regexp.MustCompile(`(?i)Meeting recording - `)
	reTitleGoogleTranscript = regexp.MustCompile(`(?i)Transcript for `)
	reTitleZoom            = regexp.MustCompile(`(?i)Cloud Recording - (.*) is now available`)
	reTitleTeams           = regexp.MustCompile(`(?i)Meeting Recording: `)
	reTitleTimestamp       = regexp.MustCompile(`(?i)\d{1,2}:\d{2}(:\d{2})?\s*(AM|PM)?`)
	reWhitespace           = regexp.MustCompile(`\s+`)

	titlePrefixes = compilePrefixes(
		"Recording of", "Transcript for", "Meeting notes:", "Summary of",
		"Notes from", "Re:", "Fwd:", "Meeting recording:", "Recording:",
	)

	reDateISO   = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})[T\s](\d{2}:\d{2})`)
	reDateUS    = regexp.MustCompile(`(?i)(\d{1,2}/\d{1,2}/\d{4})\s+at\s+(\d{1,2}:\d{2}\s*(AM|PM)?)`)
	reDateMonth = regexp.MustCompile(`(?i)(\w+\s+\d{1,2},?\s+\d{4})\s+at\s+(\d{1,2}:\d{2}\s*(AM|PM)?)`)

	reMeetingIDGoogle  = regexp.MustCompile(`(?i)meet\.google\.com/([a-z]{3}-[a-z]{4}-[a-z]{3})`)
	reMeetingIDZoom    = regexp.MustCompile(`(?i)Meeting ID:\s*(\d{9,11})`)
	reMeetingIDTeams   = regexp.MustCompile(`(?i)Meeting ID:\s*(\d{3}\s*\d{3}\s*\d{3,4})`)
	reMeetingIDGeneric = regexp.MustCompile(`(?i)\b(Meeting|Conference)\s+ID:?\s*([A-Z0-9-]+)`)

	durationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Duration:\s*(\d+\s*(hours?|hrs?|minutes?|mins?)(\s+and\s+\d+\s*(minutes?|mins?))?)`),
		regexp.MustCompile(`(?i)Length:\s*(\d+:\d{2}:\d{2})`),
		regexp.MustCompile(`(?i)\((\d+\s*(hours?|hrs?|minutes?|mins?))\)`),
	}

	reParticipantLabel = regexp.MustCompile(`(?i)^(Participants?|Attendees?|Present):[ \t]*(.*)`)
	reFieldLabel       = regexp.MustCompile(`^\w+:`)

	reOrganizerName = regexp.MustCompile(`^([^<]+)`)
	reOrganizerBody = regexp.MustCompile(`(?i)Organizer:\s*([^\n]+)`)

	transcriptMarkers = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^(TRANSCRIPT|MEETING TRANSCRIPT)`),
		regexp.MustCompile(`(?im)^(Speaker \d+:|Participant:|Attendee:)`),
		regexp.MustCompile(`(?m)^\d{2}:\d{2}:\d{2}`),
		regexp.MustCompile(`\[(\d{2}:)?\d{2}:\d{2}\]`),
		regexp.MustCompile(`(?i)Notes: `),
		regexp.MustCompile(`(?i)Action items?:`),
		regexp.MustCompile(`(?i)Decisions?:`),
		regexp.MustCompile(`(?i)Summary:`),
	}

	transcriptLinks = []*regexp.Regexp{
		regexp.MustCompile(`(?i)https?://[^\s]+/(transcript|recording|meeting)`),
		regexp.MustCompile(`(?i)View (the )?(transcript|recording|meeting)`),
		regexp.MustCompile(`(?i)Click here to (view|access|download) (the )?(transcript|recording)`),
	}
)

func compilePrefixes(prefixes ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(prefixes))
	for _, p := range prefixes {
		out = append(out, regexp.MustCompile(`(?i)^`+regexp.QuoteMeta(p)+`\s*`))
	}
	return out
}

func extractMeetingInfo(msg domain.InboundMessage, service domain.Service) domain.MeetingInfo {
	info := domain.MeetingInfo{
		Title: extractTitle(msg.Subject, service),
	}

	if date, timeOfDay, ok := extractDateTime(msg.Subject, msg.Body); ok {
		info.Date = date
		info.Time = timeOfDay
	}

	info.MeetingID = extractMeetingID(msg.Body, service)
	info.Duration = extractDuration(msg.Body)
	info.Participants = extractParticipants(msg.Body)
	info.Organizer = extractOrganizer(msg.From, msg.Body)

	return info
}

// extractTitle strips service-specific and generic boilerplate from the
// subject, then drops timestamp fragments and collapses whitespace.
func extractTitle(subject string, service domain.Service) string {
	title := subject

	switch service {
	case domain.ServiceGoogleMeet:
		title = reTitleGoogleRecording.ReplaceAllString(title, "$1")
		title = reTitleGoogleMeeting.ReplaceAllString(title, "")
		title = reTitleGoogleTranscript.ReplaceAllString(title, "")
	case domain.ServiceZoom:
		title = reTitleZoom.ReplaceAllString(title, "$1")
	case domain.ServiceTeams:
		title = reTitleTeams.ReplaceAllString(title, "")
	}

	for _, prefix := range titlePrefixes {
		title = prefix.ReplaceAllString(title, "")
	}

	title = reTitleTimestamp.ReplaceAllString(title, "")
	title = strings.TrimSpace(reWhitespace.ReplaceAllString(title, " "))

	if title == "" {
		return "Untitled Meeting"
	}
	return title
}

// extractDateTime tries the ordered date-pattern families; first match wins.
func extractDateTime(subject, body string) (time.Time, string, bool) {
	text := subject + "\n" + body

	if m := reDateISO.FindStringSubmatch(text); m != nil {
		if date, err := time.Parse("2006-01-02", m[1]); err == nil {
			return date, m[2], true
		}
	}

	if m := reDateUS.FindStringSubmatch(text); m != nil {
		if date, err := time.Parse("1/2/2006", m[1]); err == nil {
			return date, strings.TrimSpace(m[2]), true
		}
	}

	if m := reDateMonth.FindStringSubmatch(text); m != nil {
		for _, layout := range []string{"January 2, 2006", "January 2 2006"} {
			if date, err := time.Parse(layout, m[1]); err == nil {
				return date, strings.TrimSpace(m[2]), true
			}
		}
	}

	return time.Time{}, "", false
}

func extractMeetingID(body string, service domain.Service) string {
	switch service {
	case domain.ServiceGoogleMeet:
		if m := reMeetingIDGoogle.FindStringSubmatch(body); m != nil {
			return m[1]
		}
		return ""
	case domain.ServiceZoom:
		if m := reMeetingIDZoom.FindStringSubmatch(body); m != nil {
			return m[1]
		}
		return ""
	case domain.ServiceTeams:
		if m := reMeetingIDTeams.FindStringSubmatch(body); m != nil {
			return strings.ReplaceAll(m[1], " ", "")
		}
		return ""
	}

	if m := reMeetingIDGeneric.FindStringSubmatch(body); m != nil {
		return m[2]
	}
	return ""
}

func extractDuration(body string) string {
	for _, pattern := range durationPatterns {
		if m := pattern.FindStringSubmatch(body); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// extractParticipants finds a participants label line and collects names from
// it plus any continuation lines, until the next "Label:" line. Entries
// containing "@" are dropped; they are addresses, not names.
func extractParticipants(body string) []string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		m := reParticipantLabel.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		block := m[2]
		for j := i + 1; j < len(lines); j++ {
			next := lines[j]
			if strings.TrimSpace(next) == "" || reFieldLabel.MatchString(next) {
				break
			}
			block += "\n" + next
		}

		var participants []string
		for _, name := range strings.FieldsFunc(block, func(r rune) bool {
			return r == ',' || r == ';' || r == '\n'
		}) {
			name = strings.TrimSpace(name)
			if name != "" && !strings.Contains(name, "@") {
				participants = append(participants, name)
			}
		}
		if len(participants) > 0 {
			return participants
		}
	}
	return nil
}

func extractOrganizer(from, body string) string {
	if m := reOrganizerName.FindStringSubmatch(from); m != nil {
		name := strings.TrimSpace(m[1])
		if name != "" && !strings.Contains(name, "noreply") {
			return name
		}
	}

	if m := reOrganizerBody.FindStringSubmatch(body); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func hasTranscriptInBody(body string) bool {
	for _, marker := range transcriptMarkers {
		if marker.MatchString(body) {
			return true
		}
	}
	return false
}

func hasTranscriptLink(body string) bool {
	for _, pattern := range transcriptLinks {
		if pattern.MatchString(body) {
			return true
		}
	}
	return false
}
