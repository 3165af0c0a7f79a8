package filter

import "github.com/jimallen/TasksAgent-sub000/internal/domain"

func boolPtr(b bool) *bool { return &b }

// GoogleMeetCriteria is the preset for Google Meet transcript mail.
func GoogleMeetCriteria() domain.FilterCriteria {
	return domain.FilterCriteria{
		SenderDomains: []string{"@google.com", "@meet.google.com", "calendar-notification@google"},
		SubjectPatterns: []string{
			"Recording of",
			"Transcript for",
			"Meeting recording",
			"Google Meet",
		},
		BodyPatterns: []string{
			"meet.google.com",
			"Google Meet recording",
			"Your recording is ready",
		},
		HasAttachment: boolPtr(true),
		MinConfidence: 50,
	}
}

// ZoomCriteria is the preset for Zoom cloud-recording mail.
func ZoomCriteria() domain.FilterCriteria {
	return domain.FilterCriteria{
		SenderDomains: []string{"@zoom.us"},
		SubjectPatterns: []string{
			"Cloud Recording",
			"Recording is now available",
			"Zoom Recording",
		},
		HasAttachment: boolPtr(true),
		MinConfidence: 50,
	}
}

// TeamsCriteria is the preset for Microsoft Teams recording mail.
func TeamsCriteria() domain.FilterCriteria {
	return domain.FilterCriteria{
		SenderDomains: []string{"@microsoft.com", "@teams.microsoft.com"},
		SubjectPatterns: []string{
			"Meeting Recording",
			"Teams Recording",
			"Recording available",
		},
		HasAttachment: boolPtr(true),
		MinConfidence: 50,
	}
}

// AllMeetingServicesCriteria concatenates all platform presets with a lower
// confidence floor.
func AllMeetingServicesCriteria() domain.FilterCriteria {
	google := GoogleMeetCriteria()
	zoom := ZoomCriteria()
	teams := TeamsCriteria()

	var domains, subjects []string
	domains = append(domains, google.SenderDomains...)
	domains = append(domains, zoom.SenderDomains...)
	domains = append(domains, teams.SenderDomains...)
	subjects = append(subjects, google.SubjectPatterns...)
	subjects = append(subjects, zoom.SubjectPatterns...)
	subjects = append(subjects, teams.SubjectPatterns...)

	return domain.FilterCriteria{
		SenderDomains:   domains,
		SubjectPatterns: subjects,
		BodyPatterns:    google.BodyPatterns,
		HasAttachment:   boolPtr(true),
		MinConfidence:   30,
	}
}
