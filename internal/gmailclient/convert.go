package gmailclient

import (
	"encoding/base64"
	"strings"
	"time"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/jimallen/TasksAgent-sub000/internal/domain"
)

// convertMessage maps a raw API message onto the domain shape: headers we
// care about, a decoded plain-text body, and the attachment inventory.
func convertMessage(msg *gmail.Message) *domain.InboundMessage {
	out := &domain.InboundMessage{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Labels:   msg.LabelIds,
	}
	if msg.InternalDate > 0 {
		out.Date = time.UnixMilli(msg.InternalDate).UTC()
	}

	if msg.Payload == nil {
		return out
	}

	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			out.From = h.Value
		case "subject":
			out.Subject = h.Value
		}
	}

	out.Body = extractBody(msg.Payload)
	out.Attachments = collectAttachments(msg.Payload, nil)
	return out
}

// extractBody walks the MIME tree and returns the first decodable
// text/plain part, falling back to text/html when no plain part exists.
func extractBody(part *gmail.MessagePart) string {
	if body := findBody(part, "text/plain"); body != "" {
		return body
	}
	return findBody(part, "text/html")
}

func findBody(part *gmail.MessagePart, mimeType string) string {
	if part == nil {
		return ""
	}
	if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
		return decodeBody(part.Body.Data)
	}
	for _, child := range part.Parts {
		if body := findBody(child, mimeType); body != "" {
			return body
		}
	}
	return ""
}

// decodeBody handles both base64 alphabets the API has been observed to
// emit. Undecodable data yields an empty string rather than an error; a
// missing body downgrades the message, it does not fail the pipeline.
func decodeBody(data string) string {
	if decoded, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	return ""
}

func collectAttachments(part *gmail.MessagePart, acc []domain.AttachmentRef) []domain.AttachmentRef {
	if part == nil {
		return acc
	}
	if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
		acc = append(acc, domain.AttachmentRef{
			ID:       part.Body.AttachmentId,
			Filename: part.Filename,
			MimeType: part.MimeType,
			Size:     part.Body.Size,
		})
	}
	for _, child := range part.Parts {
		acc = collectAttachments(child, acc)
	}
	return acc
}
