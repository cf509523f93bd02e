package dispatch

import "encoding/json"

const (
	// DefaultTitle and DefaultBody fill in when a caller omits them.
	DefaultTitle = "Lodge Dashboard"
	DefaultBody  = "You have a new task."
)

// Payload is the notification content fanned out identically to every
// subscription of the target user. It is immutable once built.
type Payload struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Urgent bool   `json:"urgent"`
	URL    string `json:"url"`
}

// NewPayload builds a payload, applying the default body and target URL
// when the caller leaves them empty.
func NewPayload(title, body string, urgent bool, targetURL string) Payload {
	if body == "" {
		body = DefaultBody
	}
	return Payload{
		Title:  title,
		Body:   body,
		Urgent: urgent,
		URL:    targetURL,
	}
}

// Marshal serializes the payload for the push transport.
func (p Payload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}
