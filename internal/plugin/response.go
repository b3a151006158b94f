package plugin

import "github.com/parleybot/parley/internal/telegram"

// ResponseKind discriminates the Response variants.
type ResponseKind string

const (
	KindText     ResponseKind = "text"
	KindMedia    ResponseKind = "media"
	KindLocation ResponseKind = "location"
	KindPoll     ResponseKind = "poll"
)

// Response is what a handler returns for delivery back to the originating
// chat. A nil *Response means no response. Only the fields for the active
// Kind are meaningful.
type Response struct {
	Kind ResponseKind

	Text string

	Media   telegram.MediaKind
	Caption string
	Path    string

	Latitude  float64
	Longitude float64

	Question string
	Options  []string
}

// Text builds a text-message response.
func Text(text string) *Response {
	return &Response{Kind: KindText, Text: text}
}

// Media builds a media response for the file at path.
func Media(kind telegram.MediaKind, caption, path string) *Response {
	return &Response{Kind: KindMedia, Media: kind, Caption: caption, Path: path}
}

// Location builds a location response.
func Location(lat, lon float64) *Response {
	return &Response{Kind: KindLocation, Latitude: lat, Longitude: lon}
}

// Poll builds a poll response.
func Poll(question string, options ...string) *Response {
	return &Response{Kind: KindPoll, Question: question, Options: options}
}
