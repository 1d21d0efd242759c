package stream

import "encoding/json"

// EventKind discriminates the events a frame payload can carry.
type EventKind int

const (
	// EventContent appends a text fragment to the in-flight message.
	EventContent EventKind = iota
	// EventSources replaces the message's source list wholesale.
	EventSources
	// EventComplete terminates the stream successfully.
	EventComplete
	// EventError terminates the stream with a backend-reported failure.
	EventError
)

// SourceMetadata carries optional upload details attached to a source.
// Opaque pass-through; never validated here.
type SourceMetadata struct {
	FileName string   `json:"file_name,omitempty"`
	RowCount int      `json:"row_count,omitempty"`
	Columns  []string `json:"columns,omitempty"`
}

// Source is one knowledge-base hit cited by the agent.
type Source struct {
	Text            string          `json:"text"`
	Type            string          `json:"type"`
	SimilarityScore float64         `json:"similarity_score"`
	Metadata        *SourceMetadata `json:"metadata,omitempty"`
}

// Event is the parsed form of one frame payload.
type Event struct {
	Kind EventKind

	// Content is the text fragment for EventContent. A complete event
	// from the backend's no-data path may also carry final content.
	Content string

	// Sources is the replacement source list for EventSources, and may
	// ride along on EventComplete. Nil means "not present".
	Sources []Source

	// Message is the failure description for EventError.
	Message string
}

// wireEvent mirrors the JSON frame payload. The backend historically used
// both "content" and "chunk" for the fragment field; both are accepted.
type wireEvent struct {
	Type    string   `json:"type"`
	Content string   `json:"content"`
	Chunk   string   `json:"chunk"`
	Sources []Source `json:"sources"`
	Error   string   `json:"error"`
}

// ParseEvent decodes one payload into an Event.
//
// A structurally invalid payload, or one with an unknown or missing type, is
// not an error: such frames predate the typed protocol, so the whole payload
// is treated as a raw text fragment. The fallback affects only that one
// payload and never aborts the read loop.
func ParseEvent(payload string) Event {
	var wire wireEvent
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return Event{Kind: EventContent, Content: payload}
	}

	switch wire.Type {
	case "sources":
		sources := wire.Sources
		if sources == nil {
			// A sources frame with no list still replaces wholesale.
			sources = []Source{}
		}
		return Event{Kind: EventSources, Sources: sources}

	case "content", "chunk":
		fragment := wire.Content
		if fragment == "" {
			fragment = wire.Chunk
		}
		return Event{Kind: EventContent, Content: fragment}

	case "complete":
		return Event{Kind: EventComplete, Content: wire.Content, Sources: wire.Sources}

	case "error":
		message := wire.Error
		if message == "" {
			message = "backend reported an unspecified error"
		}
		return Event{Kind: EventError, Message: message}

	default:
		// Unknown or missing discriminator: legacy raw-text frame.
		return Event{Kind: EventContent, Content: payload}
	}
}
