package ws

// Client -> server message types.
const (
	TypeChat  = "chat"
	TypeReact = "react"
)

// Server -> client message types.
const (
	TypeMessage = "message"
	TypeEmbed   = "embed"
)

// Inbound is a message received from a connected client.
type Inbound struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Option    string `json:"option,omitempty"`
}

// Outbound is a message delivered to clients of a channel.
type Outbound struct {
	Type    string        `json:"type"`
	ID      string        `json:"id"`
	Channel string        `json:"channel"`
	Content string        `json:"content,omitempty"`
	Embed   *EmbedPayload `json:"embed,omitempty"`
}

// EmbedPayload is the wire form of a question embed.
type EmbedPayload struct {
	Description string       `json:"description"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      string       `json:"footer,omitempty"`
	ImageURL    string       `json:"image_url,omitempty"`
}

// EmbedField is one labelled option.
type EmbedField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
