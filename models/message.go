package models

import "time"

// Message types the archiver knows how to normalize. Anything else is
// dropped before it reaches the database.
const (
	MessageTypeDefault         = 0
	MessageTypeRecipientAdd    = 1
	MessageTypeRecipientRemove = 2
	MessageTypeCall            = 3
	MessageTypePinNotice       = 6
	MessageTypeReply           = 19
)

// Message reference types.
const (
	ReferenceTypeDefault = 0
	ReferenceTypeForward = 1
)

// Account represents a Discord user as returned by the API.
type Account struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	GlobalName    string `json:"global_name"`
	Bot           bool   `json:"bot"`
	System        bool   `json:"system"`
}

// DisplayName returns the user-facing name: the global display name when
// set, otherwise the username.
func (a *Account) DisplayName() string {
	if a.GlobalName != "" {
		return a.GlobalName
	}
	return a.Username
}

// Channel represents a Discord channel as returned by the API.
type Channel struct {
	ID      string `json:"id"`
	Type    int    `json:"type"`
	Name    string `json:"name"`
	GuildID string `json:"guild_id"`
}

// Archivable reports whether this channel type can be archived. Only text
// channels, DMs and group DMs hold a linear message history.
func (c *Channel) Archivable() bool {
	switch c.Type {
	case 0, 1, 3: // text, DM, group DM
		return true
	}
	return false
}

// NamedEntity is a role or channel reduced to the id/name pair the mention
// resolver needs.
type NamedEntity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Guild holds the run-scoped role and channel metadata used to resolve
// <@&id> and <#id> mention tokens. It is never persisted.
type Guild struct {
	ID       string
	Roles    []NamedEntity
	Channels []NamedEntity
}

// Attachment describes a single message attachment.
type Attachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// Reaction is an emoji reaction with its tally.
type Reaction struct {
	Count int `json:"count"`
	Emoji struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"emoji"`
}

// Embed carries the subset of embed fields the normalizer renders for bot
// messages.
type Embed struct {
	Author *struct {
		Name string `json:"name"`
	} `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Footer      *struct {
		Text string `json:"text"`
	} `json:"footer"`
}

// Sticker is a sticker item attached to a message.
type Sticker struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MessageReference points at another message: the reply target or, for
// forwards, the forwarded source.
type MessageReference struct {
	Type      int    `json:"type"`
	MessageID string `json:"message_id"`
	ChannelID string `json:"channel_id"`
}

// MessageSnapshot is a forwarded message's copy of the source message at
// forward time.
type MessageSnapshot struct {
	Message struct {
		Type        int          `json:"type"`
		Content     string       `json:"content"`
		Attachments []Attachment `json:"attachments"`
		Mentions    []Account    `json:"mentions"`
		Embeds      []Embed      `json:"embeds"`
		Stickers    []Sticker    `json:"sticker_items"`
	} `json:"message"`
}

// Call is the call metadata carried by type-3 messages.
type Call struct {
	Participants   []string   `json:"participants"`
	EndedTimestamp *time.Time `json:"ended_timestamp"`
}

// Message is the wire shape of a channel message, limited to the fields the
// normalization pipeline reads or rewrites.
type Message struct {
	ID          string            `json:"id"`
	ChannelID   string            `json:"channel_id"`
	Author      Account           `json:"author"`
	Content     string            `json:"content"`
	Timestamp   time.Time         `json:"timestamp"`
	Mentions    []Account         `json:"mentions"`
	Attachments []Attachment      `json:"attachments"`
	Reactions   []Reaction        `json:"reactions"`
	Embeds      []Embed           `json:"embeds"`
	Stickers    []Sticker         `json:"sticker_items"`
	Pinned      bool              `json:"pinned"`
	Type        int               `json:"type"`
	Reference   *MessageReference `json:"message_reference"`
	Snapshots   []MessageSnapshot `json:"message_snapshots"`
	Call        *Call             `json:"call"`
}

// MessageRecord is the persist-ready form of a message: normalized display
// content plus the encoded attachment and reaction side fields.
type MessageRecord struct {
	ID          string
	ChannelID   string
	AuthorID    string
	Content     string
	Timestamp   int64
	Attachments string
	Reactions   string
	Pinned      bool
}
