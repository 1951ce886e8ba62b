package archiver

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"

	"discord-archiver/models"
	"discord-archiver/utils"
)

var (
	userMention    = regexp.MustCompile(`<@(\d{0,20})>`)
	channelMention = regexp.MustCompile(`<#(\d{0,20})>`)
	roleMention    = regexp.MustCompile(`<@&(\d{0,20})>`)
	guildMention   = regexp.MustCompile(`<#\d{0,20}>|<@&\d{0,20}>`)
)

// pipeline normalizes raw messages from one channel into their persist-ready
// form and hands them to the store. It owns the run-scoped state: the active
// channel, the lazily fetched guild metadata behind the resolver, and the
// set of accounts already written.
type pipeline struct {
	channel  *models.Channel
	store    Store
	source   MetadataSource
	files    AttachmentSink
	accounts *accountRegistry
	offloads sync.WaitGroup
}

func newPipeline(channel *models.Channel, store Store, source MetadataSource, files AttachmentSink) *pipeline {
	return &pipeline{
		channel:  channel,
		store:    store,
		source:   source,
		files:    files,
		accounts: newAccountRegistry(store),
	}
}

// Process normalizes one message and persists it. Messages of unsupported
// types are dropped without any side effect.
func (p *pipeline) Process(msg *models.Message) error {
	switch msg.Type {
	case models.MessageTypeDefault, models.MessageTypeRecipientAdd, models.MessageTypeRecipientRemove,
		models.MessageTypeCall, models.MessageTypePinNotice, models.MessageTypeReply:
	default:
		return nil
	}

	// The author has to be registered before content synthesis: several of
	// the synthesized forms reference the author's display name, and the
	// message row references the account row.
	if err := p.accounts.Register(msg.Author); err != nil {
		return err
	}

	var attachments string
	var err error
	switch msg.Type {
	case models.MessageTypeDefault, models.MessageTypeReply:
		attachments, err = p.normalizeDefault(msg)
	case models.MessageTypeRecipientAdd, models.MessageTypeRecipientRemove:
		err = p.normalizeMembership(msg)
	case models.MessageTypeCall:
		if msg.Call != nil {
			err = p.normalizeCall(msg)
		} else {
			// Call messages without call data read like pin notices.
			p.normalizePinNotice(msg)
		}
	case models.MessageTypePinNotice:
		p.normalizePinNotice(msg)
	}
	if err != nil {
		return err
	}

	return p.store.SaveMessage(models.MessageRecord{
		ID:          msg.ID,
		ChannelID:   msg.ChannelID,
		AuthorID:    msg.Author.ID,
		Content:     msg.Content,
		Timestamp:   msg.Timestamp.Unix(),
		Attachments: attachments,
		Reactions:   encodeReactions(msg.Reactions),
		Pinned:      msg.Pinned,
	})
}

// Wait blocks until all background attachment offloads have finished.
func (p *pipeline) Wait() {
	p.offloads.Wait()
}

// normalizeDefault handles plain and reply messages: reply/forward markers,
// bot embeds, mention resolution, attachments and stickers. It returns the
// encoded attachment id list.
func (p *pipeline) normalizeDefault(msg *models.Message) (string, error) {
	if msg.Reference != nil {
		switch msg.Reference.Type {
		case models.ReferenceTypeDefault:
			msg.Content = fmt.Sprintf("<REPLY:%s> %s", msg.Reference.MessageID, msg.Content)
		case models.ReferenceTypeForward:
			// The first snapshot's fields supersede the message's own.
			if len(msg.Snapshots) > 0 {
				snap := msg.Snapshots[0].Message
				msg.Content = "<FORWARD> " + snap.Content
				msg.Attachments = snap.Attachments
				msg.Mentions = snap.Mentions
				msg.Stickers = snap.Stickers
				msg.Embeds = snap.Embeds
			}
		}
	}

	if msg.Author.Bot && len(msg.Embeds) > 0 {
		if len(msg.Content) > 0 {
			msg.Content += "\n"
		}
		msg.Content += "<EMBED>"
		embed := msg.Embeds[0]
		var body string
		if embed.Author != nil {
			body += "\n" + embed.Author.Name
		}
		if embed.Title != "" {
			body += "\n" + embed.Title
		}
		if embed.Description != "" {
			body += "\n" + embed.Description
		}
		if embed.Footer != nil {
			body += "\n" + embed.Footer.Text
		}
		if body == "" {
			body = "content-undefined"
		}
		msg.Content += body
	}

	// Register every mentioned account, then replace raw user mention
	// tokens with display names. The replacement runs even when the
	// mentions list is empty: ids with no matching entry resolve to a
	// sentinel, never an error and never a raw token.
	for _, user := range msg.Mentions {
		if err := p.accounts.Register(user); err != nil {
			return "", err
		}
	}
	for _, match := range userMention.FindAllStringSubmatch(msg.Content, -1) {
		name := "unknown-user"
		for _, user := range msg.Mentions {
			if user.ID == match[1] {
				name = user.DisplayName()
				break
			}
		}
		msg.Content = strings.ReplaceAll(msg.Content, match[0], "@"+quoteName(name))
	}

	// Channel and role mentions need guild metadata, fetched on first use
	// and cached for the rest of the run. DMs have no guild to consult, so
	// their tokens stay raw.
	if guildMention.MatchString(msg.Content) && p.channel.GuildID != "" {
		guild, err := p.source.Guild(p.channel.GuildID)
		if err != nil {
			return "", err
		}
		for _, match := range channelMention.FindAllStringSubmatch(msg.Content, -1) {
			name := lookupName(guild.Channels, match[1], "unknown-channel")
			msg.Content = strings.ReplaceAll(msg.Content, match[0], "#"+name)
		}
		for _, match := range roleMention.FindAllStringSubmatch(msg.Content, -1) {
			name := lookupName(guild.Roles, match[1], "unknown-role")
			msg.Content = strings.ReplaceAll(msg.Content, match[0], "@"+quoteName(name))
		}
	}

	// Offload attachments in the background and record their ids. Failures
	// are logged, not fatal: the message row does not depend on them.
	ids := make([]string, 0, len(msg.Attachments))
	for _, att := range msg.Attachments {
		ids = append(ids, att.ID)
		p.offloads.Add(1)
		go func(att models.Attachment) {
			defer p.offloads.Done()
			if err := p.files.Offload(p.channel.ID, att); err != nil {
				utils.Error("archiver", "attachment offload", err.Error())
			}
		}(att)
	}

	// Stickers become inline <name:id> markers.
	for i, sticker := range msg.Stickers {
		if i != 0 {
			msg.Content += ", "
		}
		msg.Content += fmt.Sprintf("<%s:%s>", sticker.Name, sticker.ID)
	}

	return strings.Join(ids, ", "), nil
}

// normalizeMembership synthesizes the group add/remove/leave sentences for
// recipient-add and recipient-remove messages.
func (p *pipeline) normalizeMembership(msg *models.Message) error {
	author := quoteName(msg.Author.DisplayName())

	recipient := "unknown-user"
	if len(msg.Mentions) > 0 {
		if err := p.accounts.Register(msg.Mentions[0]); err != nil {
			return err
		}
		recipient = quoteName(msg.Mentions[0].DisplayName())
	}

	switch {
	case msg.Type == models.MessageTypeRecipientAdd:
		msg.Content = fmt.Sprintf("@%s added @%s to the group.", author, recipient)
	case author == recipient:
		msg.Content = fmt.Sprintf("@%s left the group.", author)
	default:
		msg.Content = fmt.Sprintf("@%s removed @%s from the group.", author, recipient)
	}
	return nil
}

// normalizeCall resolves and registers every call participant, then
// synthesizes the call summary sentence.
func (p *pipeline) normalizeCall(msg *models.Message) error {
	names := make([]string, 0, len(msg.Call.Participants))
	for _, id := range msg.Call.Participants {
		account, err := p.source.Account(id)
		if err != nil {
			return fmt.Errorf("failed to resolve call participant %s: %w", id, err)
		}
		if err := p.accounts.Register(*account); err != nil {
			return err
		}
		names = append(names, account.DisplayName())
	}

	author := quoteName(msg.Author.DisplayName())
	participants := strings.Join(names, ", ")
	if msg.Call.EndedTimestamp != nil {
		minutes := int(math.Round(msg.Call.EndedTimestamp.Sub(msg.Timestamp).Minutes()))
		msg.Content = fmt.Sprintf("@%s started a call that lasted %d minutes. Call participants were: %s.",
			author, minutes, participants)
	} else {
		// No end timestamp, so no duration to report.
		msg.Content = fmt.Sprintf("@%s started a call. Call participants were: %s.", author, participants)
	}
	return nil
}

// normalizePinNotice synthesizes the pinned-message notice. Without a
// message reference the content is left as-is.
func (p *pipeline) normalizePinNotice(msg *models.Message) {
	if msg.Reference == nil {
		return
	}
	ref := msg.Reference.MessageID
	if ref == "" {
		ref = "unknown-ID"
	}
	msg.Content = fmt.Sprintf("%s pinned a message <%s> to this channel.", msg.Author.DisplayName(), ref)
}

// quoteName wraps names containing a space in double quotes so they stay
// readable next to the @ and # markers.
func quoteName(name string) string {
	if strings.Contains(name, " ") {
		return `"` + name + `"`
	}
	return name
}

func lookupName(entities []models.NamedEntity, id, fallback string) string {
	for _, entity := range entities {
		if entity.ID == id {
			return entity.Name
		}
	}
	return fallback
}

func encodeReactions(reactions []models.Reaction) string {
	parts := make([]string, 0, len(reactions))
	for _, reaction := range reactions {
		parts = append(parts, fmt.Sprintf("<%d:%s:%s>", reaction.Count, reaction.Emoji.Name, reaction.Emoji.ID))
	}
	return strings.Join(parts, ", ")
}
