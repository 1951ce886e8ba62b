package archiver

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"discord-archiver/models"

	"github.com/bwmarrin/discordgo"
)

const defaultPageSize = 100

// messagePager walks a channel's message history backward in time. Each
// Next call fetches one page strictly older than the cursor, and the
// oldest message of that page becomes the next cursor. The sequence is
// finite and non-restartable.
type messagePager struct {
	rest    restClient
	channel string
	before  string
	limit   int
	done    bool
}

func newMessagePager(rest restClient, channelID, before string, limit int) *messagePager {
	if limit <= 0 {
		limit = defaultPageSize
	}
	return &messagePager{rest: rest, channel: channelID, before: before, limit: limit}
}

// Next returns the next batch of messages. A nil batch signals the end of
// the history; every call after that keeps returning nil.
func (p *messagePager) Next() ([]models.Message, error) {
	if p.done {
		return nil, nil
	}

	endpoint := discordgo.EndpointChannelMessages(p.channel)
	query := url.Values{}
	query.Set("limit", strconv.Itoa(p.limit))
	if p.before != "" {
		query.Set("before", p.before)
	}

	body, err := p.rest.RequestWithBucketID("GET", endpoint+"?"+query.Encode(), nil, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages from channel %s: %w", p.channel, err)
	}

	var batch []models.Message
	if err := json.Unmarshal(body, &batch); err != nil {
		return nil, fmt.Errorf("failed to decode message page: %w", err)
	}

	if len(batch) == 0 {
		p.done = true
		return nil, nil
	}

	p.before = batch[len(batch)-1].ID
	return batch, nil
}
