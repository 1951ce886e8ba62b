package archiver

import (
	"encoding/json"
	"fmt"

	"discord-archiver/models"

	"github.com/bwmarrin/discordgo"
)

// resolver fetches channel, account and guild metadata from the Discord
// API. Guild metadata is memoized for the lifetime of the resolver, so a
// run fetches each guild at most once.
type resolver struct {
	rest   restClient
	guilds map[string]*models.Guild
}

func newResolver(rest restClient) *resolver {
	return &resolver{rest: rest, guilds: make(map[string]*models.Guild)}
}

// Channel fetches one channel's metadata.
func (r *resolver) Channel(id string) (*models.Channel, error) {
	endpoint := discordgo.EndpointChannel(id)
	body, err := r.rest.RequestWithBucketID("GET", endpoint, nil, endpoint)
	if err != nil {
		return nil, err
	}

	var channel models.Channel
	if err := json.Unmarshal(body, &channel); err != nil {
		return nil, fmt.Errorf("failed to decode channel %s: %w", id, err)
	}
	return &channel, nil
}

// Account fetches one user's metadata.
func (r *resolver) Account(id string) (*models.Account, error) {
	endpoint := discordgo.EndpointUser(id)
	body, err := r.rest.RequestWithBucketID("GET", endpoint, nil, endpoint)
	if err != nil {
		return nil, err
	}

	var account models.Account
	if err := json.Unmarshal(body, &account); err != nil {
		return nil, fmt.Errorf("failed to decode account %s: %w", id, err)
	}
	return &account, nil
}

// Guild fetches a guild's roles and channels, merged into one record. Both
// requests must succeed; the merged record is cached so later lookups are
// free.
func (r *resolver) Guild(id string) (*models.Guild, error) {
	if guild, ok := r.guilds[id]; ok {
		return guild, nil
	}

	roles, err := r.namedEntities(discordgo.EndpointGuildRoles(id))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles for guild %s: %w", id, err)
	}
	channels, err := r.namedEntities(discordgo.EndpointGuildChannels(id))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channels for guild %s: %w", id, err)
	}

	guild := &models.Guild{ID: id, Roles: roles, Channels: channels}
	r.guilds[id] = guild
	return guild, nil
}

func (r *resolver) namedEntities(endpoint string) ([]models.NamedEntity, error) {
	body, err := r.rest.RequestWithBucketID("GET", endpoint, nil, endpoint)
	if err != nil {
		return nil, err
	}

	var entities []models.NamedEntity
	if err := json.Unmarshal(body, &entities); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	return entities, nil
}
