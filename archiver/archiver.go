package archiver

import (
	"fmt"

	"discord-archiver/models"
	"discord-archiver/utils"

	"github.com/bwmarrin/discordgo"
)

// Store is the persistence sink for archived rows. Every write is an
// idempotent upsert: a conflicting primary key is a silent no-op.
type Store interface {
	SaveAccount(acc models.Account) error
	SaveChannel(ch models.Channel) error
	SaveMessage(rec models.MessageRecord) error
}

// MetadataSource resolves account and guild metadata on demand.
type MetadataSource interface {
	Account(id string) (*models.Account, error)
	Guild(id string) (*models.Guild, error)
}

// AttachmentSink stores attachment payloads outside the database.
type AttachmentSink interface {
	Offload(channelID string, att models.Attachment) error
}

// restClient is the slice of *discordgo.Session the archiver depends on:
// one authenticated request returning the raw response body.
type restClient interface {
	RequestWithBucketID(method, urlStr string, data interface{}, bucketID string, options ...discordgo.RequestOption) ([]byte, error)
}

// Options tunes a run.
type Options struct {
	PageSize int // messages per history page, defaults to 100
}

// Archiver drives the archival pipeline: channel metadata first, then the
// message history page by page, oldest last.
type Archiver struct {
	rest  restClient
	store Store
	files AttachmentSink
	opts  Options
}

// New creates an Archiver on top of an authenticated Discord session.
func New(session *discordgo.Session, store Store, files AttachmentSink, opts Options) *Archiver {
	return &Archiver{rest: session, store: store, files: files, opts: opts}
}

// Run archives the full history of one channel, walking pages backward in
// time from the cursor (or from the newest message when before is empty).
// Any transport or persistence error aborts the run; re-running with the
// last archived message id as the cursor picks up where it stopped.
func (a *Archiver) Run(channelID, before string) error {
	source := newResolver(a.rest)

	utils.Info("archiver", "selected channel", channelID)
	channel, err := source.Channel(channelID)
	if err != nil {
		return fmt.Errorf("failed to fetch channel %s: %w", channelID, err)
	}
	if !channel.Archivable() {
		return fmt.Errorf("channel %s has type %d, which cannot be archived", channelID, channel.Type)
	}

	utils.Info("archiver", "writing channel metadata", channelID)
	if err := a.store.SaveChannel(*channel); err != nil {
		return err
	}

	pipe := newPipeline(channel, a.store, source, a.files)
	pager := newMessagePager(a.rest, channelID, before, a.opts.PageSize)

	// Attachment downloads run in the background; whether the run
	// succeeds or aborts, it does not return until they have drained.
	defer pipe.Wait()

	utils.Info("archiver", "fetching messages", "")
	pages, total := 0, 0
	for {
		batch, err := pager.Next()
		if err != nil {
			return err
		}
		if batch == nil {
			break
		}
		for i := range batch {
			if err := pipe.Process(&batch[i]); err != nil {
				return err
			}
		}
		pages++
		total += len(batch)
		utils.Info("archiver", "archived page", fmt.Sprintf("%d (%d messages so far)", pages, total))
	}

	pipe.Wait()
	utils.Done("archiver", "archive complete", fmt.Sprintf("%d messages in %d pages", total, pages))
	return nil
}
