package database

import (
	"path/filepath"
	"testing"

	"discord-archiver/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *ArchiveDB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seed(t *testing.T, db *ArchiveDB) {
	t.Helper()
	require.NoError(t, db.SaveChannel(models.Channel{ID: "c1", Type: 0, Name: "general"}))
	require.NoError(t, db.SaveAccount(models.Account{ID: "u1", Username: "jane", Discriminator: "0"}))
}

func TestSaveAccountIdempotent(t *testing.T) {
	db := openTestDB(t)

	first := models.Account{ID: "u1", Username: "jane", Discriminator: "0", GlobalName: "Jane"}
	require.NoError(t, db.SaveAccount(first))

	// A second write with different fields must not overwrite the row.
	second := first
	second.Username = "changed"
	require.NoError(t, db.SaveAccount(second))

	var username string
	require.NoError(t, db.db.QueryRow("SELECT username FROM account WHERE id = ?", "u1").Scan(&username))
	assert.Equal(t, "jane", username)
}

func TestSaveChannelConflictIsNoOp(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SaveChannel(models.Channel{ID: "c1", Type: 0, Name: "general"}))
	require.NoError(t, db.SaveChannel(models.Channel{ID: "c1", Type: 0, Name: "renamed"}))

	var name string
	require.NoError(t, db.db.QueryRow("SELECT name FROM channel WHERE id = ?", "c1").Scan(&name))
	assert.Equal(t, "general", name)
}

func TestSaveMessageFirstWriteWins(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)

	rec := models.MessageRecord{
		ID:        "m1",
		ChannelID: "c1",
		AuthorID:  "u1",
		Content:   "hello",
		Timestamp: 1714565000,
	}
	require.NoError(t, db.SaveMessage(rec))

	rec.Content = "resumed run saw different content"
	rec.Timestamp = 1714570000
	require.NoError(t, db.SaveMessage(rec))

	var content string
	var timestamp int64
	require.NoError(t, db.db.QueryRow("SELECT content, timestamp FROM message WHERE id = ?", "m1").Scan(&content, &timestamp))
	assert.Equal(t, "hello", content)
	assert.Equal(t, int64(1714565000), timestamp)

	count, err := db.MessageCount("c1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestOldestMessageID(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)

	id, err := db.OldestMessageID("c1")
	require.NoError(t, err)
	assert.Equal(t, "", id)

	require.NoError(t, db.SaveMessage(models.MessageRecord{ID: "m2", ChannelID: "c1", AuthorID: "u1", Timestamp: 200}))
	require.NoError(t, db.SaveMessage(models.MessageRecord{ID: "m1", ChannelID: "c1", AuthorID: "u1", Timestamp: 100}))

	id, err = db.OldestMessageID("c1")
	require.NoError(t, err)
	assert.Equal(t, "m1", id)
}

func TestMessageCountPerChannel(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	require.NoError(t, db.SaveChannel(models.Channel{ID: "c2", Type: 0}))

	require.NoError(t, db.SaveMessage(models.MessageRecord{ID: "m1", ChannelID: "c1", AuthorID: "u1", Timestamp: 1}))
	require.NoError(t, db.SaveMessage(models.MessageRecord{ID: "m2", ChannelID: "c2", AuthorID: "u1", Timestamp: 2}))

	count, err := db.MessageCount("c1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
