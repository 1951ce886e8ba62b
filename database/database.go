package database

import (
	"database/sql"
	"discord-archiver/models"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // Import the SQLite3 driver
)

// ArchiveDB wraps the SQLite connection holding the archived channel data.
type ArchiveDB struct {
	db *sql.DB
}

// Open initializes the archive database at the given path, creating the
// directory, the tables and the indexes as needed.
func Open(dbPath string) (*ArchiveDB, error) {
	// Ensure the directory for the database file exists.
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open the SQLite database. It will be created if it doesn't exist.
	// WAL keeps readers usable while a run is writing; foreign keys tie
	// message rows to their channel and author rows. Both are set through
	// the DSN so every pooled connection gets them.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Ping the database to verify the connection.
	if err = db.Ping(); err != nil {
		db.Close() // Close the connection if ping fails
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Println("Successfully connected to the database at", dbPath)
	return &ArchiveDB{db: db}, nil
}

// createTables creates the account, channel and message tables if they
// don't exist.
func createTables(db *sql.DB) error {
	schema := `
    CREATE TABLE IF NOT EXISTS account (
        id TEXT PRIMARY KEY,
        username TEXT NOT NULL,
        discriminator TEXT NOT NULL,
        global_name TEXT,
        bot INTEGER NOT NULL DEFAULT 0,
        system INTEGER NOT NULL DEFAULT 0
    );
    CREATE TABLE IF NOT EXISTS channel (
        id TEXT PRIMARY KEY,
        type INTEGER NOT NULL,
        name TEXT
    );
    CREATE TABLE IF NOT EXISTS message (
        id TEXT PRIMARY KEY,
        channel_id TEXT REFERENCES channel(id),
        author_id TEXT REFERENCES account(id),
        content TEXT,
        timestamp INTEGER,
        attachments TEXT DEFAULT '',
        reactions TEXT DEFAULT '',
        pinned INTEGER NOT NULL DEFAULT 0
    );`

	if _, err := db.Exec(schema); err != nil {
		return err
	}

	// Index for resume-cursor and stats queries.
	indexQuery := "CREATE INDEX IF NOT EXISTS idx_message_channel_timestamp ON message(channel_id, timestamp);"
	if _, err := db.Exec(indexQuery); err != nil {
		log.Printf("Warning: failed to create index: %v", err)
	}

	return nil
}

// SaveAccount inserts an account row. A row with the same id already in
// place is left untouched.
func (a *ArchiveDB) SaveAccount(acc models.Account) error {
	query := `INSERT OR IGNORE INTO account (id, username, discriminator, global_name, bot, system)
              VALUES (?, ?, ?, ?, ?, ?)`

	stmt, err := a.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for saving account: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(acc.ID, acc.Username, acc.Discriminator, acc.GlobalName, acc.Bot, acc.System)
	if err != nil {
		return fmt.Errorf("failed to execute statement for saving account %s: %w", acc.ID, err)
	}

	return nil
}

// SaveChannel inserts the channel row. It is expected to run once per
// invocation; a conflicting row from an earlier run is a no-op.
func (a *ArchiveDB) SaveChannel(ch models.Channel) error {
	query := `INSERT OR IGNORE INTO channel (id, type, name) VALUES (?, ?, ?)`

	stmt, err := a.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for saving channel: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(ch.ID, ch.Type, ch.Name)
	if err != nil {
		return fmt.Errorf("failed to execute statement for saving channel %s: %w", ch.ID, err)
	}

	return nil
}

// SaveMessage inserts a normalized message row. Re-inserting an id already
// stored by a previous or overlapping run is a no-op: the first write wins.
func (a *ArchiveDB) SaveMessage(rec models.MessageRecord) error {
	query := `INSERT OR IGNORE INTO message (id, channel_id, author_id, content, timestamp, attachments, reactions, pinned)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := a.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(rec.ID, rec.ChannelID, rec.AuthorID, rec.Content, rec.Timestamp, rec.Attachments, rec.Reactions, rec.Pinned)
	if err != nil {
		return fmt.Errorf("failed to insert message %s: %w", rec.ID, err)
	}

	return nil
}

// OldestMessageID returns the id of the oldest archived message in a
// channel, or "" when the channel has no rows yet. Used as the resume
// cursor for interrupted runs.
func (a *ArchiveDB) OldestMessageID(channelID string) (string, error) {
	var id string
	err := a.db.QueryRow(
		"SELECT id FROM message WHERE channel_id = ? ORDER BY timestamp ASC, id ASC LIMIT 1",
		channelID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query oldest message for channel %s: %w", channelID, err)
	}
	return id, nil
}

// MessageCount returns the number of archived messages for a channel.
func (a *ArchiveDB) MessageCount(channelID string) (int64, error) {
	var count int64
	err := a.db.QueryRow("SELECT COUNT(*) FROM message WHERE channel_id = ?", channelID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get message count for channel %s: %w", channelID, err)
	}
	return count, nil
}

// Close closes the database connection.
func (a *ArchiveDB) Close() error {
	return a.db.Close()
}
