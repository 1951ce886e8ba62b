package models

// ArchiveConfig represents the "archive" section of config.yaml.
type ArchiveConfig struct {
	DataDir  string `json:"data_dir" mapstructure:"data_dir"`
	DBPath   string `json:"db_path" mapstructure:"db_path"`
	PageSize int    `json:"page_size" mapstructure:"page_size"`
	Timeout  string `json:"timeout" mapstructure:"timeout"`
	Schedule string `json:"schedule" mapstructure:"schedule"` // cron expression, empty = run once
}

// ChannelJob represents the configuration for a single channel to archive.
// The channels section of config.yaml is a map keyed by channel snowflake.
type ChannelJob struct {
	ChannelID string `json:"channel_id" mapstructure:"channel_id"`
	Name      string `json:"name" mapstructure:"name"`
	Before    string `json:"before" mapstructure:"before"` // starting cursor, empty = newest
	Resume    bool   `json:"resume" mapstructure:"resume"` // continue from oldest stored message
}
