package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"discord-archiver/archiver"
	"discord-archiver/config"
	"discord-archiver/database"
	"discord-archiver/models"
	"discord-archiver/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/mitchellh/mapstructure"
	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	config.LoadConfig()

	channelID := pflag.String("channel", "", "id of the channel to archive")
	before := pflag.String("before", "", "message id to resume pagination from")
	resume := pflag.Bool("resume", false, "continue from the oldest archived message")
	pflag.Parse()

	token := viper.GetString("BOT_TOKEN")
	if token == "" {
		log.Fatal("No bot token provided. Please set BOT_TOKEN in your .env or config file.")
	}

	var cfg models.ArchiveConfig
	if err := viper.UnmarshalKey("archive", &cfg); err != nil {
		log.Fatalf("Could not decode archive config: %v", err)
	}

	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		log.Fatalf("Invalid archive.timeout %q: %v", cfg.Timeout, err)
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		log.Fatalf("Error creating Discord session: %v", err)
	}
	session.Client.Timeout = timeout

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	defer db.Close()

	files := archiver.NewOffloader(&http.Client{Timeout: timeout}, cfg.DataDir)
	arc := archiver.New(session, db, files, archiver.Options{PageSize: cfg.PageSize})

	jobs := collectJobs(*channelID, *before, *resume)
	if len(jobs) == 0 {
		log.Fatal("No channel to archive: pass --channel or add a channels section to config.yaml.")
	}

	if cfg.Schedule == "" {
		if err := runAll(arc, db, jobs); err != nil {
			log.Fatalf("Error archiving: %v", err)
		}
		return
	}

	// Scheduled mode: every insert is idempotent, so re-running from the
	// newest message tops up the archive with whatever arrived since the
	// last tick.
	c := cron.New()
	_, err = c.AddFunc(cfg.Schedule, func() {
		if err := runAll(arc, db, jobs); err != nil {
			utils.Error("main", "scheduled run failed", err.Error())
		}
	})
	if err != nil {
		log.Fatalf("Could not set up cron job: %v", err)
	}
	c.Start()
	utils.Info("main", "scheduler started", cfg.Schedule)

	if err := runAll(arc, db, jobs); err != nil {
		utils.Error("main", "initial run failed", err.Error())
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	c.Stop()
	utils.Info("main", "scheduler stopped", "")
}

// collectJobs builds the list of channels to archive: the --channel flag
// when given, otherwise the channels map from config.yaml.
func collectJobs(channelID, before string, resume bool) []models.ChannelJob {
	if channelID != "" {
		return []models.ChannelJob{{ChannelID: channelID, Before: before, Resume: resume}}
	}

	var jobs []models.ChannelJob
	for key, value := range viper.GetStringMap("channels") {
		// Channel keys are snowflakes, skip anything else.
		if _, err := strconv.ParseUint(key, 10, 64); err != nil {
			continue
		}

		var job models.ChannelJob
		if err := mapstructure.Decode(value, &job); err != nil {
			log.Printf("Could not decode config for channel %s: %v", key, err)
			continue
		}
		job.ChannelID = key
		jobs = append(jobs, job)
	}
	return jobs
}

func runAll(arc *archiver.Archiver, db *database.ArchiveDB, jobs []models.ChannelJob) error {
	for _, job := range jobs {
		if err := runJob(arc, db, job); err != nil {
			return err
		}
	}
	return nil
}

// runJob archives one channel, resolving the resume cursor from the
// database when requested.
func runJob(arc *archiver.Archiver, db *database.ArchiveDB, job models.ChannelJob) error {
	before := job.Before
	if job.Resume && before == "" {
		id, err := db.OldestMessageID(job.ChannelID)
		if err != nil {
			return err
		}
		if id != "" {
			before = id
			utils.Info("main", "resuming from message", id)
		}
	}
	return arc.Run(job.ChannelID, before)
}
