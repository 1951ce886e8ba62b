package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from multiple sources: the .env file,
// config.yaml, and environment variables. Environment variables override
// settings of the same name from the config file.
func LoadConfig() {
	// 1. Load environment variables from .env, ignore if the file is missing.
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, skipping.")
	}

	// 2. Set up and read the base config file (config.yaml).
	viper.SetConfigName("config")                          // config file name (no extension)
	viper.SetConfigType("yaml")                            // config file type
	viper.AddConfigPath(".")                               // look in the working directory
	viper.AutomaticEnv()                                   // read matching environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map '.' in keys to '_' for env vars

	// Defaults for the archive section.
	viper.SetDefault("archive.data_dir", "./data")
	viper.SetDefault("archive.db_path", "./data/archive.db")
	viper.SetDefault("archive.page_size", 100)
	viper.SetDefault("archive.timeout", "10s")
	viper.SetDefault("archive.schedule", "")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// A missing config file is fine, environment variables and
			// defaults cover everything.
			log.Printf("No config.yaml found, using environment variables and defaults.")
		} else {
			panic(fmt.Errorf("fatal error reading config file: %w", err))
		}
	}
}
