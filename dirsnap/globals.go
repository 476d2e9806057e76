package internal

import (
	"log"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

var (
	// DefaultAppName is the canonical application name
	DefaultAppName = "dirsnap"
	// DefaultConfigPath is the default path to the config directory
	DefaultConfigPath = filepath.Join(getHomeDir(), ".config", DefaultAppName)
	// DefaultSnapshotDir is where snapshot databases land when no destination is given
	DefaultSnapshotDir = filepath.Join(DefaultConfigPath, "snapshots")
	// DefaultIgnoreFile is the per-directory ignore file consulted by the CLI
	DefaultIgnoreFile = "." + DefaultAppName + "ignore"
)

// Version is the application version, set via ldflags at build time.
// It is stamped into the _metadata table of every snapshot created.
var Version = "dev"

const (
	// MetadataSource identifies the tool in the _metadata provenance row
	MetadataSource = "https://github.com/mtreilly/dirsnap"
	// MetadataDescription is the fixed description in the _metadata provenance row
	MetadataDescription = "Directory snapshot created by dirsnap"
)

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current working directory if home directory is unavailable
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			log.Printf("Unable to get home or working directory, using /tmp: %v", err)
			return "/tmp"
		}
		log.Printf("Unable to get home directory, using current working directory: %v", err)
		return cwd
	}
	return homeDir
}

// GetLogger returns a properly configured zerolog logger instance
func GetLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
