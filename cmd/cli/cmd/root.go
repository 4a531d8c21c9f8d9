package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/angelospk/plexsubs/pkg/core/language"
)

// Configuration keys.
const (
	CfgKeyPlexURL    = "plex.url"
	CfgKeyPlexToken  = "plex.token"
	CfgKeyOSAPIKey   = "opensubtitles.apikey"
	CfgKeyOSUsername = "opensubtitles.username"
	CfgKeyOSPassword = "opensubtitles.password"
	CfgKeyLanguages  = "languages"
)

var (
	// Used for flags.
	cfgFile string
	verbose bool

	// RootCmd represents the base command when called without any subcommands.
	// Exported for use in tests.
	RootCmd = &cobra.Command{
		Use:   "plexsubs",
		Short: "Download missing subtitles for Plex media",
		Long: `plexsubs scans Plex libraries for items missing subtitles in the
requested languages, finds the best match on OpenSubtitles and either writes
the subtitle next to the media file (local method) or delegates the download
to Plex's own subtitle agent (plex method).`,
		SilenceUsage: true,
	}
)

// Config carries all settings the commands need. It is assembled once from
// viper and passed by value into components, so nothing below the command
// layer reads ambient configuration.
type Config struct {
	PlexURL    string
	PlexToken  string
	OSAPIKey   string
	OSUsername string
	OSPassword string
	Languages  []string // Normalized 2-letter codes
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute(ctx context.Context) {
	if err := RootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.plexsubs/config.yaml or ./config.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// initConfig reads in the config file and PLEXSUBS_-prefixed env variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, ".plexsubs"))
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetDefault(CfgKeyPlexURL, "http://localhost:32400")
	viper.SetDefault(CfgKeyLanguages, "en")

	viper.SetEnvPrefix("PLEXSUBS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error reading config file (%s): %v\n", viper.ConfigFileUsed(), err)
		}
	}
}

// loadConfig assembles the Config record from viper.
func loadConfig() Config {
	return Config{
		PlexURL:    viper.GetString(CfgKeyPlexURL),
		PlexToken:  viper.GetString(CfgKeyPlexToken),
		OSAPIKey:   viper.GetString(CfgKeyOSAPIKey),
		OSUsername: viper.GetString(CfgKeyOSUsername),
		OSPassword: viper.GetString(CfgKeyOSPassword),
		Languages:  configuredLanguages(),
	}
}

// configuredLanguages reads the languages setting, which may be a YAML list
// or a comma-separated string from the environment, and normalizes it.
func configuredLanguages() []string {
	langs := viper.GetStringSlice(CfgKeyLanguages)
	if len(langs) == 1 && strings.Contains(langs[0], ",") {
		langs = strings.Split(langs[0], ",")
	}
	return language.NormalizeAll(langs)
}

// parseLanguages normalizes a comma-separated flag value.
func parseLanguages(raw string) []string {
	return language.NormalizeAll(strings.Split(raw, ","))
}

// newLogger builds the logger shared by a command invocation.
func newLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}
