package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/angelospk/plexsubs/internal/constants"
	apperrors "github.com/angelospk/plexsubs/pkg/core/errors"
	"github.com/angelospk/plexsubs/pkg/core/opensubtitles"
	"github.com/angelospk/plexsubs/pkg/core/plex"
	"github.com/angelospk/plexsubs/pkg/processor"
)

var (
	downloadMethod    string
	downloadLibrary   string
	downloadMediaType string
	downloadLanguages string
	downloadMax       int
	downloadReport    string
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Scan libraries and download missing subtitles",
	Long: `Scans the configured Plex libraries for items missing subtitles in the
requested languages and downloads the best match for each.

Examples:
  plexsubs download --languages en,es
  plexsubs download --method plex --library Movies
  plexsubs download --type episode --max-downloads 20`,
	RunE: runDownload,
}

func init() {
	RootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVar(&downloadMethod, "method", processor.MethodLocal, "download method: local (direct file write) or plex (via Plex agent)")
	downloadCmd.Flags().StringVar(&downloadLibrary, "library", "", "specific library name to process (default: all movie and TV libraries)")
	downloadCmd.Flags().StringVar(&downloadMediaType, "type", "", "filter by media type: movie or episode")
	downloadCmd.Flags().StringVarP(&downloadLanguages, "languages", "l", "", "comma-separated language codes (overrides config)")
	downloadCmd.Flags().IntVar(&downloadMax, "max-downloads", 0, "maximum number of subtitles to download (0 = unlimited)")
	downloadCmd.Flags().StringVar(&downloadReport, "report", constants.DefaultReportFile, "output file for the download report")
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logger := newLogger()

	if downloadMethod != processor.MethodLocal && downloadMethod != processor.MethodPlex {
		return fmt.Errorf("%w: invalid --method '%s', must be local or plex", apperrors.ErrConfiguration, downloadMethod)
	}
	if downloadMediaType != "" && downloadMediaType != processor.MediaTypeMovie && downloadMediaType != processor.MediaTypeEpisode {
		return fmt.Errorf("%w: invalid --type '%s', must be movie or episode", apperrors.ErrConfiguration, downloadMediaType)
	}

	languages := cfg.Languages
	if downloadLanguages != "" {
		languages = parseLanguages(downloadLanguages)
	}
	if len(languages) == 0 {
		return fmt.Errorf("%w: no valid languages requested", apperrors.ErrConfiguration)
	}

	ctx := cmd.Context()

	plexClient, err := plex.NewClient(plex.Config{URL: cfg.PlexURL, Token: cfg.PlexToken})
	if err != nil {
		return err
	}
	identity, err := plexClient.Identity(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to Plex: %w", err)
	}
	logger.Infof("Connected to Plex server: %s", identity.FriendlyName)
	logger.Infof("Download method: %s", downloadMethod)
	logger.Infof("Target languages: %v", languages)

	var provider processor.SubtitleProvider
	if downloadMethod == processor.MethodLocal {
		osClient, err := newOpenSubtitlesClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if _, err := osClient.Logout(context.WithoutCancel(ctx)); err != nil {
				logger.WithError(err).Debug("Logout failed")
			}
		}()
		provider = osClient
	} else {
		logger.Info("Using Plex's built-in subtitle download")
	}

	report := processor.NewReport(downloadMethod, time.Now())
	runner := processor.NewRunner(plexClient, provider, report, processor.Options{
		Method:       downloadMethod,
		Library:      downloadLibrary,
		MediaType:    downloadMediaType,
		Languages:    languages,
		MaxDownloads: downloadMax,
	}, logger)

	stats, runErr := runner.Run(ctx)

	logger.Infof("Total items scanned: %d", stats.Scanned)
	logger.Infof("Items needing subtitles: %d", stats.NeedingSubtitles)
	logger.Infof("Subtitles downloaded: %d", stats.Downloaded)
	if stats.Skipped > 0 {
		logger.Infof("Items skipped (limit reached): %d", stats.Skipped)
	}
	logger.Infof("Errors: %d", stats.Errors)

	// Partial results are still worth reporting, even on a failed run.
	fmt.Fprintln(cmd.OutOrStdout(), report.Render())
	if report.Len() > 0 {
		if err := report.Save(downloadReport); err != nil {
			logger.WithError(err).Error("Failed to save report")
		} else {
			logger.Infof("Report saved to: %s", downloadReport)
		}
	}

	return runErr
}

// newOpenSubtitlesClient builds and authenticates the OpenSubtitles client
// required by the local method.
func newOpenSubtitlesClient(ctx context.Context, cfg Config) (*opensubtitles.Client, error) {
	if cfg.OSAPIKey == "" || cfg.OSUsername == "" || cfg.OSPassword == "" {
		return nil, fmt.Errorf("%w: OpenSubtitles credentials (apikey, username, password) are required for the local method", apperrors.ErrConfiguration)
	}
	client, err := opensubtitles.NewClient(opensubtitles.Config{ApiKey: cfg.OSAPIKey})
	if err != nil {
		return nil, err
	}
	if _, err := client.Login(ctx, opensubtitles.LoginRequest{
		Username: cfg.OSUsername,
		Password: cfg.OSPassword,
	}); err != nil {
		return nil, fmt.Errorf("OpenSubtitles login failed: %w", err)
	}
	return client, nil
}
