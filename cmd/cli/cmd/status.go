package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	apperrors "github.com/angelospk/plexsubs/pkg/core/errors"
	"github.com/angelospk/plexsubs/pkg/core/fileops"
	"github.com/angelospk/plexsubs/pkg/core/opensubtitles"
	"github.com/angelospk/plexsubs/pkg/core/plex"
	"github.com/angelospk/plexsubs/pkg/processor"
)

var statusMethod string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check configuration and connectivity without downloading",
	Long: `Audits the configuration, verifies Plex and OpenSubtitles connectivity,
lists the available libraries and probes write permissions for the local
download method. Exits non-zero when blocking issues are found.`,
	RunE: runStatus,
}

func init() {
	RootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusMethod, "method", processor.MethodLocal, "download method to check prerequisites for: local or plex")
}

// statusChecker accumulates findings in three severities. Only issues block.
type statusChecker struct {
	info     []string
	warnings []string
	issues   []string
}

func (s *statusChecker) infof(format string, args ...any) {
	s.info = append(s.info, fmt.Sprintf(format, args...))
}
func (s *statusChecker) warnf(format string, args ...any) {
	s.warnings = append(s.warnings, fmt.Sprintf(format, args...))
}
func (s *statusChecker) issuef(format string, args ...any) {
	s.issues = append(s.issues, fmt.Sprintf(format, args...))
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if statusMethod != processor.MethodLocal && statusMethod != processor.MethodPlex {
		return fmt.Errorf("%w: invalid --method '%s', must be local or plex", apperrors.ErrConfiguration, statusMethod)
	}

	checker := &statusChecker{}
	checker.checkConfiguration(cfg, statusMethod)
	checker.checkPlex(ctx, cfg, statusMethod, out)
	if statusMethod == processor.MethodLocal && cfg.OSAPIKey != "" {
		checker.checkOpenSubtitles(ctx, cfg)
	}

	checker.print(out)
	if len(checker.issues) > 0 {
		return fmt.Errorf("%w: %d blocking issue(s) found", apperrors.ErrConfiguration, len(checker.issues))
	}
	return nil
}

func (s *statusChecker) checkConfiguration(cfg Config, method string) {
	s.infof("✓ Download method: %s", method)

	if cfg.PlexURL != "" {
		s.infof("✓ Plex URL: %s", cfg.PlexURL)
	} else {
		s.issuef("✗ plex.url is not set")
	}
	if cfg.PlexToken != "" {
		s.infof("✓ Plex token: %s", maskSecret(cfg.PlexToken))
	} else {
		s.issuef("✗ plex.token is not set")
	}

	if method == processor.MethodLocal {
		if cfg.OSAPIKey != "" {
			s.infof("✓ OpenSubtitles API key: %s", maskSecret(cfg.OSAPIKey))
		} else {
			s.issuef("✗ opensubtitles.apikey is not set (required for local method)")
		}
		if cfg.OSUsername != "" {
			s.infof("✓ OpenSubtitles username: %s", cfg.OSUsername)
		} else {
			s.issuef("✗ opensubtitles.username is not set (required for local method)")
		}
		if cfg.OSPassword != "" {
			s.infof("✓ OpenSubtitles password: %s", strings.Repeat("*", len(cfg.OSPassword)))
		} else {
			s.issuef("✗ opensubtitles.password is not set (required for local method)")
		}
	}

	if len(cfg.Languages) > 0 {
		s.infof("✓ Languages: %s", strings.Join(cfg.Languages, ", "))
	} else {
		s.issuef("✗ no valid languages configured")
	}
}

func (s *statusChecker) checkPlex(ctx context.Context, cfg Config, method string, out io.Writer) {
	client, err := plex.NewClient(plex.Config{URL: cfg.PlexURL, Token: cfg.PlexToken})
	if err != nil {
		s.issuef("✗ Plex client: %v", err)
		return
	}

	identity, err := client.Identity(ctx)
	if err != nil {
		s.issuef("✗ Failed to connect to Plex: %v", err)
		return
	}
	s.infof("✓ Connected to Plex server: %s (version %s, %s)", identity.FriendlyName, identity.Version, identity.Platform)

	libraries, err := client.Libraries(ctx)
	if err != nil {
		s.issuef("✗ Failed to list Plex libraries: %v", err)
		return
	}

	var mediaLibs []plex.Library
	for _, lib := range libraries {
		if lib.Type == "movie" || lib.Type == "show" {
			mediaLibs = append(mediaLibs, lib)
		}
	}
	if len(mediaLibs) == 0 {
		s.warnf("⚠ No movie or TV show libraries found")
		return
	}
	s.infof("✓ Found %d movie/TV libraries", len(mediaLibs))

	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Key", "Title", "Type"})
	for _, lib := range mediaLibs {
		tw.AppendRow(table.Row{lib.Key, lib.Title, lib.Type})
	}
	tw.Render()

	if method == processor.MethodLocal {
		s.checkWritePermission(ctx, client, mediaLibs)
	} else {
		s.infof("ℹ Skipping filesystem write check (using Plex download method)")
	}
}

// checkWritePermission probes the directory of the first item with a file
// path, the same place the local method would write subtitles to.
func (s *statusChecker) checkWritePermission(ctx context.Context, client *plex.Client, libs []plex.Library) {
	for _, lib := range libs {
		var items []plex.Metadata
		var err error
		if lib.Type == "movie" {
			items, err = client.MovieItems(ctx, lib.Key)
		} else {
			items, err = client.Episodes(ctx, lib.Key)
		}
		if err != nil || len(items) == 0 {
			continue
		}
		for _, item := range items {
			path := item.FilePath()
			if path == "" {
				continue
			}
			dir := filepath.Dir(path)
			if err := fileops.EnsureWritable(dir); err != nil {
				if errors.Is(err, apperrors.ErrPermission) {
					s.issuef("✗ No write permission in: %s", dir)
					s.infof("  → Consider using --method plex for remote downloads")
				} else {
					s.warnf("⚠ Could not test write permissions: %v", err)
				}
			} else {
				s.infof("✓ Write permissions OK in: %s", dir)
			}
			return
		}
	}
	s.warnf("⚠ No media file found to test write permissions against")
}

func (s *statusChecker) checkOpenSubtitles(ctx context.Context, cfg Config) {
	client, err := opensubtitles.NewClient(opensubtitles.Config{ApiKey: cfg.OSAPIKey})
	if err != nil {
		s.issuef("✗ OpenSubtitles client: %v", err)
		return
	}

	// A cheap search validates the API key without consuming quota.
	if _, err := client.SearchSubtitles(ctx, opensubtitles.SearchSubtitlesParams{
		Query:     opensubtitles.String("test"),
		Languages: opensubtitles.String("en"),
	}); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUnauthorized):
			s.issuef("✗ OpenSubtitles API key is invalid")
			return
		case errors.Is(err, apperrors.ErrRateLimited):
			s.warnf("⚠ Rate limit exceeded - wait before making more requests")
		default:
			s.issuef("✗ Failed to connect to OpenSubtitles API: %v", err)
			return
		}
	} else {
		s.infof("✓ OpenSubtitles API key is valid")
	}

	if cfg.OSUsername == "" || cfg.OSPassword == "" {
		return
	}
	login, err := client.Login(ctx, opensubtitles.LoginRequest{Username: cfg.OSUsername, Password: cfg.OSPassword})
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			s.issuef("✗ Invalid OpenSubtitles username or password")
		} else {
			s.warnf("⚠ OpenSubtitles login failed: %v", err)
		}
		return
	}
	s.infof("✓ Successfully logged in as: %s", cfg.OSUsername)
	s.infof("  Account level: %s", login.User.Level)
	s.infof("  Daily download limit: %d", login.User.AllowedDownloads)

	if info, err := client.GetUserInfo(ctx); err == nil {
		s.infof("  Downloads remaining today: %d", info.Data.RemainingDownloads)
	}
	_, _ = client.Logout(ctx)
}

func (s *statusChecker) print(out io.Writer) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "STATUS CHECK RESULTS")
	fmt.Fprintln(out, rule+"\n")

	sections := []struct {
		title string
		items []string
	}{
		{"Information:", s.info},
		{"Warnings:", s.warnings},
		{"Issues (must be resolved):", s.issues},
	}
	for _, section := range sections {
		if len(section.items) == 0 {
			continue
		}
		fmt.Fprintln(out, section.title)
		for _, item := range section.items {
			fmt.Fprintf(out, "  %s\n", item)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, rule)
	if len(s.issues) == 0 {
		fmt.Fprintln(out, "✓ STATUS: READY TO DOWNLOAD SUBTITLES")
	} else {
		fmt.Fprintln(out, "✗ STATUS: CONFIGURATION ISSUES FOUND")
	}
	fmt.Fprintln(out, rule)
}

// maskSecret keeps the last four characters visible.
func maskSecret(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", 20) + "..." + secret[len(secret)-4:]
}
