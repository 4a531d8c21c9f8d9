package processor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const reportRule = 80

// countPrinter renders integers with thousands separators ("45,203").
var countPrinter = message.NewPrinter(language.English)

// Report accumulates download records in acquisition order and renders them
// as a plain-text document. GeneratedAt is fixed at construction so repeated
// renders of the same records are byte-identical.
type Report struct {
	Method      string
	GeneratedAt time.Time
	records     []DownloadRecord
}

// NewReport creates an empty report for the given download method.
func NewReport(method string, generatedAt time.Time) *Report {
	return &Report{Method: method, GeneratedAt: generatedAt}
}

// Add appends a record. Call only for completed acquisitions.
func (r *Report) Add(record DownloadRecord) {
	r.records = append(r.records, record)
}

// Len returns the number of accumulated records.
func (r *Report) Len() int {
	return len(r.records)
}

// Records returns the accumulated records in acquisition order.
func (r *Report) Records() []DownloadRecord {
	return r.records
}

// Render produces the report text. It is a pure function of the record
// sequence, the method and the generated-at timestamp.
func (r *Report) Render() string {
	if len(r.records) == 0 {
		return "No subtitles were downloaded."
	}

	rule := strings.Repeat("=", reportRule)
	lines := []string{
		"\n" + rule,
		"SUBTITLE DOWNLOAD REPORT",
		rule,
		fmt.Sprintf("Total subtitles downloaded: %d", len(r.records)),
		fmt.Sprintf("Download method: %s", r.Method),
		fmt.Sprintf("Generated: %s", r.GeneratedAt.Format("2006-01-02 15:04:05")),
		rule,
		"",
	}

	var movies, episodes []DownloadRecord
	for _, rec := range r.records {
		if rec.MediaType == MediaTypeEpisode {
			episodes = append(episodes, rec)
		} else {
			movies = append(movies, rec)
		}
	}

	if len(movies) > 0 {
		lines = append(lines, fmt.Sprintf("\nMOVIES (%d subtitles)", len(movies)))
		lines = append(lines, strings.Repeat("-", reportRule))
		for _, rec := range movies {
			lines = append(lines, r.recordLines(rec)...)
		}
	}

	if len(episodes) > 0 {
		lines = append(lines, fmt.Sprintf("\n\nTV EPISODES (%d subtitles)", len(episodes)))
		lines = append(lines, strings.Repeat("-", reportRule))
		for _, rec := range episodes {
			lines = append(lines, r.recordLines(rec)...)
		}
	}

	lines = append(lines, "\n"+rule, "SUMMARY STATISTICS", rule)

	if r.Method == MethodLocal {
		var ratingSum float64
		var downloadSum int
		for _, rec := range r.records {
			ratingSum += rec.Rating
			downloadSum += rec.DownloadCount
		}
		lines = append(lines,
			fmt.Sprintf("Average subtitle rating: %.1f/10", ratingSum/float64(len(r.records))),
			countPrinter.Sprintf("Total community downloads: %d", downloadSum),
		)
	}

	langCounts := make(map[string]int)
	for _, rec := range r.records {
		langCounts[rec.Language]++
	}
	langs := make([]string, 0, len(langCounts))
	for lang := range langCounts {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	lines = append(lines, "\nLanguage breakdown:")
	for _, lang := range langs {
		lines = append(lines, fmt.Sprintf("  %s: %d", strings.ToUpper(lang), langCounts[lang]))
	}

	lines = append(lines, rule)
	return strings.Join(lines, "\n")
}

func (r *Report) recordLines(rec DownloadRecord) []string {
	lines := []string{
		"\n" + rec.MediaTitle,
		fmt.Sprintf("  Language: %s", strings.ToUpper(rec.Language)),
	}
	if rec.Method == MethodLocal {
		lines = append(lines,
			fmt.Sprintf("  Rating: %.1f/10", rec.Rating),
			countPrinter.Sprintf("  Downloads: %d", rec.DownloadCount),
			fmt.Sprintf("  Release: %s", rec.Release),
			fmt.Sprintf("  Uploader: %s", rec.Uploader),
			fmt.Sprintf("  File: %s", filepath.Base(rec.SubtitleFile)),
		)
	} else {
		lines = append(lines, "  Method: Plex OpenSubtitles Agent")
	}
	lines = append(lines, fmt.Sprintf("  Timestamp: %s", rec.Timestamp.Format("2006-01-02 15:04:05")))
	return lines
}

// Save writes the rendered report to path.
func (r *Report) Save(path string) error {
	if err := os.WriteFile(path, []byte(r.Render()), 0o644); err != nil {
		return fmt.Errorf("failed to save report to '%s': %w", path, err)
	}
	return nil
}
