package constants

import "time"

// OpenSubtitlesBaseURL is the standard base URL for the OpenSubtitles REST API.
const OpenSubtitlesBaseURL = "https://api.opensubtitles.com/api/v1"

// DefaultUserAgent identifies this tool to the OpenSubtitles API.
// The API rejects requests without a User-Agent.
const DefaultUserAgent = "plexsubs v1.0"

// DefaultPlexURL is used when no Plex server URL is configured.
const DefaultPlexURL = "http://localhost:32400"

// DefaultReportFile is the report output path when --report is not given.
const DefaultReportFile = "subtitle_download_report.txt"

const (
	// MaxRetryAttempts bounds retries of rate-limited OpenSubtitles calls.
	MaxRetryAttempts = 3
	// RetryBaseDelay is the initial backoff delay between attempts.
	RetryBaseDelay = 1 * time.Second
	// RetryMaxDelay caps the backoff delay, including Retry-After hints.
	RetryMaxDelay = 30 * time.Second
	// RequestTimeout applies to individual HTTP requests against both APIs.
	RequestTimeout = 30 * time.Second
)
