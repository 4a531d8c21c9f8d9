package opensubtitles

import "time"

// LanguageCode represents an ISO 639-1 language code as used by the API.
type LanguageCode string

// PaginatedResponse defines the structure for paginated API responses.
type PaginatedResponse struct {
	TotalPages int `json:"total_pages"`
	TotalCount int `json:"total_count"`
	PerPage    int `json:"per_page"`
	Page       int `json:"page"`
}

// ApiDataWrapper wraps the common "id", "type", "attributes" structure.
type ApiDataWrapper struct {
	ID   string `json:"id"`
	Type string `json:"type"` // e.g., "subtitle"
}

// UploaderInfo contains details about the subtitle uploader.
type UploaderInfo struct {
	UploaderID *int    `json:"uploader_id"` // Pointer as can be null
	Name       *string `json:"name"`        // Pointer as can be null/empty
	Rank       *string `json:"rank"`        // Pointer as can be null/empty
}

// BaseUserInfo contains common user details.
type BaseUserInfo struct {
	AllowedDownloads int    `json:"allowed_downloads"`
	Level            string `json:"level"`
	UserID           int    `json:"user_id"`
	ExtInstalled     bool   `json:"ext_installed"`
	VIP              bool   `json:"vip"`
}

// --- Auth Types ---

// LoginRequest is the request body for the login endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the response from the login endpoint.
type LoginResponse struct {
	User    BaseUserInfo `json:"user"`
	BaseURL string       `json:"base_url"`
	Token   string       `json:"token"`
	Status  int          `json:"status"`
}

// LogoutResponse is the response from the logout endpoint.
type LogoutResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// UserInfo contains details from the /infos/user endpoint.
type UserInfo struct {
	BaseUserInfo
	DownloadsCount     int `json:"downloads_count"`
	RemainingDownloads int `json:"remaining_downloads"`
}

// GetUserInfoResponse wraps the UserInfo data.
type GetUserInfoResponse struct {
	Data UserInfo `json:"data"`
}

// --- Subtitle Types ---

// SubtitleFeatureDetails represents the nested feature info within a subtitle.
type SubtitleFeatureDetails struct {
	FeatureID     int     `json:"feature_id"`
	FeatureType   string  `json:"feature_type"` // "Movie", "Episode"
	Year          int     `json:"year"`
	Title         string  `json:"title"`
	MovieName     string  `json:"movie_name"`
	IMDbID        *int    `json:"imdb_id"`
	TMDBID        *int    `json:"tmdb_id"`
	SeasonNumber  *int    `json:"season_number"`
	EpisodeNumber *int    `json:"episode_number"`
	ParentTitle   *string `json:"parent_title"`
}

// SubtitleFile represents a single file within a subtitle entry.
type SubtitleFile struct {
	FileID   int    `json:"file_id"` // ID needed for download
	CDNumber int    `json:"cd_number"`
	FileName string `json:"file_name"`
}

// SubtitleAttributes holds the details of a subtitle entry.
type SubtitleAttributes struct {
	SubtitleID        string                 `json:"subtitle_id"`
	Language          LanguageCode           `json:"language"`
	DownloadCount     int                    `json:"download_count"`
	NewDownloadCount  int                    `json:"new_download_count"`
	HearingImpaired   bool                   `json:"hearing_impaired"`
	HD                bool                   `json:"hd"`
	FPS               *float64               `json:"fps"` // Pointer as can be 0 or null
	Votes             int                    `json:"votes"`
	Ratings           float64                `json:"ratings"`
	FromTrusted       bool                   `json:"from_trusted"`
	ForeignPartsOnly  bool                   `json:"foreign_parts_only"`
	UploadDate        time.Time              `json:"upload_date"`
	AITranslated      bool                   `json:"ai_translated"`
	MachineTranslated bool                   `json:"machine_translated"`
	MoviehashMatch    *bool                  `json:"moviehash_match,omitempty"` // Only present on hash searches
	Release           string                 `json:"release"`
	Comments          *string                `json:"comments"` // Pointer as can be null
	Uploader          UploaderInfo           `json:"uploader"`
	FeatureDetails    SubtitleFeatureDetails `json:"feature_details"`
	URL               string                 `json:"url"`
	Files             []SubtitleFile         `json:"files"`
}

// Subtitle represents a full subtitle entry.
type Subtitle struct {
	ApiDataWrapper
	Attributes SubtitleAttributes `json:"attributes"`
}

// SearchSubtitlesParams defines query parameters for the /subtitles endpoint.
// Use pointers for optional fields; `url` tags drive query string encoding.
type SearchSubtitlesParams struct {
	IMDbID         *int    `url:"imdb_id,omitempty"`
	TMDBID         *int    `url:"tmdb_id,omitempty"`
	Query          *string `url:"query,omitempty"`
	SeasonNumber   *int    `url:"season_number,omitempty"`
	EpisodeNumber  *int    `url:"episode_number,omitempty"`
	Moviehash      *string `url:"moviehash,omitempty"` // Must match `^[a-f0-9]{16}$`
	MovieByteSize  *int64  `url:"moviebytesize,omitempty"`
	Languages      *string `url:"languages,omitempty"` // Comma-separated, sorted
	Type           *string `url:"type,omitempty"`      // "movie", "episode", "all"
	Year           *int    `url:"year,omitempty"`
	OrderBy        *string `url:"order_by,omitempty"`
	OrderDirection *string `url:"order_direction,omitempty"`
	Page           *int    `url:"page,omitempty"`
}

// SearchSubtitlesResponse wraps the paginated subtitle results.
type SearchSubtitlesResponse struct {
	PaginatedResponse
	Data []Subtitle `json:"data"`
}

// DownloadRequest is the request body for the /download endpoint.
type DownloadRequest struct {
	FileID    int     `json:"file_id"`
	SubFormat *string `json:"sub_format,omitempty"`
	FileName  *string `json:"file_name,omitempty"`
}

// DownloadResponse is the response from the /download endpoint.
type DownloadResponse struct {
	Link         string    `json:"link"`
	FileName     string    `json:"file_name"`
	Requests     int       `json:"requests"`
	Remaining    int       `json:"remaining"`
	Message      string    `json:"message"`
	ResetTime    string    `json:"reset_time"`
	ResetTimeUTC time.Time `json:"reset_time_utc"`
}
