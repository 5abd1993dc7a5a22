package storage

import (
	"errors"
	"time"

	"streamfusion/catalog"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Roles stored on users.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsBanned     bool      `json:"is_banned"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Message is one direct message between a user and the admin inbox.
type Message struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// WebConfig is the site-wide settings document.
type WebConfig struct {
	SiteName            string `json:"siteName"`
	SiteDescription     string `json:"siteDescription"`
	MaintenanceMode     bool   `json:"maintenanceMode"`
	RegistrationEnabled bool   `json:"registrationEnabled"`
	DefaultLanguage     string `json:"defaultLanguage"`
	PrimaryColor        string `json:"primaryColor"`
	LogoURL             string `json:"logoUrl"`
	FaviconURL          string `json:"faviconUrl"`
	AnalyticsEnabled    bool   `json:"analyticsEnabled"`
	AdsEnabled          bool   `json:"adsEnabled"`
}

// DefaultWebConfig is used for any setting that was never saved.
func DefaultWebConfig() WebConfig {
	return WebConfig{
		SiteName:            "StreamFlix",
		SiteDescription:     "Tu plataforma de streaming favorita",
		MaintenanceMode:     false,
		RegistrationEnabled: true,
		DefaultLanguage:     "es",
		PrimaryColor:        "#e50914",
		AnalyticsEnabled:    true,
		AdsEnabled:          false,
	}
}

// SourceStatus is the last health check result for an item's video source.
type SourceStatus struct {
	ContentID  string    `json:"content_id"`
	URL        string    `json:"url"`
	Kind       string    `json:"kind"`
	OK         bool      `json:"ok"`
	StatusCode int       `json:"status_code"`
	Error      string    `json:"error,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalMovies   int            `json:"total_movies"`
	TotalSeries   int            `json:"total_series"`
	TotalUsers    int            `json:"total_users"`
	TotalViews    int            `json:"total_views"`
	RecentContent []catalog.Item `json:"recent_content"`
	RecentUsers   []User         `json:"recent_users"`
}
