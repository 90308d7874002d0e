// package services defines interfaces for the external generation collaborators
//
// Title/keyword generation, audio synthesis, cover image synthesis, asset
// download, and the production catalog.
package services

import (
	"context"
)

// JobStatus is the lifecycle state an audio synthesis job reports.
type JobStatus string

const (
	StatusPending JobStatus = "PENDING"
	StatusSuccess JobStatus = "SUCCESS"
	StatusFailed  JobStatus = "FAILED"
)

// GeneratedTitle is one title pair returned by the text service.
type GeneratedTitle struct {
	NativeText  string
	ForeignText string
}

// RawTrack is one synthesized track as reported by the audio service.
type RawTrack struct {
	AudioURL string
	ImageURL string
	Duration int // seconds
}

// JobState is a point-in-time snapshot of an audio synthesis job.
type JobState struct {
	JobID  string
	Status JobStatus
	Tracks []RawTrack
}

// Credits reports the remaining balance on the audio synthesis account.
type Credits struct {
	Remaining            float64
	EstimatedTracksAvail int
}

// AssetResult is the outcome of persisting a remote asset locally.
type AssetResult struct {
	LocalRef string
	Duration int // seconds, 0 when the payload carries no duration
}

// TrackMetadata is the catalog-facing description of a generated track.
type TrackMetadata struct {
	Title        string
	ForeignTitle string
	AudioRef     string
	ImageRef     string
	Duration     int
	Style        string
	Mood         string
}

// TextService generates track titles and keyword seeds.
type TextService interface {
	// GenerateTitles mints count title pairs for the given keywords, style and mood.
	GenerateTitles(ctx context.Context, keywords, style, mood string, count int) ([]GeneratedTitle, error)

	// GenerateKeywords mints count keyword strings for a content category.
	GenerateKeywords(ctx context.Context, category, style, mood string, count int) ([]string, error)

	// Name returns the service name for logging and usage accounting.
	Name() string
}

// AudioService drives the asynchronous audio synthesis API.
type AudioService interface {
	// Submit starts a synthesis job and returns its opaque job identifier.
	// One job yields two tracks.
	Submit(ctx context.Context, title, style, mood string, instrumental bool) (string, error)

	// PollStatus fetches the current state of a previously submitted job.
	PollStatus(ctx context.Context, jobID string) (*JobState, error)

	// Credits reports the remaining paid balance.
	Credits(ctx context.Context) (*Credits, error)

	// Name returns the service name for logging and usage accounting.
	Name() string
}

// ImageService synthesizes cover art.
type ImageService interface {
	// GenerateCoverImage returns the URL of a freshly synthesized cover image.
	GenerateCoverImage(ctx context.Context, title, category, mood, keywords string) (string, error)

	// Name returns the service name for logging and usage accounting.
	Name() string
}

// AssetService downloads remote assets into local media storage.
type AssetService interface {
	// FetchAndPersist downloads remoteURL into local storage, naming the file
	// after hintedTitle, and extracts the audio duration when available.
	FetchAndPersist(ctx context.Context, remoteURL, hintedTitle string) (*AssetResult, error)
}

// CatalogService promotes generated tracks into the production catalog.
type CatalogService interface {
	// UpsertTrack creates or updates a catalog entry and returns its id.
	UpsertTrack(ctx context.Context, metadata TrackMetadata) (string, error)

	// Name returns the service name for logging.
	Name() string
}
