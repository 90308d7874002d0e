package models

import (
	"fmt"
	"time"
)

// GeneratedTrack represents an AI-generated audio artifact.
//
// Rows are created by the bulk generation engine or the sync importer and
// mutated by the deployment tracker, which flips the deployed flag exactly
// once per catalog track.
type GeneratedTrack struct {
	id             string
	sequence       int
	title          string
	foreignTitle   string
	audioRef       string
	imageRef       string
	duration       int
	style          string
	mood           string
	batchID        string
	jobID          string
	deployed       bool
	deployedAt     *time.Time
	catalogTrackID string
	createdAt      time.Time
	updatedAt      time.Time
	deletedAt      *time.Time
}

// NewGeneratedTrack creates an undeployed GeneratedTrack with fresh timestamps.
// The ID is assigned by the repository on Create.
func NewGeneratedTrack(title, foreignTitle, audioRef, imageRef string, duration int, style, mood, batchID, jobID string) *GeneratedTrack {
	now := time.Now()
	return &GeneratedTrack{
		title:        title,
		foreignTitle: foreignTitle,
		audioRef:     audioRef,
		imageRef:     imageRef,
		duration:     duration,
		style:        style,
		mood:         mood,
		batchID:      batchID,
		jobID:        jobID,
		createdAt:    now,
		updatedAt:    now,
	}
}

// HydrateGeneratedTrack reconstructs a GeneratedTrack from persisted columns.
func HydrateGeneratedTrack(
	id string, sequence int,
	title, foreignTitle, audioRef, imageRef string,
	duration int, style, mood, batchID, jobID string,
	deployed bool, deployedAt *time.Time, catalogTrackID string,
	createdAt, updatedAt time.Time, deletedAt *time.Time,
) *GeneratedTrack {
	return &GeneratedTrack{
		id:             id,
		sequence:       sequence,
		title:          title,
		foreignTitle:   foreignTitle,
		audioRef:       audioRef,
		imageRef:       imageRef,
		duration:       duration,
		style:          style,
		mood:           mood,
		batchID:        batchID,
		jobID:          jobID,
		deployed:       deployed,
		deployedAt:     deployedAt,
		catalogTrackID: catalogTrackID,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
		deletedAt:      deletedAt,
	}
}

func (t *GeneratedTrack) ID() string             { return t.id }
func (t *GeneratedTrack) Sequence() int          { return t.sequence }
func (t *GeneratedTrack) Title() string          { return t.title }
func (t *GeneratedTrack) ForeignTitle() string   { return t.foreignTitle }
func (t *GeneratedTrack) AudioRef() string       { return t.audioRef }
func (t *GeneratedTrack) ImageRef() string       { return t.imageRef }
func (t *GeneratedTrack) Duration() int          { return t.duration }
func (t *GeneratedTrack) Style() string          { return t.style }
func (t *GeneratedTrack) Mood() string           { return t.mood }
func (t *GeneratedTrack) BatchID() string        { return t.batchID }
func (t *GeneratedTrack) JobID() string          { return t.jobID }
func (t *GeneratedTrack) Deployed() bool         { return t.deployed }
func (t *GeneratedTrack) DeployedAt() *time.Time { return t.deployedAt }
func (t *GeneratedTrack) CatalogTrackID() string { return t.catalogTrackID }
func (t *GeneratedTrack) CreatedAt() time.Time   { return t.createdAt }
func (t *GeneratedTrack) UpdatedAt() time.Time   { return t.updatedAt }
func (t *GeneratedTrack) DeletedAt() *time.Time  { return t.deletedAt }

func (t *GeneratedTrack) SetID(id string)           { t.id = id }
func (t *GeneratedTrack) SetSequence(seq int)       { t.sequence = seq }
func (t *GeneratedTrack) SetImageRef(ref string)    { t.imageRef = ref }
func (t *GeneratedTrack) SetUpdatedAt(ts time.Time) { t.updatedAt = ts }

// MarkDeployed records a successful catalog promotion.
func (t *GeneratedTrack) MarkDeployed(catalogTrackID string, at time.Time) {
	t.deployed = true
	t.deployedAt = &at
	t.catalogTrackID = catalogTrackID
	t.updatedAt = at
}

// Validate checks that required fields are present.
func (t *GeneratedTrack) Validate() error {
	if t.title == "" {
		return fmt.Errorf("generated track requires a title")
	}
	if t.audioRef == "" {
		return fmt.Errorf("generated track requires an audio reference")
	}
	if t.style == "" || t.mood == "" {
		return fmt.Errorf("generated track requires style and mood")
	}
	if t.batchID == "" {
		return fmt.Errorf("generated track requires a batch id")
	}
	return nil
}
