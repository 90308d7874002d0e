package ui

import (
	"fmt"

	"github.com/soundry/soundry/internal/models"
	"github.com/soundry/soundry/internal/shared"
)

// countItem is a selectable track count implementing list.Item.
type countItem struct {
	count int
}

func (i countItem) FilterValue() string { return fmt.Sprintf("%d", i.count) }
func (i countItem) Title() string       { return fmt.Sprintf("%d tracks", i.count) }
func (i countItem) Description() string {
	return fmt.Sprintf("%d synthesis batches", i.count/2)
}

// trackItem wraps [models.GeneratedTrack] to implement list.Item.
type trackItem struct {
	track *models.GeneratedTrack
}

func (i trackItem) FilterValue() string { return i.track.Title() }
func (i trackItem) Title() string {
	if foreign := i.track.ForeignTitle(); foreign != "" {
		return fmt.Sprintf("%s (%s)", foreign, i.track.Title())
	}
	return i.track.Title()
}
func (i trackItem) Description() string {
	desc := fmt.Sprintf("[%s] %s • %s", shared.FormatDuration(i.track.Duration()), i.track.Style(), i.track.Mood())
	if i.track.Deployed() {
		desc = fmt.Sprintf("%s • deployed", desc)
	}
	return desc
}
