package tasks

import (
	"fmt"
)

// Phase is one state of a generation attempt.
//
// Phases advance strictly forward; the only transitions that skip backward
// are into the two terminals. Download and image failures never reach
// PhaseError: those steps degrade to the remote reference instead.
type Phase int

const (
	PhaseTitle Phase = iota
	PhaseSynth
	PhaseWait
	PhaseDownload
	PhaseImage
	PhaseComplete
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseTitle:
		return "title"
	case PhaseSynth:
		return "synth"
	case PhaseWait:
		return "wait"
	case PhaseDownload:
		return "download"
	case PhaseImage:
		return "image"
	case PhaseComplete:
		return "complete"
	case PhaseError:
		return "error"
	default:
		return ""
	}
}

// Terminal reports whether the phase ends a generation attempt.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseError
}

// CanTransition reports whether moving from p to next is a legal step.
func (p Phase) CanTransition(next Phase) bool {
	if p.Terminal() {
		return false
	}
	if next == PhaseError {
		return true
	}
	return next > p && next <= PhaseComplete
}

// ProgressUpdate represents a progress event during a bulk generation run.
//
// One update is emitted after every phase transition, so a consumer can
// render cumulative progress without polling the engine.
type ProgressUpdate struct {
	Phase        Phase  // Current pipeline phase
	Batch        int    // Current batch (1-based)
	TotalBatches int    // Total batches in this run
	Track        int    // Current track across the run (1-based)
	TotalTracks  int    // Total tracks requested
	Title        string // Title being worked on, when known
	Message      string // Human-readable message for display
}

func titleUpdate(batch, totalBatches, totalTracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:        PhaseTitle,
		Batch:        batch,
		TotalBatches: totalBatches,
		TotalTracks:  totalTracks,
		Message:      fmt.Sprintf("Resolving titles for batch %d/%d...", batch, totalBatches),
	}
}

func synthUpdate(batch, totalBatches, totalTracks int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:        PhaseSynth,
		Batch:        batch,
		TotalBatches: totalBatches,
		TotalTracks:  totalTracks,
		Title:        title,
		Message:      fmt.Sprintf("Submitting synthesis for %q...", title),
	}
}

func waitUpdate(batch, totalBatches, totalTracks, attempt, maxAttempts int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:        PhaseWait,
		Batch:        batch,
		TotalBatches: totalBatches,
		TotalTracks:  totalTracks,
		Title:        title,
		Message:      fmt.Sprintf("Waiting on synthesis (%d/%d)...", attempt, maxAttempts),
	}
}

func downloadUpdate(batch, totalBatches, track, totalTracks int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:        PhaseDownload,
		Batch:        batch,
		TotalBatches: totalBatches,
		Track:        track,
		TotalTracks:  totalTracks,
		Title:        title,
		Message:      fmt.Sprintf("Downloading audio for %q...", title),
	}
}

func imageUpdate(batch, totalBatches, track, totalTracks int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:        PhaseImage,
		Batch:        batch,
		TotalBatches: totalBatches,
		Track:        track,
		TotalTracks:  totalTracks,
		Title:        title,
		Message:      fmt.Sprintf("Synthesizing cover for %q...", title),
	}
}

func completeUpdate(batch, totalBatches, track, totalTracks int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:        PhaseComplete,
		Batch:        batch,
		TotalBatches: totalBatches,
		Track:        track,
		TotalTracks:  totalTracks,
		Title:        title,
		Message:      fmt.Sprintf("Completed track %d/%d", track, totalTracks),
	}
}

func errorUpdate(batch, totalBatches, track, totalTracks int, reason string) ProgressUpdate {
	return ProgressUpdate{
		Phase:        PhaseError,
		Batch:        batch,
		TotalBatches: totalBatches,
		Track:        track,
		TotalTracks:  totalTracks,
		Message:      reason,
	}
}
