// package shared defines shared helpers
package shared

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// DateLayout is the calendar-day key format used by the usage ledger.
const DateLayout = "2006-01-02"

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// FormatDuration renders a duration in seconds as m:ss for display.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// DayKey formats a time as its calendar-day ledger key.
func DayKey(t time.Time) string {
	return t.Format(DateLayout)
}

// Slugify lowercases s and collapses whitespace runs into single underscores.
//
// Used for cache keys and asset filenames so that semantically identical
// inputs land on identical slots regardless of casing or stray spacing.
func Slugify(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), "_")
}
