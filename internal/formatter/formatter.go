// package formatter provides functions to export generated track and usage data to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/soundry/soundry/internal/cache"
	"github.com/soundry/soundry/internal/models"
	"github.com/soundry/soundry/internal/shared"
)

// TracksToCSV converts generated tracks to CSV format with columns: ID, Title, Style, Mood, Duration, BatchID, Deployed
func TracksToCSV(tracks []*models.GeneratedTrack) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Style", "Mood", "Duration", "BatchID", "Deployed"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.ID(),
			track.Title(),
			track.Style(),
			track.Mood(),
			strconv.Itoa(track.Duration()),
			track.BatchID(),
			strconv.FormatBool(track.Deployed()),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// TracksToMarkdown converts generated tracks to Markdown format under the given heading
func TracksToMarkdown(heading string, tracks []*models.GeneratedTrack) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", heading))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(tracks)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range tracks {
		duration := shared.FormatDuration(track.Duration())
		status := "pending"
		if track.Deployed() {
			status = "deployed"
		}
		buf.WriteString(fmt.Sprintf("%d. %s (%s / %s) [%s] - %s\n", i+1, track.Title(), track.Style(), track.Mood(), duration, status))
	}

	return buf.Bytes(), nil
}

// TracksToText converts generated tracks to plain text format
func TracksToText(heading string, tracks []*models.GeneratedTrack) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%s\n", heading))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(tracks)))

	for i, track := range tracks {
		buf.WriteString(fmt.Sprintf("%d. %s [%s]\n", i+1, track.Title(), shared.FormatDuration(track.Duration())))
	}

	return buf.Bytes(), nil
}

// UsageToCSV converts a usage summary's history to CSV with one row per day and service
func UsageToCSV(summary *cache.UsageSummary) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Date", "Service", "Calls", "Success", "Failed", "Units"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, record := range summary.History {
		for _, service := range cache.Services {
			usage, ok := record.PerService[service]
			if !ok {
				continue
			}
			row := []string{
				record.Date,
				string(service),
				strconv.Itoa(usage.Calls),
				strconv.Itoa(usage.Success),
				strconv.Itoa(usage.Failed),
				strconv.Itoa(usage.UnitsProduced),
			}
			if err := writer.Write(row); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// UsageToText converts a usage summary to a plain text report
func UsageToText(summary *cache.UsageSummary) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Usage for %s\n\n", summary.Today.Date))
	for _, service := range cache.Services {
		usage := summary.Today.PerService[service]
		buf.WriteString(fmt.Sprintf("  %-6s calls=%d success=%d failed=%d units=%d\n",
			service, usage.Calls, usage.Success, usage.Failed, usage.UnitsProduced))
	}

	buf.WriteString("\nTotals (retained history)\n")
	for _, service := range cache.Services {
		usage := summary.Totals[service]
		buf.WriteString(fmt.Sprintf("  %-6s calls=%d success=%d failed=%d units=%d\n",
			service, usage.Calls, usage.Success, usage.Failed, usage.UnitsProduced))
	}

	return buf.Bytes()
}

// BatchMetadata is the JSON sidecar written next to track exports.
type BatchMetadata struct {
	Heading    string `json:"heading"`
	TrackCount int    `json:"track_count"`
	Deployed   int    `json:"deployed"`
}

// ToMetadataJSON generates a JSON representation of a track list's summary
func ToMetadataJSON(heading string, tracks []*models.GeneratedTrack) ([]byte, error) {
	metadata := BatchMetadata{Heading: heading, TrackCount: len(tracks)}
	for _, track := range tracks {
		if track.Deployed() {
			metadata.Deployed++
		}
	}
	return json.MarshalIndent(metadata, "", "  ")
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports generated tracks to CSV with an accompanying metadata JSON file.
//
// Creates {base}_tracks.csv and {base}_metadata.json.
func WriteCSVExport(heading string, tracks []*models.GeneratedTrack, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = shared.Slugify(heading)
	}

	csvData, err := TracksToCSV(tracks)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(heading, tracks)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// WriteMarkdownExport exports generated tracks to a Markdown file.
//
// Defaults to {slug}_tracks.md as the filename.
func WriteMarkdownExport(heading string, tracks []*models.GeneratedTrack, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_tracks.md", shared.Slugify(heading))
	}

	mdData, err := TracksToMarkdown(heading, tracks)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	if err := os.WriteFile(filepath, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return filepath, nil
}

// WriteTextExport exports generated tracks to plain text format.
//
// Defaults to {slug}_tracks.txt as the filename.
func WriteTextExport(heading string, tracks []*models.GeneratedTrack, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_tracks.txt", shared.Slugify(heading))
	}

	textData, err := TracksToText(heading, tracks)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}
