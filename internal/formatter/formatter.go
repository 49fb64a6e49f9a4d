// package formatter renders the curated track list to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/statify/internal/models"
	"github.com/desertthunder/statify/internal/shared"
)

// Format is an export format name accepted by [Export].
type Format string

const (
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "text"
)

// ParseFormat accepts the format names plus their usual file extensions.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
}

// Extension returns the file extension, dot included.
func (f Format) Extension() string {
	switch f {
	case CSV:
		return ".csv"
	case Markdown:
		return ".md"
	default:
		return ".txt"
	}
}

// ExportToCSV converts tracks to CSV with columns: ID, Name, Artists, Album, Duration, URI
func ExportToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Artists", "Album", "Duration", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.ID,
			track.Name,
			strings.Join(track.Artists, "; "),
			track.Album,
			strconv.Itoa(track.DurationMS),
			track.URI,
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

// ExportToMarkdown renders tracks as a numbered Markdown list under title.
func ExportToMarkdown(title string, tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(tracks)))
	buf.WriteString(fmt.Sprintf("**Length**: %s\n\n", shared.FormatDuration(totalDuration(tracks))))

	buf.WriteString("## Tracks\n\n")
	for i, track := range tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n",
			i+1, artistLine(track), track.Name, albumPart, shared.FormatDuration(track.DurationMS)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts tracks to plain text
func ExportToText(title string, tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", title))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(tracks)))

	for i, track := range tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, artistLine(track), track.Name))
	}

	return buf.Bytes(), nil
}

// Export renders tracks in format.
func Export(format Format, title string, tracks []models.Track) ([]byte, error) {
	switch format {
	case CSV:
		return ExportToCSV(tracks)
	case Markdown:
		return ExportToMarkdown(title, tracks)
	case Text:
		return ExportToText(title, tracks)
	}
	return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
}

// WriteExport renders tracks and writes them to path, creating parent directories.
//
// An empty path defaults to my_playlist{ext} in the working directory.
func WriteExport(format Format, title string, tracks []models.Track, path string) (string, error) {
	if path == "" {
		path = "my_playlist" + format.Extension()
	}

	data, err := Export(format, title, tracks)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

func artistLine(track models.Track) string {
	if len(track.Artists) == 0 {
		return "Unknown Artist"
	}
	return strings.Join(track.Artists, ", ")
}

func totalDuration(tracks []models.Track) int {
	total := 0
	for _, t := range tracks {
		total += t.DurationMS
	}
	return total
}
