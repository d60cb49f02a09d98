// package formatter renders catalog snapshots as JSON, CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/lectures/internal/models"
	"github.com/desertthunder/lectures/internal/services"
	"github.com/desertthunder/lectures/internal/shared"
)

// Format is an output format for [Write].
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// Formats lists the accepted formats in help-text order.
var Formats = []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// ParseFormat accepts a format name or a common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
}

const dateLayout = "2006-01-02"

// names resolves snapshot term ids to names.
type names struct {
	topics, tags, ranks map[int64]string
}

func newNames(snap *models.Snapshot) names {
	index := func(terms []models.SnapshotTerm) map[int64]string {
		m := make(map[int64]string, len(terms))
		for _, t := range terms {
			m[t.ID] = t.Name
		}
		return m
	}
	return names{topics: index(snap.Topics), tags: index(snap.Tags), ranks: index(snap.Ranks)}
}

func (n names) list(m map[int64]string, ids []int64) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := m[id]; ok {
			out = append(out, name)
		}
	}
	return out
}

func (n names) rank(id *int64) string {
	if id == nil {
		return ""
	}
	return n.ranks[*id]
}

// ExportToJSON encodes the snapshot in the same document format the import accepts.
func ExportToJSON(snap *models.Snapshot) ([]byte, error) {
	data, err := shared.MarshalJSON(snap, true)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV converts a snapshot's lectures to CSV with columns:
// ID, YouTube ID, Title, Published, Rank, Topics, Tags, URL.
//
// Topics and tags are names joined with "; ".
func ExportToCSV(snap *models.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	n := newNames(snap)

	headers := []string{"ID", "YouTube ID", "Title", "Published", "Rank", "Topics", "Tags", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, l := range snap.Lectures {
		record := []string{
			strconv.FormatInt(l.ID, 10),
			l.YouTubeID,
			l.Title,
			l.PublishDate.UTC().Format(dateLayout),
			n.rank(l.RankID),
			strings.Join(n.list(n.topics, l.TopicIDs), "; "),
			strings.Join(n.list(n.tags, l.TagIDs), "; "),
			services.ShortURL(l.YouTubeID),
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

// ExportToMarkdown renders the catalog as a Markdown document.
//
// thumbnails maps youtube ids to local image paths; lectures without an entry get no image.
func ExportToMarkdown(snap *models.Snapshot, thumbnails map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	n := newNames(snap)

	buf.WriteString("# Lecture catalog\n\n")
	fmt.Fprintf(&buf, "**Lectures**: %d\n", len(snap.Lectures))
	fmt.Fprintf(&buf, "**Topics**: %d\n", len(snap.Topics))
	fmt.Fprintf(&buf, "**Tags**: %d\n", len(snap.Tags))
	fmt.Fprintf(&buf, "**Ranks**: %d\n\n", len(snap.Ranks))

	buf.WriteString("## Lectures\n\n")
	for i, l := range snap.Lectures {
		fmt.Fprintf(&buf, "%d. [%s](%s) (%s)", i+1, l.Title, services.ShortURL(l.YouTubeID), l.PublishDate.UTC().Format(dateLayout))
		if rank := n.rank(l.RankID); rank != "" {
			fmt.Fprintf(&buf, " [%s]", rank)
		}
		buf.WriteString("\n")

		if topics := n.list(n.topics, l.TopicIDs); len(topics) > 0 {
			fmt.Fprintf(&buf, "   - Topics: %s\n", strings.Join(topics, ", "))
		}
		if tags := n.list(n.tags, l.TagIDs); len(tags) > 0 {
			fmt.Fprintf(&buf, "   - Tags: %s\n", strings.Join(tags, ", "))
		}
		if img, ok := thumbnails[l.YouTubeID]; ok {
			fmt.Fprintf(&buf, "\n   ![%s](%s)\n", l.YouTubeID, img)
		}
	}

	for _, kind := range models.TaxonomyKinds {
		terms := snap.Terms(kind)
		if len(terms) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "\n## %ss\n\n", kind.Label())
		for _, t := range terms {
			fmt.Fprintf(&buf, "- %s\n", t.Name)
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a snapshot to a plain numbered list.
func ExportToText(snap *models.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	n := newNames(snap)

	fmt.Fprintf(&buf, "Lectures: %d\n\n", len(snap.Lectures))
	for i, l := range snap.Lectures {
		line := fmt.Sprintf("%d. %s - %s", i+1, l.Title, services.ShortURL(l.YouTubeID))
		if rank := n.rank(l.RankID); rank != "" {
			line += " (" + rank + ")"
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ToTaxonomyJSON encodes the snapshot's topics, tags and ranks without lectures.
func ToTaxonomyJSON(snap *models.Snapshot) ([]byte, error) {
	taxonomy := map[string][]models.SnapshotTerm{
		"topics": snap.Topics,
		"tags":   snap.Tags,
		"ranks":  snap.Ranks,
	}
	return shared.MarshalJSON(taxonomy, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	LecturesFile string
	TaxonomyFile string
}

// WriteCSVExport writes {base}_lectures.csv and {base}_taxonomy.json.
//
// base defaults to "lectures".
func WriteCSVExport(snap *models.Snapshot, base string) (*CSVExportResult, error) {
	if base == "" {
		base = "lectures"
	}
	base = strings.TrimSuffix(base, ".csv")

	csvData, err := ExportToCSV(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	lecturesFile := base + "_lectures.csv"
	if err := os.WriteFile(lecturesFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	taxonomyJSON, err := ToTaxonomyJSON(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to generate taxonomy JSON: %w", err)
	}

	taxonomyFile := base + "_taxonomy.json"
	if err := os.WriteFile(taxonomyFile, taxonomyJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write taxonomy file: %w", err)
	}

	return &CSVExportResult{
		LecturesFile: lecturesFile,
		TaxonomyFile: taxonomyFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	Thumbnails int
}

// WriteMarkdownExport writes {dir}/README.md, defaulting dir to "lectures".
//
// With withThumbnails set, each lecture's thumbnail is downloaded to {dir}/thumbnails/{youtube_id}.jpg.
// Failed downloads are reported on stderr and skipped.
func WriteMarkdownExport(snap *models.Snapshot, outputDir string, withThumbnails bool) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = "lectures"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	thumbnails := map[string]string{}
	if withThumbnails {
		thumbDir := filepath.Join(outputDir, "thumbnails")
		if err := os.MkdirAll(thumbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create thumbnail directory: %w", err)
		}

		for _, l := range snap.Lectures {
			if l.ThumbnailURL == "" {
				continue
			}
			imageData, err := DownloadImage(l.ThumbnailURL)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to download thumbnail for %s: %v\n", l.YouTubeID, err)
				continue
			}

			name := l.YouTubeID + ".jpg"
			path := filepath.Join(thumbDir, name)
			if err := os.WriteFile(path, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save thumbnail for %s: %v\n", l.YouTubeID, err)
				continue
			}
			thumbnails[l.YouTubeID] = "thumbnails/" + name
			result.Files = append(result.Files, path)
			result.Thumbnails++
		}
	}

	mdData, err := ExportToMarkdown(snap, thumbnails)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// writeFile renders snap with render and writes it to path.
func writeFile(path string, snap *models.Snapshot, render func(*models.Snapshot) ([]byte, error)) (string, error) {
	data, err := render(snap)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// WriteTextExport writes the plain text listing, defaulting to lectures.txt.
func WriteTextExport(snap *models.Snapshot, path string) (string, error) {
	if path == "" {
		path = "lectures.txt"
	}
	return writeFile(path, snap, ExportToText)
}

// WriteJSONExport writes the importable snapshot, defaulting to lectures.json.
func WriteJSONExport(snap *models.Snapshot, path string) (string, error) {
	if path == "" {
		path = "lectures.json"
	}
	return writeFile(path, snap, ExportToJSON)
}

// Render writes snap to w in format. Markdown output carries no thumbnails.
func Render(w io.Writer, snap *models.Snapshot, format Format) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = ExportToJSON(snap)
	case FormatCSV:
		data, err = ExportToCSV(snap)
	case FormatMarkdown:
		data, err = ExportToMarkdown(snap, nil)
	case FormatText:
		data, err = ExportToText(snap)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
