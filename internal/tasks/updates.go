package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/lectures/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ImportTopics Phase = iota
	ImportTags
	ImportRanks
	ImportLectures
	ImportDone
)

func (p Phase) String() string {
	switch p {
	case ImportTopics:
		return "import_topics"
	case ImportTags:
		return "import_tags"
	case ImportRanks:
		return "import_ranks"
	case ImportLectures:
		return "import_lectures"
	case ImportDone:
		return "import_done"
	default:
		return ""
	}
}

func taxonomyPhase(kind models.TaxonomyKind) Phase {
	switch kind {
	case models.KindTag:
		return ImportTags
	case models.KindRank:
		return ImportRanks
	default:
		return ImportTopics
	}
}

// sendProgress delivers update on progress, giving up when ctx is done. A nil channel is a no-op.
func sendProgress(ctx context.Context, progress chan<- ProgressUpdate, update ProgressUpdate) error {
	if progress == nil {
		return nil
	}
	select {
	case progress <- update:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func termUpdate(kind models.TaxonomyKind, step, total int, name string, reused bool) ProgressUpdate {
	verb := "created"
	if reused {
		verb = "reused"
	}
	return ProgressUpdate{
		Phase:   taxonomyPhase(kind),
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %q %s", step, total, kind, name, verb),
	}
}

func lectureUpdate(step, total int, l models.SnapshotLecture, skipped bool) ProgressUpdate {
	mark := "✓"
	if skipped {
		mark = "↷ already present:"
	}
	return ProgressUpdate{
		Phase:   ImportLectures,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s (%s)", step, total, mark, l.Title, l.YouTubeID),
	}
}

func importDoneUpdate(result *ImportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportDone,
		Step:    1,
		Total:   1,
		Message: result.String(),
		Data:    result,
	}
}
