package diff

// Package diff wraps the diff-match-patch algorithm and reshapes its
// insert/delete/equal runs into paragraph-granularity changes. Runs are
// buffered until an "equal" run is hit; each buffer becomes one change whose
// type depends on which operations it contains.

import (
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"wara/internal/model"
)

// Fragment is one non-equal diff run.
type Fragment struct {
	Op   model.ChangeType // added or removed
	Text string
}

// Change is one buffered group of fragments bounded by equal runs.
// OldText joins the removed runs, NewText the added ones.
type Change struct {
	Type    model.ChangeType
	OldText string
	NewText string
}

// Engine computes text diffs between two document revisions.
type Engine struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewEngine returns an Engine with bounded runtime and the edit cost used
// for semantic cleanup.
func NewEngine() *Engine {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = time.Second
	dmp.DiffEditCost = 4
	return &Engine{dmp: dmp}
}

// Compare diffs two text blobs and groups the runs into changes.
// An empty result means the texts are identical.
func (e *Engine) Compare(oldText, newText string) []Change {
	diffs := e.dmp.DiffMain(oldText, newText, false)
	diffs = e.dmp.DiffCleanupSemantic(diffs)

	changes := make([]Change, 0)
	var buf []Fragment

	flush := func() {
		if len(buf) == 0 {
			return
		}
		changes = append(changes, bufferedChange(buf))
		buf = buf[:0]
	}

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
		case diffmatchpatch.DiffDelete:
			buf = append(buf, Fragment{Op: model.ChangeTypeRemoved, Text: d.Text})
		case diffmatchpatch.DiffInsert:
			buf = append(buf, Fragment{Op: model.ChangeTypeAdded, Text: d.Text})
		}
	}
	// A trailing buffer with no equal run after it still counts.
	flush()

	return changes
}

func bufferedChange(buf []Fragment) Change {
	var oldText, newText string
	for _, f := range buf {
		switch f.Op {
		case model.ChangeTypeRemoved:
			oldText += f.Text
		case model.ChangeTypeAdded:
			newText += f.Text
		}
	}
	return Change{Type: Classify(buf), OldText: oldText, NewText: newText}
}

// Classify determines the change type from the operations present in a
// buffer: both kinds mean modified, otherwise the single kind wins. An empty
// buffer defaults to modified.
func Classify(buf []Fragment) model.ChangeType {
	var hasAdded, hasRemoved bool
	for _, f := range buf {
		switch f.Op {
		case model.ChangeTypeAdded:
			hasAdded = true
		case model.ChangeTypeRemoved:
			hasRemoved = true
		}
	}
	switch {
	case hasAdded && hasRemoved:
		return model.ChangeTypeModified
	case hasAdded:
		return model.ChangeTypeAdded
	case hasRemoved:
		return model.ChangeTypeRemoved
	default:
		return model.ChangeTypeModified
	}
}
