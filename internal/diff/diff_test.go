package diff

import (
	"testing"

	"wara/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	e := NewEngine()

	t.Run("identical texts produce no changes", func(t *testing.T) {
		changes := e.Compare("same text", "same text")
		assert.Empty(t, changes)
	})

	t.Run("pure addition", func(t *testing.T) {
		changes := e.Compare("hello world", "hello brave new world")
		assert.Len(t, changes, 1)
		assert.Equal(t, model.ChangeTypeAdded, changes[0].Type)
		assert.Empty(t, changes[0].OldText)
		assert.NotEmpty(t, changes[0].NewText)
	})

	t.Run("pure removal", func(t *testing.T) {
		changes := e.Compare("hello brave new world", "hello world")
		assert.Len(t, changes, 1)
		assert.Equal(t, model.ChangeTypeRemoved, changes[0].Type)
		assert.NotEmpty(t, changes[0].OldText)
		assert.Empty(t, changes[0].NewText)
	})

	t.Run("replacement is modified", func(t *testing.T) {
		changes := e.Compare(
			"The budget for 2024 is approved.",
			"The budget for 2025 is approved.",
		)
		assert.Len(t, changes, 1)
		assert.Equal(t, model.ChangeTypeModified, changes[0].Type)
		assert.Contains(t, changes[0].OldText, "4")
		assert.Contains(t, changes[0].NewText, "5")
	})

	t.Run("trailing change without closing equal run is flushed", func(t *testing.T) {
		changes := e.Compare("shared prefix", "shared prefix plus a tail")
		assert.Len(t, changes, 1)
		assert.Equal(t, model.ChangeTypeAdded, changes[0].Type)
	})

	t.Run("multiple separated edits produce multiple changes", func(t *testing.T) {
		oldText := "First paragraph stays the same.\n\nSecond paragraph original wording here.\n\nThird paragraph also untouched content."
		newText := "First paragraph stays the same, with an addition.\n\nSecond paragraph original wording here.\n\nThird paragraph also changed content."
		changes := e.Compare(oldText, newText)
		assert.GreaterOrEqual(t, len(changes), 2)
	})

	t.Run("completely different texts", func(t *testing.T) {
		changes := e.Compare("alpha", "omega")
		assert.NotEmpty(t, changes)
		for _, c := range changes {
			assert.NotEqual(t, model.ChangeType(""), c.Type)
		}
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		buf  []Fragment
		want model.ChangeType
	}{
		{
			name: "only additions",
			buf:  []Fragment{{Op: model.ChangeTypeAdded, Text: "x"}},
			want: model.ChangeTypeAdded,
		},
		{
			name: "only removals",
			buf:  []Fragment{{Op: model.ChangeTypeRemoved, Text: "x"}},
			want: model.ChangeTypeRemoved,
		},
		{
			name: "mixed",
			buf: []Fragment{
				{Op: model.ChangeTypeRemoved, Text: "a"},
				{Op: model.ChangeTypeAdded, Text: "b"},
			},
			want: model.ChangeTypeModified,
		},
		{
			name: "empty buffer defaults to modified",
			buf:  nil,
			want: model.ChangeTypeModified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.buf))
		})
	}
}
