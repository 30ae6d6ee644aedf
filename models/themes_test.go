package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThemeLabels(t *testing.T) {
	tests := []struct {
		name   string
		puzzle Puzzle
		want   []string
	}{
		{
			name:   "union of themes and opening tags",
			puzzle: Puzzle{Themes: []string{"fork", "short"}, OpeningTags: []string{"Italian_Game"}},
			want:   []string{"Italian_Game", "fork", "short"},
		},
		{
			name:   "duplicates collapse",
			puzzle: Puzzle{Themes: []string{"fork", "fork"}, OpeningTags: []string{"fork"}},
			want:   []string{"fork"},
		},
		{
			name:   "both absent is valid and empty",
			puzzle: Puzzle{},
			want:   nil,
		},
		{
			name:   "empty strings dropped",
			puzzle: Puzzle{Themes: []string{"", "pin"}, OpeningTags: []string{""}},
			want:   []string{"pin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ThemeLabels(tt.puzzle))
		})
	}
}

func TestUnifiedTagsPreservesSourceOrder(t *testing.T) {
	p := Puzzle{
		Themes:      []string{"crushing", "fork"},
		OpeningTags: []string{"Caro-Kann_Defense"},
	}
	assert.Equal(t, []string{"crushing", "fork", "Caro-Kann_Defense"}, UnifiedTags(p))
}

func TestThemeIndexManyToMany(t *testing.T) {
	puzzles := []Puzzle{
		{ID: "a", Themes: []string{"fork", "pin"}},
		{ID: "b", Themes: []string{"pin"}},
	}
	index := themeIndex(puzzles)
	assert.Equal(t, []int{0}, index["fork"])
	assert.Equal(t, []int{0, 1}, index["pin"])
}
