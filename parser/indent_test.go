package parser

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	snaphaml "github.com/shibukawa/snaphaml"
)

func TestIndentTrackerCallbacks(t *testing.T) {
	var events []string

	tracker := NewIndentTracker(2,
		func(line int) error {
			events = append(events, "enter")
			return nil
		},
		func() error {
			events = append(events, "leave")
			return nil
		},
	)

	lines := []string{"a", "  b", "    c", "d", "\te"}
	for i, line := range lines {
		_, _, err := tracker.Process(line, i+1)
		assert.NoError(t, err)
	}

	assert.Equal(t, 1, tracker.Depth())
	assert.Equal(t, 2, tracker.Current())
	assert.NoError(t, tracker.Finish())
	assert.Equal(t, 0, tracker.Depth())

	assert.Equal(t, []string{"enter", "enter", "leave", "leave", "enter", "leave"}, events)
}

func TestIndentTrackerProcessSplitsPrefix(t *testing.T) {
	tracker := NewIndentTracker(2, nil, nil)

	text, prefix, err := tracker.Process("%p", 1)
	assert.NoError(t, err)
	assert.Equal(t, "%p", text)
	assert.Equal(t, "", prefix)

	text, prefix, err = tracker.Process(" \t%span x", 2)
	assert.NoError(t, err)
	assert.Equal(t, "%span x", text)
	assert.Equal(t, " \t", prefix)
	assert.Equal(t, 3, tracker.Width(prefix))
}

func TestIndentTrackerNeverRounds(t *testing.T) {
	tracker := NewIndentTracker(2, nil, nil)

	for i, line := range []string{"a", "  b", "    c"} {
		_, _, err := tracker.Process(line, i+1)
		assert.NoError(t, err)
	}

	// 3 sits between the open levels 2 and 4
	_, _, err := tracker.Process("   d", 4)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, snaphaml.ErrIndentMismatch))
	assert.Equal(t, 4, snaphaml.ErrorLine(err))
}

func TestIndentTrackerEnterError(t *testing.T) {
	boom := errors.New("boom")
	tracker := NewIndentTracker(2, func(int) error { return boom }, nil)

	_, _, err := tracker.Process("a", 1)
	assert.NoError(t, err)

	_, _, err = tracker.Process("  b", 2)
	assert.IsError(t, err, boom)
}

func TestLineReader(t *testing.T) {
	reader := NewLineReader("\ufeffa\r\nb\n\nc\n")

	var lines []Line
	for {
		line, ok := reader.Next()
		if !ok {
			break
		}

		lines = append(lines, line)
	}

	assert.Equal(t, []Line{{1, "a"}, {2, "b"}, {3, ""}, {4, "c"}}, lines)
	assert.Equal(t, 4, reader.Consumed())
	assert.True(t, lines[2].IsBlank())

	_, ok := NewLineReader("").Peek()
	assert.False(t, ok)
}

func TestEndsWithComma(t *testing.T) {
	tests := []struct {
		text     string
		expected bool
	}{
		{"foo(a,", true},
		{"foo(a,  ", true},
		{"foo(a)", false},
		{"c = ?,", false},
		{`c = ?\,`, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, endsWithComma(tt.text))
		})
	}
}
