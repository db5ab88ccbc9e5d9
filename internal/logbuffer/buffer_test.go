package logbuffer

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferKeepsNewest(t *testing.T) {
	rb := New(3)
	base := time.Now()
	for i := 0; i < 5; i++ {
		rb.Add(LogEntry{Timestamp: base.Add(time.Duration(i) * time.Second), Message: string(rune('a' + i))})
	}

	all := rb.GetAll()
	assert.Len(t, all, 3)
	assert.Equal(t, "c", all[0].Message)
	assert.Equal(t, "e", all[2].Message)
	assert.Equal(t, 3, rb.Count())
}

func TestBufferGetSince(t *testing.T) {
	rb := New(10)
	base := time.Now()
	rb.Add(LogEntry{Timestamp: base, Message: "old"})
	rb.Add(LogEntry{Timestamp: base.Add(time.Minute), Message: "new"})

	got := rb.GetSince(base.Add(30 * time.Second))
	assert.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Message)
}

func TestBufferTruncatesAndClears(t *testing.T) {
	rb := New(0)
	assert.Equal(t, DefaultBufferSize, rb.Capacity())

	rb.Add(LogEntry{Message: strings.Repeat("x", MaxEntrySize+10)})
	entries := rb.GetAll()
	assert.Len(t, entries[0].Message, MaxEntrySize)
	assert.True(t, strings.HasSuffix(entries[0].Message, "..."))

	rb.Clear()
	assert.Nil(t, rb.GetAll())
	assert.Equal(t, 0, rb.Count())
}

func TestBufferCompactsPastCapacity(t *testing.T) {
	rb := New(4)
	for i := 0; i < 23; i++ {
		rb.Add(LogEntry{Message: fmt.Sprint(i)})
	}

	all := rb.GetAll()
	require.Len(t, all, 4)
	for i, entry := range all {
		assert.Equal(t, fmt.Sprint(19+i), entry.Message)
		assert.Equal(t, uint64(20+i), entry.Seq)
	}
	assert.LessOrEqual(t, len(rb.entries), 2*rb.Capacity())
}

func TestBufferFind(t *testing.T) {
	rb := New(10)
	base := time.Now()
	rb.Add(LogEntry{Timestamp: base, Level: "INFO", JobID: "a", Message: "a started"})
	rb.Add(LogEntry{Timestamp: base, Level: "INFO", Message: "hub started"})
	seq := rb.Add(LogEntry{Timestamp: base.Add(time.Second), Level: "WARNING", JobID: "b", Message: "b failed"})
	rb.Add(LogEntry{Timestamp: base.Add(2 * time.Second), Level: "INFO", JobID: "a", Message: "a completed"})

	messages := func(entries []LogEntry) []string {
		out := []string{}
		for _, e := range entries {
			out = append(out, e.Message)
		}
		return out
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"everything", Filter{}, []string{"a started", "hub started", "b failed", "a completed"}},
		{"by job", Filter{JobID: "a"}, []string{"a started", "a completed"}},
		{"by level", Filter{Level: "WARNING"}, []string{"b failed"}},
		{"after seq", Filter{AfterSeq: seq}, []string{"a completed"}},
		{"since and job", Filter{Since: base.Add(time.Second), JobID: "a"}, []string{"a completed"}},
		{"nothing newer", Filter{AfterSeq: seq + 1}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, messages(rb.Find(tt.filter)))
		})
	}
}

func TestBufferSeqSurvivesClear(t *testing.T) {
	rb := New(2)
	first := rb.Add(LogEntry{Message: "x"})
	rb.Clear()
	second := rb.Add(LogEntry{Message: "y"})
	assert.Greater(t, second, first)
	assert.Equal(t, 1, rb.Count())
}
