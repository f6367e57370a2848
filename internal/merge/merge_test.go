package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeSingleChunkPassesThrough(t *testing.T) {
	r := Merge([]ChunkTranscript{{Text: "  hello   world  ", Confidence: 0.7}}, 1.0)
	assert.Equal(t, "hello world", r.Text)
	assert.InDelta(t, 0.7, r.Confidence, 1e-9)
}

func TestMergeConcatenatesWithoutOverlap(t *testing.T) {
	chunks := []ChunkTranscript{
		{Text: "the quick brown fox", Confidence: 0.9},
		{Text: "jumps over the lazy dog", Confidence: 0.8},
	}
	r := Merge(chunks, 0)
	assert.Equal(t, "the quick brown fox jumps over the lazy dog", r.Text)
	assert.InDelta(t, 0.85, r.Confidence, 1e-9)
}

func TestMergeDedupesOverlappingTail(t *testing.T) {
	chunks := []ChunkTranscript{
		{Text: "one two three four five six seven", Confidence: 0.9},
		{Text: "five six seven eight nine ten", Confidence: 0.9},
	}
	r := Merge(chunks, 2.0)
	assert.Equal(t, "one two three four five six seven eight nine ten", r.Text)
}

func TestMergeDedupeIgnoresCaseAndPunctuation(t *testing.T) {
	chunks := []ChunkTranscript{
		{Text: "hello there, friend", Confidence: 1},
		{Text: "Hello There Friend, how are you", Confidence: 1},
	}
	r := Merge(chunks, 2.0)
	assert.Equal(t, "hello there, friend how are you", r.Text)
}

func TestMergeFallsBackToPlainJoinBelowMinMatch(t *testing.T) {
	chunks := []ChunkTranscript{
		{Text: "completely different text here", Confidence: 1},
		{Text: "nothing in common at all", Confidence: 1},
	}
	r := Merge(chunks, 2.0)
	assert.Equal(t, "completely different text here nothing in common at all", r.Text)
}

func TestMergeEmptyInput(t *testing.T) {
	r := Merge(nil, 1.0)
	assert.Equal(t, Result{}, r)
}
