package rag

import "strings"

// DefaultChunkSize is the default chunk size in characters (runes).
const DefaultChunkSize = 500

// sentence terminators: CJK and Latin sentence-ending punctuation plus
// newline. The terminator stays attached to its sentence.
func isSentenceEnd(r rune) bool {
	switch r {
	case '。', '！', '？', '!', '?', '\n':
		return true
	}
	return false
}

// splitSentences cuts text into sentences, each keeping its trailing
// terminator. A trailing fragment without a terminator is returned as
// the last sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if isSentenceEnd(r) {
			sentences = append(sentences, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}

// SplitText splits text into chunks of at most maxChunkSize characters,
// never breaking inside a sentence. Whole sentences are accumulated
// greedily; a single sentence longer than maxChunkSize is emitted as
// its own oversized chunk. Chunks are trimmed and blank chunks dropped.
func SplitText(text string, maxChunkSize int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultChunkSize
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
		current.Reset()
		currentLen = 0
	}

	for _, sentence := range splitSentences(text) {
		sentenceLen := len([]rune(sentence))
		if currentLen+sentenceLen > maxChunkSize && currentLen > 0 {
			flush()
		}
		current.WriteString(sentence)
		currentLen += sentenceLen
	}
	flush()

	return chunks
}
