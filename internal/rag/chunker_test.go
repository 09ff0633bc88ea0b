package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextKeepsTerminatorsAttached(t *testing.T) {
	chunks := SplitText("第一句。第二句！第三句？", 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "第一句。第二句！第三句？", chunks[0])
}

func TestSplitTextFlushesOnOverflow(t *testing.T) {
	// Each sentence is 4 runes; with a budget of 8 the third sentence
	// must open a new chunk.
	chunks := SplitText("一二三。四五六。七八九。", 8)
	require.Len(t, chunks, 2)
	assert.Equal(t, "一二三。四五六。", chunks[0])
	assert.Equal(t, "七八九。", chunks[1])
}

func TestSplitTextOversizedSentenceStaysWhole(t *testing.T) {
	long := strings.Repeat("长", 30) + "。"
	chunks := SplitText("短句。"+long+"尾句。", 10)
	require.Len(t, chunks, 3)
	assert.Equal(t, "短句。", chunks[0])
	assert.Equal(t, long, chunks[1], "oversized sentence must never be split")
	assert.Equal(t, "尾句。", chunks[2])
}

func TestSplitTextLengthAndOrderProperties(t *testing.T) {
	text := "今天天气不错。我们去公园散步吧！好主意？\n再看看明天的安排。还有一些没有终结符的内容"
	for _, size := range []int{5, 10, 20, 500} {
		chunks := SplitText(text, size)

		total := 0
		for _, c := range chunks {
			total += len([]rune(c))
		}
		assert.LessOrEqual(t, total, len([]rune(text)), "size=%d", size)

		// Concatenation reconstructs the sentence sequence in order
		// (modulo trimmed whitespace).
		joined := strings.Join(chunks, "")
		assert.Equal(t, strings.ReplaceAll(strings.TrimSpace(text), "\n", ""), strings.ReplaceAll(joined, "\n", ""), "size=%d", size)
	}
}

func TestSplitTextDropsBlankChunks(t *testing.T) {
	assert.Empty(t, SplitText("", 100))
	assert.Empty(t, SplitText("   \n  \n ", 100))
}

func TestSplitTextDefaultSize(t *testing.T) {
	// A zero size falls back to the 500-character default: a 400-rune
	// sentence pair fits in one chunk.
	text := strings.Repeat("甲", 200) + "。" + strings.Repeat("乙", 198) + "。"
	chunks := SplitText(text, 0)
	require.Len(t, chunks, 1)
}

func TestSplitTextNewlineIsTerminator(t *testing.T) {
	chunks := SplitText("第一行\n第二行\n", 4)
	require.Len(t, chunks, 2)
	assert.Equal(t, "第一行", chunks[0])
	assert.Equal(t, "第二行", chunks[1])
}
