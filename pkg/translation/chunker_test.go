package translation

import (
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nonSpace 去掉所有空白，用于比较内容是否丢失
func nonSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func TestChunkSmallText(t *testing.T) {
	chunks := Chunk("Hello world.\n\nSecond paragraph.", 2000)
	assert.Equal(t, []string{"Hello world.\n\nSecond paragraph."}, chunks)
}

func TestChunkEmpty(t *testing.T) {
	assert.Empty(t, Chunk("", 100))
	assert.Empty(t, Chunk("\n\n  \n\n", 100))
}

func TestChunkParagraphPacking(t *testing.T) {
	a := strings.Repeat("a", 40)
	b := strings.Repeat("b", 40)
	c := strings.Repeat("c", 15)
	text := a + "\n\n" + b + "\n\n" + c

	chunks := Chunk(text, 60)
	require.Len(t, chunks, 2)
	assert.Equal(t, a, chunks[0])
	assert.Equal(t, b+"\n\n"+c, chunks[1], "40 + 2 + 15 fits in 60")
}

func TestChunkOversizedParagraph(t *testing.T) {
	para := "First sentence here. Second sentence is longer! Third one? Fourth and final sentence."
	chunks := Chunk(para, 40)

	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 40, c)
	}
	assert.Equal(t, []string{
		"First sentence here.",
		"Second sentence is longer! Third one?",
		"Fourth and final sentence.",
	}, chunks)
}

func TestChunkSentenceLongerThanLimit(t *testing.T) {
	long := strings.Repeat("x", 80) + "."
	chunks := Chunk("Short one. "+long+" Tail.", 30)

	require.Len(t, chunks, 3)
	assert.Equal(t, "Short one.", chunks[0])
	assert.Equal(t, long, chunks[1], "a single sentence is never split further")
	assert.Equal(t, "Tail.", chunks[2])
}

func TestChunkCountsRunes(t *testing.T) {
	para := strings.Repeat("中", 10)
	chunks := Chunk(para+"\n\n"+para, 22)
	assert.Equal(t, []string{para + "\n\n" + para}, chunks)
}

func TestChunkDefaultSize(t *testing.T) {
	para := strings.Repeat("word ", 300) // 1500 runes
	chunks := Chunk(para+"\n\n"+para, 0)
	assert.Len(t, chunks, 2)
}

func TestChunkPreservesContent(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		sb.WriteString("Paragraph ")
		sb.WriteString(strings.Repeat("lorem ipsum dolor. ", i%7+1))
		sb.WriteString("End!\r\n\r\n")
		if i%5 == 0 {
			sb.WriteString(strings.Repeat("Run on sentence without stop ", 20))
			sb.WriteString(". Another? Yes.\n\n\n")
		}
	}
	text := sb.String()

	for _, size := range []int{50, 120, 500, 2000} {
		chunks := Chunk(text, size)
		assert.Equal(t, nonSpace(text), nonSpace(strings.Join(chunks, "")), "size %d", size)

		for _, c := range chunks {
			assert.NotEmpty(t, c)
			assert.Equal(t, strings.TrimSpace(c), c)
			if utf8.RuneCountInString(c) > size {
				// 只有单个句子可以超长
				assert.Len(t, splitSentences(c), 1, "size %d: %q", size, c)
			}
		}
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("One. Two!  Three?\nFour")
	assert.Equal(t, []string{"One.", "Two!", "Three?", "Four"}, got)

	assert.Equal(t, []string{"3.14 is pi"}, splitSentences("3.14 is pi"))
	assert.Equal(t, []string{"中文。 No split"}, splitSentences("中文。 No split"))
}
