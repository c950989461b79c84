package translation

import (
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// DefaultChunkSize 默认分块大小（字符数）
const DefaultChunkSize = 2000

const (
	paragraphSeparator = "\n\n"
	sentenceSeparator  = " "
)

// sentenceBoundary 句末标点之后的空白
var sentenceBoundary = regexp2.MustCompile(`(?<=[.!?])\s+`, regexp2.None)

// Chunk 按段落、必要时按句子将文本切分为不超过 maxSize 个字符的块
// 单个句子本身超过 maxSize 时不再继续切分
func Chunk(text string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultChunkSize
	}

	b := &chunkBuilder{maxSize: maxSize}
	for _, para := range splitParagraphs(text) {
		if runeLen(para) > maxSize {
			for i, sentence := range splitSentences(para) {
				separator := sentenceSeparator
				if i == 0 {
					separator = paragraphSeparator
				}
				b.add(sentence, separator)
			}
			continue
		}
		b.add(para, paragraphSeparator)
	}
	b.flush()

	return b.chunks
}

// chunkBuilder 贪心地把片段装入当前块
type chunkBuilder struct {
	maxSize int
	current strings.Builder
	size    int
	chunks  []string
}

// add 追加片段，放不下时先输出当前块
func (b *chunkBuilder) add(piece, separator string) {
	n := runeLen(piece)
	if b.size > 0 && b.size+runeLen(separator)+n > b.maxSize {
		b.flush()
	}
	if b.size > 0 {
		b.current.WriteString(separator)
		b.size += runeLen(separator)
	}
	b.current.WriteString(piece)
	b.size += n
}

func (b *chunkBuilder) flush() {
	chunk := strings.TrimSpace(b.current.String())
	if chunk != "" {
		b.chunks = append(b.chunks, chunk)
	}
	b.current.Reset()
	b.size = 0
}

// splitParagraphs 按空行分段，去掉空段
func splitParagraphs(text string) []string {
	// 标准化换行符
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	parts := strings.Split(text, paragraphSeparator)
	paragraphs := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			paragraphs = append(paragraphs, part)
		}
	}
	return paragraphs
}

// splitSentences 在句末标点后的空白处切分
func splitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string

	start := 0
	m, err := sentenceBoundary.FindRunesMatch(runes)
	for err == nil && m != nil {
		if s := string(runes[start:m.Index]); s != "" {
			sentences = append(sentences, s)
		}
		start = m.Index + m.Length
		m, err = sentenceBoundary.FindNextMatch(m)
	}
	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}
	return sentences
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
