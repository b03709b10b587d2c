package subtitles

import (
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

// DefaultFileName is used when no audio file name is available.
const DefaultFileName = "subtitles.srt"

// Assembler accumulates blocks into SubRip text. It is append-only; blocks are
// written in arrival order regardless of their ids. Not safe for concurrent use.
type Assembler struct {
	buf   strings.Builder
	count int
}

// Append formats one block as id, time range, text, blank line.
func (a *Assembler) Append(block Block) {
	a.buf.WriteString(strconv.Itoa(block.ID))
	a.buf.WriteByte('\n')
	a.buf.WriteString(block.StartTime)
	a.buf.WriteString(" --> ")
	a.buf.WriteString(block.EndTime)
	a.buf.WriteByte('\n')
	a.buf.WriteString(block.Text)
	a.buf.WriteString("\n\n")
	a.count++
}

// Finalize returns the accumulated text with trailing whitespace trimmed.
func (a *Assembler) Finalize() string {
	return strings.TrimRightFunc(a.buf.String(), unicode.IsSpace)
}

// String returns the accumulated text as-is.
func (a *Assembler) String() string {
	return a.buf.String()
}

// Len reports how many blocks were appended.
func (a *Assembler) Len() int {
	return a.count
}

// Reset discards everything accumulated so far.
func (a *Assembler) Reset() {
	a.buf.Reset()
	a.count = 0
}

// FormatBlock returns the SubRip form of a single block, blank line included,
// exactly as Append would write it.
func FormatBlock(block Block) string {
	var a Assembler
	a.Append(block)
	return a.String()
}

// Assemble is a convenience for formatting a complete block list.
func Assemble(blocks []Block) string {
	var a Assembler
	for _, b := range blocks {
		a.Append(b)
	}
	return a.Finalize()
}

// fileNameReplacer strips characters that are unsafe in file names on common
// filesystems.
var fileNameReplacer = strings.NewReplacer(
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// OutputName derives the subtitle file name from the audio file name by
// replacing its extension with .srt. Browser uploads may carry a Windows path,
// so both separators are stripped.
func OutputName(audioName string) string {
	base := strings.TrimSpace(audioName)
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.TrimSpace(fileNameReplacer.Replace(stem))
	if stem == "" {
		return DefaultFileName
	}
	return stem + ".srt"
}
