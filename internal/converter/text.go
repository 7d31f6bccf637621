package converter

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/traditionalchinese"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffSize = 64 * 1024

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// openText opens a text file as UTF-8.
// A byte order mark selects the Unicode encoding and is dropped; input that is
// not valid UTF-8 is decoded as Big5.
func openText(path string) (*bufio.Reader, io.Closer, error) {
	f, err := os.Open(path) //nolint:gosec,G304
	if err != nil {
		return nil, nil, err
	}

	br := bufio.NewReaderSize(f, sniffSize)
	head, err := br.Peek(sniffSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		_ = f.Close()
		return nil, nil, err
	}

	var r io.Reader = br
	switch {
	case hasBOM(head):
		r = transform.NewReader(br, xunicode.BOMOverride(encoding.Nop.NewDecoder()))
	case !validUTF8Prefix(head, len(head) == sniffSize):
		r = transform.NewReader(br, traditionalchinese.Big5.NewDecoder())
	}

	return bufio.NewReaderSize(r, sniffSize), f, nil
}

func hasBOM(b []byte) bool {
	return bytes.HasPrefix(b, bomUTF8) || bytes.HasPrefix(b, bomUTF16BE) || bytes.HasPrefix(b, bomUTF16LE)
}

// validUTF8Prefix tolerates a rune cut off at the end of a truncated sample
func validUTF8Prefix(b []byte, truncated bool) bool {
	limit := 0
	if truncated {
		limit = utf8.UTFMax - 1
	}
	for i := 0; i <= limit && i <= len(b); i++ {
		if utf8.Valid(b[:len(b)-i]) {
			return true
		}
	}
	return false
}

// firstLine returns the first line of the reader without consuming it
func firstLine(r *bufio.Reader) string {
	head, _ := r.Peek(sniffSize)
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	return strings.TrimRight(string(head), "\r")
}

// pickDelimiter returns the most frequent candidate in line; ties go to the earlier candidate
func pickDelimiter(line string, candidates []rune) rune {
	best, bestCount := candidates[0], -1
	for _, c := range candidates {
		if n := strings.Count(line, string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

func trimSpace(s string) string {
	return strings.TrimFunc(s, unicode.IsSpace)
}
