package fpn

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncodings is the candidate list tried against a model file,
// in priority order. Files out of MIDAS GTS NX are most often UTF-8
// or a Chinese codepage; the single-byte codepages sit last because
// they decode any byte sequence and would otherwise mask the right
// answer.
var DefaultEncodings = []string{
	"utf-8-sig", "utf-8", "gb18030", "gbk", "big5", "cp1252", "latin1",
}

// DefaultMaxReplacementRatio is the highest tolerated density of
// substituted characters before a candidate encoding is rejected.
const DefaultMaxReplacementRatio = 0.01

// EncodingError is the only fatal condition in the pipeline: no
// candidate encoding decoded the file below the replacement-density
// threshold.
type EncodingError struct {
	Candidates []string
	Ratios     []float64
}

func (e *EncodingError) Error() string {
	parts := make([]string, len(e.Candidates))
	for i, name := range e.Candidates {
		parts[i] = fmt.Sprintf("%s=%.4f", name, e.Ratios[i])
	}
	return fmt.Sprintf("no acceptable text encoding, replacement ratios: %s",
		strings.Join(parts, ", "))
}

func encodingByName(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "utf-8-sig", "utf-8-bom":
		return unicode.UTF8BOM, nil
	case "utf-8", "utf8":
		return unicode.UTF8, nil
	case "gb18030":
		return simplifiedchinese.GB18030, nil
	case "gbk", "cp936":
		return simplifiedchinese.GBK, nil
	case "big5":
		return traditionalchinese.Big5, nil
	case "cp1252", "windows-1252":
		return charmap.Windows1252, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	default:
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
}

// Decode tries each candidate against the whole file and returns the
// decoded text plus the name of the first candidate whose density of
// substituted characters stays below maxRatio. Scoring whole-file
// rather than per-line keeps multi-byte text from being silently
// stitched together out of two encodings.
func Decode(data []byte, candidates []string, maxRatio float64) (text, chosen string, err error) {
	if len(candidates) == 0 {
		candidates = DefaultEncodings
	}
	if maxRatio <= 0 {
		maxRatio = DefaultMaxReplacementRatio
	}
	ratios := make([]float64, 0, len(candidates))
	for _, name := range candidates {
		enc, lerr := encodingByName(name)
		if lerr != nil {
			return "", "", lerr
		}
		decoded, derr := enc.NewDecoder().Bytes(data)
		if derr != nil {
			ratios = append(ratios, 1)
			continue
		}
		r := replacementRatio(decoded)
		ratios = append(ratios, r)
		if r <= maxRatio {
			return string(decoded), name, nil
		}
	}
	return "", "", &EncodingError{Candidates: candidates, Ratios: ratios}
}

func replacementRatio(decoded []byte) float64 {
	var total, bad int
	for i := 0; i < len(decoded); {
		r, size := utf8.DecodeRune(decoded[i:])
		total++
		if r == utf8.RuneError && size == 1 || r == '�' {
			bad++
		}
		i += size
	}
	if total == 0 {
		return 0
	}
	return float64(bad) / float64(total)
}
