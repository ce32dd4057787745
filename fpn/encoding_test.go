package fpn

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodePlainASCII(t *testing.T) {
	text, chosen, err := Decode([]byte("NODE, 1, 0, 0, 0\n"), nil, 0)
	assert.NoError(t, err)
	assert.Equal(t, "utf-8-sig", chosen)
	assert.Equal(t, "NODE, 1, 0, 0, 0\n", text)
}

func TestDecodeStripsBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("VER, 2.0\n")...)
	text, chosen, err := Decode(data, nil, 0)
	assert.NoError(t, err)
	assert.Equal(t, "utf-8-sig", chosen)
	assert.Equal(t, "VER, 2.0\n", text)
}

func TestDecodeGBK(t *testing.T) {
	// "MSET, 1, <anchor rod in GBK>"; the two ideographs decode
	// cleanly only under the CJK candidates.
	data := []byte("MSET, 1, \xc3\xaa\xb8\xcb\n")
	text, chosen, err := Decode(data, nil, 0)
	assert.NoError(t, err)
	assert.Equal(t, "gb18030", chosen)
	assert.True(t, strings.Contains(text, "锚杆"))
}

func TestDecodeFallsBackToLatin1(t *testing.T) {
	data := []byte("BSET, 2, ZON\xc9\n") // ZONÉ in cp1252/latin1
	_, chosen, err := Decode(data, []string{"utf-8", "cp1252"}, 0)
	assert.NoError(t, err)
	assert.Equal(t, "cp1252", chosen)
}

func TestDecodeFailure(t *testing.T) {
	data := []byte("\xff\xfe\xfd garbage \xff\xff\xff\xff\xff\xff")
	_, _, err := Decode(data, []string{"utf-8"}, 0.01)
	var encErr *EncodingError
	assert.ErrorAs(t, err, &encErr)
	assert.Equal(t, []string{"utf-8"}, encErr.Candidates)
	assert.NotEmpty(t, encErr.Ratios)
}

func TestDecodeUnknownCandidate(t *testing.T) {
	_, _, err := Decode([]byte("x"), []string{"klingon"}, 0)
	assert.Error(t, err)
}
