package yenc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(t *testing.T, d *Decoder, chunk []byte) {
	t.Helper()
	for len(chunk) > 0 {
		w := d.Writable()
		n := copy(w, chunk)
		require.NoError(t, d.Commit(n))
		chunk = chunk[n:]
	}
}

func TestDecoderFullYencArticle(t *testing.T) {
	body := []byte("this is the article body, short enough to fit on one encoded line")
	encoded, crc := Encode(body)

	article := "222 0 <id> article retrieved - body follows\r\n" +
		"=ybegin part=1 line=128 size=" + itoa(len(body)) + " name=test.bin\r\n" +
		string(encoded) + "\r\n" +
		"=yend size=" + itoa(len(body)) + " pcrc32=" + hex8(crc) + "\r\n" +
		".\r\n"

	d := NewDecoder()
	feed(t, d, []byte(article))

	resp, ok := d.Next()
	require.True(t, ok)
	assert.Equal(t, FormatYEnc, resp.Format)
	assert.Equal(t, "test.bin", resp.FileName)
	assert.Equal(t, body, resp.Data)
	assert.Equal(t, StatusSuccess, resp.Status())
	assert.True(t, resp.HasPCRC)
	assert.Equal(t, crc, resp.PCRCExpected)
}

func TestDecoderSplitAcrossManySmallWrites(t *testing.T) {
	body := []byte("another small body for exercising partial commits across many tiny writes")
	encoded, _ := Encode(body)
	article := "222 0 <id> article retrieved - body follows\r\n" +
		"=ybegin line=128 size=" + itoa(len(body)) + " name=tiny.bin\r\n" +
		string(encoded) + "\r\n" +
		"=yend size=" + itoa(len(body)) + "\r\n" +
		".\r\n"

	d := NewDecoder()
	raw := []byte(article)
	for i := 0; i < len(raw); i++ {
		feed(t, d, raw[i:i+1])
	}

	resp, ok := d.Next()
	require.True(t, ok)
	assert.Equal(t, body, resp.Data)
	assert.Equal(t, StatusSuccess, resp.Status())
}

func TestDecoderNonMultiLineStatusHasNoBody(t *testing.T) {
	d := NewDecoder()
	feed(t, d, []byte("430 No such article\r\n"))

	resp, ok := d.Next()
	require.True(t, ok)
	assert.False(t, resp.Body)
	assert.Equal(t, StatusNotFound, resp.Status())
}

func TestDecoderCRCMismatchReportsInvalidCRC(t *testing.T) {
	body := []byte("payload")
	encoded, _ := Encode(body)
	article := "222 0 <id> article retrieved - body follows\r\n" +
		"=ybegin line=128 size=" + itoa(len(body)) + " name=bad.bin\r\n" +
		string(encoded) + "\r\n" +
		"=yend size=" + itoa(len(body)) + " pcrc32=deadbeef\r\n" +
		".\r\n"

	d := NewDecoder()
	feed(t, d, []byte(article))

	resp, ok := d.Next()
	require.True(t, ok)
	assert.Equal(t, StatusInvalidCRC, resp.Status())
}

func TestDecoderMultiPartArticleUsesZeroBasedPartBegin(t *testing.T) {
	body := []byte(strings.Repeat("x", 34))
	encoded, crc := Encode(body)

	article := "222 0 <id> article retrieved - body follows\r\n" +
		"=ybegin part=2 total=2 line=128 size=200 name=split.bin\r\n" +
		"=ypart begin=101 end=134\r\n" +
		string(encoded) + "\r\n" +
		"=yend size=" + itoa(len(body)) + " pcrc32=" + hex8(crc) + "\r\n" +
		".\r\n"

	d := NewDecoder()
	feed(t, d, []byte(article))

	resp, ok := d.Next()
	require.True(t, ok)
	assert.Equal(t, int64(2), resp.Total)
	assert.Equal(t, int64(100), resp.PartBegin)
	assert.Equal(t, int64(134), resp.PartEnd)
	assert.Equal(t, int64(34), resp.PartSize)
	assert.Equal(t, StatusSuccess, resp.Status())
}

func TestDecoderTrailerSizeMismatchReportsInvalidSize(t *testing.T) {
	body := []byte("payload whose trailer size lies about the real length")
	encoded, crc := Encode(body)

	article := "222 0 <id> article retrieved - body follows\r\n" +
		"=ybegin line=128 size=" + itoa(len(body)) + " name=lying.bin\r\n" +
		string(encoded) + "\r\n" +
		"=yend size=" + itoa(len(body)+1) + " pcrc32=" + hex8(crc) + "\r\n" +
		".\r\n"

	d := NewDecoder()
	feed(t, d, []byte(article))

	resp, ok := d.Next()
	require.True(t, ok)
	assert.Equal(t, StatusInvalidSize, resp.Status())
}

func TestDecoderAuthStatusCodes(t *testing.T) {
	for _, code := range []string{"281", "381", "480", "481", "482"} {
		d := NewDecoder()
		feed(t, d, []byte(code+" auth needed\r\n"))
		resp, ok := d.Next()
		require.True(t, ok)
		assert.Equal(t, StatusAuth, resp.Status(), "code %s", code)
	}
}

func TestDecoderFatalStatusCodes(t *testing.T) {
	for _, code := range []string{"400", "500", "501", "502", "503"} {
		d := NewDecoder()
		feed(t, d, []byte(code+" service unavailable\r\n"))
		resp, ok := d.Next()
		require.True(t, ok)
		assert.Equal(t, StatusFailed, resp.Status(), "code %s", code)
	}
}

func TestDecoderHeaderlessUUBodyDetected(t *testing.T) {
	// "M"-prefixed 61-char lines are the shape of a continuation part of
	// a multi-part UU body that never got its own "begin" header.
	line := "M" + strings.Repeat("0", 60)
	article := "222 0 <id> article retrieved - body follows\r\n" +
		line + "\r\n" +
		"end\r\n" +
		".\r\n"

	d := NewDecoder()
	feed(t, d, []byte(article))

	resp, ok := d.Next()
	require.True(t, ok)
	assert.Equal(t, FormatUU, resp.Format)
}

func TestDecoderUUBadLengthByteSetsHasBadData(t *testing.T) {
	article := "222 0 <id> article retrieved - body follows\r\n" +
		"begin 644 broken.bin\r\n" +
		"5X\r\n" +
		"end\r\n" +
		".\r\n"

	d := NewDecoder()
	feed(t, d, []byte(article))

	resp, ok := d.Next()
	require.True(t, ok)
	assert.True(t, resp.HasBadData)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := [20]byte{}
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits[i:])
}

func hex8(v uint32) string {
	const hexDigits = "0123456789abcdef"
	out := [8]byte{}
	for i := 7; i >= 0; i-- {
		out[i] = hexDigits[v&0xf]
		v >>= 4
	}
	return string(out[:])
}
