package nzb

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) ParseFile(nzbPath string) (*Model, error) {
	f, err := os.Open(nzbPath)
	if err != nil {
		return nil, fmt.Errorf("open nzb file: %w", err)
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse decodes an NZB document. Many indexers still emit NZBs declared
// as iso-8859-1/windows-1252 (a holdover from Usenet's pre-UTF-8 era), so
// the decoder is given a CharsetReader that transcodes those into UTF-8
// rather than erroring on the declared charset, the same Latin-1 fallback
// yenc.decodeFilename applies to article filenames.
func (p *Parser) Parse(r io.Reader) (*Model, error) {
	var model Model
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charsetReader
	if err := decoder.Decode(&model); err != nil {
		return nil, err
	}
	return &model, nil
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "utf-8", "utf8", "":
		return input, nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	default:
		return nil, fmt.Errorf("unsupported nzb charset: %s", charset)
	}
}
