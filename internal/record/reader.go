package record

// reader.go turns raw file bytes into the lines the parsers consume.
//
// Input is decoded from the definition's character encoding to UTF-8 on the
// fly. A leading byte order mark overrides the declared encoding and is
// dropped. Each returned line keeps its "\n" terminator; "\r\n" is folded to
// "\n" so that Windows exports parse the same as Unix ones.

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUnknownEncoding is returned for an encoding label that is not registered
// in the WHATWG encoding index.
var ErrUnknownEncoding = errors.New("unknown character encoding")

// ReadLines decodes r with the named encoding and splits it into lines. An
// empty encoding means UTF-8.
func ReadLines(r io.Reader, encoding string) ([]string, error) {
	lines, _, err := readLines(r, encoding)
	return lines, err
}

// ReadFile reads the file at path into lines. It also reports how many bytes
// were read from disk.
func ReadFile(path, encoding string) ([]string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	return readLines(f, encoding)
}

func readLines(r io.Reader, encoding string) ([]string, int64, error) {
	if encoding == "" {
		encoding = "utf-8"
	}
	enc, err := htmlindex.Get(encoding)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnknownEncoding, encoding)
	}

	counter := &countingReader{reader: r}
	decoded := transform.NewReader(counter, unicode.BOMOverride(enc.NewDecoder()))
	br := bufio.NewReader(decoded)

	var lines []string
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if strings.HasSuffix(line, "\r\n") {
				line = line[:len(line)-2] + "\n"
			}
			lines = append(lines, line)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, counter.bytesRead, err
		}
	}
	return lines, counter.bytesRead, nil
}

// countingReader tracks bytes read from the underlying source, before decoding.
type countingReader struct {
	reader    io.Reader
	bytesRead int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.bytesRead += int64(n)
	return n, err
}
