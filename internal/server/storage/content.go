package storage

import (
	"bufio"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen is enough for every format mimetype recognises by header.
const sniffLen = 3072

// SniffContentType peeks at the head of r and reports its media type. The
// returned reader yields the full stream including the sniffed bytes. A
// seekable r is rewound and returned as is, so uploads that need to seek
// (S3 over plain HTTP) keep working.
func SniffContentType(r io.Reader) (string, io.Reader, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return sniffSeeker(rs)
	}

	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return "", nil, err
	}
	return mimetype.Detect(head).String(), br, nil
}

func sniffSeeker(rs io.ReadSeeker) (string, io.Reader, error) {
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return "", nil, err
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(rs, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, err
	}
	if _, err := rs.Seek(start, io.SeekStart); err != nil {
		return "", nil, err
	}
	return mimetype.Detect(head[:n]).String(), rs, nil
}

// IsImage reports whether contentType is a raster format accepted as a
// thumbnail.
func IsImage(contentType string) bool {
	return mimetype.EqualsAny(contentType, "image/png", "image/jpeg", "image/gif", "image/webp")
}

// ExtensionFor returns the usual file extension of contentType without the
// dot, or "" when mimetype does not know it.
func ExtensionFor(contentType string) string {
	m := mimetype.Lookup(contentType)
	if m == nil {
		return ""
	}
	return strings.TrimPrefix(m.Extension(), ".")
}
