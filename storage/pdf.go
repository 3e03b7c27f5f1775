package storage

import (
	"bufio"
	"bytes"
	"io"
)

var pdfMagic = []byte("%PDF-")

// SniffPDF reports whether r starts with the PDF header. The returned reader
// replays the inspected bytes.
func SniffPDF(r io.Reader) (io.Reader, bool) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(pdfMagic))
	return br, bytes.Equal(head, pdfMagic)
}
