// Package document turns course documents into plain text.
package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"deadline_sync/internal/domain"
)

const docxBody = "word/document.xml"

// ExtractText reads the file at path and returns its text. Line structure is
// kept; runs of spaces within a line are collapsed.
func ExtractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return Extract(filepath.Base(path), data)
}

// Extract picks a reader by content first and by file extension second.
func Extract(name string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))

	switch {
	case isPDF(data):
		return extractPDF(data)
	case isZip(data) && ext != ".txt" && ext != ".md":
		return extractDOCX(data)
	case ext == ".pdf", ext == ".docx":
		return "", fmt.Errorf("%w: %s is not a valid %s file", domain.ErrParseFailure, name, ext)
	case ext == ".txt", ext == ".md", ext == ".text", ext == "" && isProbablyText(data):
		return normalize(string(data)), nil
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, name)
	}
}

func isPDF(b []byte) bool {
	return bytes.HasPrefix(b, []byte("%PDF-"))
}

func isZip(b []byte) bool {
	return bytes.HasPrefix(b, []byte("PK\x03\x04"))
}

func isProbablyText(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	sample := b[:min(len(b), 4096)]
	good := 0
	for _, c := range sample {
		if c == 0 {
			return false
		}
		if c == '\n' || c == '\r' || c == '\t' || c >= 0x20 {
			good++
		}
	}
	return float64(good)/float64(len(sample)) > 0.9
}

func extractPDF(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: pdf: %v", domain.ErrParseFailure, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: pdf reader: %v", domain.ErrParseFailure, err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("%w: pdf page %d: %v", domain.ErrParseFailure, i, err)
		}
		for _, row := range rows {
			for j, word := range row.Content {
				if j > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(word.S)
			}
			sb.WriteByte('\n')
		}
	}

	return normalize(sb.String()), nil
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: docx: %v", domain.ErrParseFailure, err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("%w: archive has no %s", domain.ErrUnsupportedFormat, docxBody)
	}

	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", domain.ErrParseFailure, docxBody, err)
	}
	defer rc.Close()

	text, err := paragraphs(rc)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrParseFailure, docxBody, err)
	}
	return normalize(text), nil
}

// paragraphs collects <w:t> runs, one line per <w:p>. Tabs and breaks inside a
// paragraph become spaces and line breaks.
func paragraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				var v string
				if err := dec.DecodeElement(&v, &el); err != nil {
					return "", err
				}
				sb.WriteString(v)
			case "tab":
				sb.WriteByte(' ')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			if el.Name.Local == "p" {
				sb.WriteByte('\n')
			}
		}
	}

	return sb.String(), nil
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\u00a0", " ")

	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
