package document

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deadline_sync/internal/domain"
)

func buildDOCX(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>CS 101 Course Outline</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Midterm exam on </w:t></w:r><w:r><w:t>November 20</w:t></w:r></w:p>
    <w:p><w:r><w:t>Week</w:t><w:tab/><w:t>Topic</w:t><w:br/><w:t>Final exam TBA</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestExtract_DOCX(t *testing.T) {
	data := buildDOCX(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		docxBody:              documentXML,
	})

	text, err := Extract("outline.docx", data)

	require.NoError(t, err)
	assert.Equal(t, "CS 101 Course Outline\nMidterm exam on November 20\nWeek Topic\nFinal exam TBA", text)
}

func TestExtract_ZipWithoutDocumentBody(t *testing.T) {
	data := buildDOCX(t, map[string]string{"xl/workbook.xml": `<workbook/>`})

	_, err := Extract("grades.xlsx", data)

	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestExtract_PlainText(t *testing.T) {
	text, err := Extract("notes.txt", []byte("Quiz 1   on Oct 5\r\n\r\n  Quiz 2 on Oct 19  \n"))

	require.NoError(t, err)
	assert.Equal(t, "Quiz 1 on Oct 5\nQuiz 2 on Oct 19", text)
}

func TestExtract_CorruptInputs(t *testing.T) {
	_, err := Extract("syllabus.pdf", []byte("%PDF-1.7\nthis is not really a pdf"))
	assert.ErrorIs(t, err, domain.ErrParseFailure)

	_, err = Extract("outline.docx", []byte("plain bytes"))
	assert.ErrorIs(t, err, domain.ErrParseFailure)

	_, err = Extract("syllabus.pdf", []byte("no header at all"))
	assert.ErrorIs(t, err, domain.ErrParseFailure)
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	_, err := Extract("slides.pptx.bin", []byte{0x00, 0x01, 0x02})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = Extract("legacy.doc", []byte{0xd0, 0xcf, 0x11, 0xe0})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestExtractText_FromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "outline.md")
	require.NoError(t, os.WriteFile(path, []byte("# Outline\nExam on December 9"), 0o600))

	text, err := ExtractText(path)
	require.NoError(t, err)
	assert.Equal(t, "# Outline\nExam on December 9", text)

	_, err = ExtractText(filepath.Join(dir, "missing.pdf"))
	assert.Error(t, err)
}
