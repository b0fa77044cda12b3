package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(t *testing.T, opts ...LoaderOption) *DocumentLoader {
	t.Helper()
	l, err := NewDocumentLoader(context.Background(), opts...)
	require.NoError(t, err)
	return l
}

// buildDocx 在内存中拼一个最小可读的 docx
func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml":          `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body + `</w:body></w:document>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename    string
		contentType string
		wantFormat  Format
		wantExt     string
	}{
		{"cv.pdf", "application/pdf", FormatPDF, ".pdf"},
		{"cv.PDF", "", FormatPDF, ".pdf"},
		{"upload", "application/pdf", FormatPDF, ".pdf"},
		{"cv.docx", "application/octet-stream", FormatDOCX, ".docx"},
		{"legacy.doc", "application/msword", FormatDOCX, ".doc"},
		{"page.htm", "text/html; charset=utf-8", FormatHTML, ".htm"},
		{"notes.txt", "text/plain; charset=utf-8", FormatText, ".txt"},
		{"image.png", "image/png", FormatUnknown, ".png"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			f, ext := DetectFormat(tt.filename, tt.contentType)
			assert.Equal(t, tt.wantFormat, f)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestSupported_Whitelist(t *testing.T) {
	l := newTestLoader(t)
	assert.True(t, l.Supported("cv.pdf", ""))
	assert.True(t, l.Supported("cv.doc", ""))
	assert.False(t, l.Supported("cv.md", "text/markdown"), ".md 不在默认白名单")
	assert.False(t, l.Supported("photo.jpg", "image/jpeg"))

	onlyPDF := newTestLoader(t, WithAllowedExtensions([]string{"pdf"}))
	assert.True(t, onlyPDF.Supported("cv.pdf", "application/pdf"))
	assert.False(t, onlyPDF.Supported("cv.txt", "text/plain"))
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()
	l := newTestLoader(t, WithMaxFileBytes(16))

	_, err := l.Load(ctx, "cv.txt", "text/plain", bytes.Repeat([]byte("a"), 17))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = l.Load(ctx, "cv.exe", "application/x-msdownload", []byte("MZ"))
	assert.ErrorIs(t, err, ErrUnsupportedFileType)

	_, err = l.Load(ctx, "cv.docx", "", []byte("not a zip"))
	assert.ErrorIs(t, err, ErrDocumentParse)
}

func TestLoad_PlainText(t *testing.T) {
	l := newTestLoader(t)
	text, err := l.Load(context.Background(), "cv.txt", "text/plain",
		[]byte("Jane  Doe\r\njane@acme.io\r\n\r\n\r\nSkills: Go,  Docker\xff"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\njane@acme.io\n\nSkills: Go, Docker", text)
}

func TestLoad_HTML(t *testing.T) {
	l := newTestLoader(t)
	page := `<html><head><title>CV</title><style>.a{color:red}</style></head>
<body>
  <nav>Home | About</nav>
  <h1>Jane Doe</h1>
  <p>jane@acme.io &amp; (555) 123-4567</p>
  <script>var tracking = 1;</script>
  <ul><li>Go</li><li>Docker</li></ul>
</body></html>`

	text, err := l.Load(context.Background(), "cv.html", "text/html", []byte(page))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\njane@acme.io & (555) 123-4567\nGo\nDocker", text)
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "Home")
}

func TestLoad_Docx(t *testing.T) {
	l := newTestLoader(t)
	body := `<w:p><w:r><w:t>Priya Raman</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>priya@fastmail.com</w:t><w:tab/><w:t>R&amp;D</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Senior</w:t><w:br/><w:t>Engineer</w:t></w:r></w:p>`

	text, err := l.Load(context.Background(), "cv.docx", "", buildDocx(t, body))
	require.NoError(t, err)
	assert.Equal(t, "Priya Raman\npriya@fastmail.com R&D\nSenior\nEngineer", text)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"fullwidth and nbsp", "Ｊａｎｅ Doe", "Jane Doe"},
		{"crlf and lone cr", "a\r\nb\rc", "a\nb\nc"},
		{"blank lines collapse to one", "a\n\n\n\n b", "a\n\nb"},
		{"leading and trailing blanks", "\n\n  a  \n\n", "a"},
		{"tabs inside line", "Go\t\tDocker", "Go Docker"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "简历", TruncateRunes("简历文本", 2))
	assert.Equal(t, "abc", TruncateRunes("abc", 10))
	assert.Equal(t, "abc", TruncateRunes("abc", 0))
	assert.Equal(t, 4, RuneCount(TruncateRunes(strings.Repeat("é", 10), 4)))
}
