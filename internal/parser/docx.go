package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"golang.org/x/net/html"
)

var (
	// 段落、换行、制表符先换成对应的空白，再整体去掉标签
	docxParagraphEndRe = regexp.MustCompile(`</w:p>`)
	docxBreakRe        = regexp.MustCompile(`<w:(?:br|cr)[^>]*/>`)
	docxTabRe          = regexp.MustCompile(`<w:tab[^>]*/>`)
	xmlTagRe           = regexp.MustCompile(`<[^>]+>`)
)

// extractDocxText 读取 word/document.xml 并还原为纯文本，每个段落一行
func extractDocxText(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer r.Close()

	return docxXMLToText(r.Editable().GetContent()), nil
}

func docxXMLToText(content string) string {
	content = docxParagraphEndRe.ReplaceAllString(content, "\n")
	content = docxBreakRe.ReplaceAllString(content, "\n")
	content = docxTabRe.ReplaceAllString(content, "\t")
	content = xmlTagRe.ReplaceAllString(content, "")
	return strings.TrimSpace(html.UnescapeString(content))
}
