// Package document pulls plain text out of uploaded resumes and job descriptions.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MimePlain = "text/plain"
	MimePDF   = "application/pdf"
	MimeDOCX  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var ErrUnsupported = errors.New("unsupported file type")

var byExtension = map[string]string{
	".txt":  MimePlain,
	".md":   MimePlain,
	".pdf":  MimePDF,
	".docx": MimeDOCX,
}

// DetectType resolves the declared content type, falling back to the file
// extension when the upload carried none or a generic one.
func DetectType(contentType, filename string) string {
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt != "application/octet-stream" {
			return mt
		}
	}
	return byExtension[strings.ToLower(filepath.Ext(filename))]
}

// ExtractText returns the text content of data.
func ExtractText(contentType, filename string, data []byte) (string, error) {
	mt := DetectType(contentType, filename)
	var (
		text string
		err  error
	)
	switch mt {
	case MimePlain:
		text = string(data)
	case MimePDF:
		text, err = extractPDF(data)
	case MimeDOCX:
		text, err = extractDOCX(data)
	default:
		// unknown uploads are accepted when they are readable text
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %q", ErrUnsupported, contentType)
		}
		text = string(data)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()
	return doc.Editable().GetContent(), nil
}
