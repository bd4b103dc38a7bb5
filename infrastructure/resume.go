package infrastructure

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

const maxRawResumeBytes = 10000

// ExtractResumeText pulls plain text out of an uploaded resume. It never
// fails the upload: unknown formats and broken files degrade to truncated
// raw bytes.
func ExtractResumeText(file multipart.File, filename string) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	ext := ""
	if idx := strings.LastIndex(filename, "."); idx != -1 {
		ext = strings.ToLower(filename[idx+1:])
	}

	switch ext {
	case "txt":
		return string(data), nil
	case "pdf":
		if text, err := extractTextFromPDF(data); err == nil && text != "" {
			return text, nil
		}
		return rawFallback(data), nil
	case "docx":
		if text, err := extractTextFromDocx(data); err == nil && text != "" {
			return text, nil
		}
		return rawFallback(data), nil
	default:
		return rawFallback(data), nil
	}
}

func rawFallback(data []byte) string {
	if len(data) > maxRawResumeBytes {
		data = data[:maxRawResumeBytes]
	}
	return string(data)
}

// extractTextFromPDF walks every page, skipping pages that fail rather than
// aborting the whole document.
func extractTextFromPDF(data []byte) (string, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("failed to get page count: %w", err)
	}
	if numPages == 0 {
		return "", fmt.Errorf("PDF has no pages")
	}

	var textBuilder strings.Builder
	extractedAny := false
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			continue
		}
		pageText, err := ex.ExtractText()
		if err != nil || pageText == "" {
			continue
		}
		extractedAny = true
		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n\n")
	}

	if !extractedAny {
		return "", fmt.Errorf("no text could be extracted from any page")
	}
	return strings.TrimSpace(textBuilder.String()), nil
}

func extractTextFromDocx(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read docx: %w", err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	return strings.TrimSpace(stripDocxMarkup(content)), nil
}

// stripDocxMarkup flattens document.xml into plain text, keeping paragraph
// boundaries as newlines.
func stripDocxMarkup(content string) string {
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	var b strings.Builder
	inTag := false
	for _, r := range content {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
