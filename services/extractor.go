package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"pdf-rag-service/internal/config"
	"pdf-rag-service/internal/logger"
	"pdf-rag-service/internal/textproc"
)

// PDFTextExtractor extracts text from PDFs. It tries the embedded text layer
// first and falls back to the external OCR service for scanned documents
// whose text layer is missing or unusable.
type PDFTextExtractor struct {
	ocrBaseURL string
	httpClient *http.Client
}

// OCRResponse is the wire format of the OCR service.
type OCRResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
	Pages   int    `json:"pages"`
	Error   string `json:"error,omitempty"`
}

func NewPDFTextExtractor(cfg *config.Config) *PDFTextExtractor {
	return &PDFTextExtractor{
		ocrBaseURL: cfg.OCRServiceURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.OCRTimeout) * time.Second, // OCR can take time
		},
	}
}

// ExtractText returns the document's text, preferring the native text layer.
func (e *PDFTextExtractor) ExtractText(ctx context.Context, filename string, data []byte) (string, error) {
	text, err := e.extractTextLayer(data)
	if err == nil && usableText(text) {
		logger.Debug("Extracted text layer", "filename", filename, "characters", len(text))
		return text, nil
	}
	if err != nil {
		logger.Debug("Text layer extraction failed, falling back to OCR", "filename", filename, "error", err)
	}

	return e.extractWithOCR(ctx, filename, data)
}

// extractTextLayer reads the PDF's embedded text, page by page.
func (e *PDFTextExtractor) extractTextLayer(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}

		if textBuilder.Len() > 0 {
			textBuilder.WriteString("\n")
		}
		textBuilder.WriteString(text)
	}

	extracted := textBuilder.String()
	if extracted == "" {
		return "", fmt.Errorf("no text layer found")
	}
	return extracted, nil
}

// extractWithOCR sends the document to the OCR service.
func (e *PDFTextExtractor) extractWithOCR(ctx context.Context, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fileWriter, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fileWriter.Write(data); err != nil {
		return "", fmt.Errorf("failed to copy file data: %w", err)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.ocrBaseURL+"/ocr/extract", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create OCR request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("OCR request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("OCR request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var ocrResp OCRResponse
	if err := json.NewDecoder(resp.Body).Decode(&ocrResp); err != nil {
		return "", fmt.Errorf("failed to decode OCR response: %w", err)
	}
	if !ocrResp.Success {
		return "", fmt.Errorf("OCR processing failed: %s", ocrResp.Error)
	}

	logger.Debug("OCR extraction complete", "filename", filename, "pages", ocrResp.Pages, "characters", len(ocrResp.Text))
	return ocrResp.Text, nil
}

// usableText gates the text-layer fast path. Scanned PDFs often yield an
// empty or garbage text layer that must not short-circuit OCR.
func usableText(text string) bool {
	normalized := textproc.NormalizeText(text)
	if len(normalized) < 50 {
		return false
	}

	var letters, total int
	for _, r := range normalized {
		total++
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			letters++
		}
	}
	return total > 0 && float64(letters)/float64(total) >= 0.3
}
