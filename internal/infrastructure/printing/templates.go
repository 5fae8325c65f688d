package printing

import (
	"embed"
	"fmt"
)

//go:embed templates/*.html
var templateFS embed.FS

const receiptTemplatePath = "templates/receipt_a5.html"

// LoadTemplateContent loads an embedded template by path
func LoadTemplateContent(filePath string) (string, error) {
	content, err := templateFS.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to load template %s: %w", filePath, err)
	}
	return string(content), nil
}
