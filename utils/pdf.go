package utils

import (
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ValidatePDFFile checks that the uploaded file really is a well-formed PDF.
// The client already filters on extension and mime type; this is the
// server-side re-validation of the same constraint.
func ValidatePDFFile(path string) error {
	if err := api.ValidateFile(path, nil); err != nil {
		return fmt.Errorf("file is not a valid PDF: %w", err)
	}
	return nil
}

// IsPDFContentType reports whether the declared content type is PDF.
func IsPDFContentType(contentType string) bool {
	return strings.EqualFold(strings.TrimSpace(contentType), "application/pdf")
}
