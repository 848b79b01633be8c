package utils

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultKnowledgeBaseName is the file name of the bundled knowledge base
const DefaultKnowledgeBaseName = "knowledge_base_afrique.csv"

// ParseArea converts the area field of a request into square meters.
// Anything that is not a finite, non-negative number counts as 0.
func ParseArea(raw string) float64 {
	area, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(area) || math.IsInf(area, 0) || area < 0 {
		return 0
	}
	return area
}

// Capitalize upper-cases the first letter of s and lower-cases the rest
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// FormatYield renders a yield estimate with two decimals
func FormatYield(tons float64) string {
	return fmt.Sprintf("%.2f", tons)
}

// GetDefaultKnowledgeBasePath returns the knowledge base next to the executable,
// or in the working directory when that cannot be determined
func GetDefaultKnowledgeBasePath() string {
	exePath, err := os.Executable()
	if err != nil {
		return DefaultKnowledgeBaseName
	}

	candidate := filepath.Join(filepath.Dir(exePath), DefaultKnowledgeBaseName)
	if _, err := os.Stat(candidate); err != nil {
		return DefaultKnowledgeBaseName
	}
	return candidate
}

// RemoveFile deletes path, ignoring files that are already gone
func RemoveFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
