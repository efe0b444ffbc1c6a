package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultMaxUploadMB caps uploaded spreadsheet size
const DefaultMaxUploadMB = 100

var allowedSpreadsheetExts = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xls":  true,
}

var unsafeFileChars = regexp.MustCompile(`[^\p{L}\p{N}._\-]`)

// ValidateFileExtension accepts spreadsheet file names only
func ValidateFileExtension(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedSpreadsheetExts[ext] {
		return fmt.Errorf("unsupported file type %q: only .xlsx, .xls and .xlsm are accepted", ext)
	}
	return nil
}

// ValidateFileSize rejects empty files and files larger than maxMB megabytes
func ValidateFileSize(size int64, maxMB int) error {
	if size <= 0 {
		return fmt.Errorf("file is empty")
	}
	if maxMB <= 0 {
		maxMB = DefaultMaxUploadMB
	}
	if size > int64(maxMB)*1024*1024 {
		return fmt.Errorf("file size %d bytes exceeds %d MB limit", size, maxMB)
	}
	return nil
}

// SanitizeFileName reduces a user supplied file name to a single safe path
// segment
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.ReplaceAll(name, "..", "")
	name = unsafeFileChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	return name
}
