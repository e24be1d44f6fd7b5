package constants

import "strings"

const PDF = "PDF"

// AllowedExtensions holds the allowed file extensions for voter-roll uploads and batch runs.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToFormat returns the job format for an extension, or "" when unsupported.
func MapExtToFormat(ext string) string {
	if _, ok := AllowedExtensions[NormalizeExt(ext)]; ok {
		return PDF
	}
	return ""
}
