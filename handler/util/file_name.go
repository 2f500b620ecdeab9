package handler

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	unsafe_file_name_chars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
	path_separators        = strings.NewReplacer("/", " ", `\`, " ")

	// names Windows reserves regardless of extension
	reserved_file_names = []string{
		"CON", "PRN", "AUX", "NUL",
		"COM1", "COM2", "COM3", "COM4", "COM5", "COM6", "COM7", "COM8", "COM9",
		"LPT1", "LPT2", "LPT3", "LPT4", "LPT5", "LPT6", "LPT7", "LPT8", "LPT9",
	}
)

// SanitizeFileName reduces a client-supplied name to a single safe path
// element made of ASCII letters, digits, '_', '.' and '-'. The result never
// contains a separator and never starts with '.', so it can be joined onto
// the upload dir directly. It may be empty.
func SanitizeFileName(name string) string {
	// decompose accents so e.g. "é" keeps its "e"
	name = norm.NFKD.String(name)
	name = strings.Map(func(r rune) rune {
		if r >= utf8.RuneSelf {
			return -1
		}
		return r
	}, name)

	name = path_separators.Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafe_file_name_chars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")

	if name == "" {
		return ""
	}

	stem, _, _ := strings.Cut(name, ".")
	if slices.Contains(reserved_file_names, strings.ToUpper(stem)) {
		name = "_" + name
	}

	return name
}

// FileExtension returns the lowercased text after the last '.', or false if
// the name has no '.'.
func FileExtension(name string) (string, bool) {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return "", false
	}
	return strings.ToLower(name[i+1:]), true
}

func HasAllowedExtension(name string, allowed []string) bool {
	ext, ok := FileExtension(name)
	if !ok || ext == "" {
		return false
	}
	return slices.Contains(allowed, ext)
}
