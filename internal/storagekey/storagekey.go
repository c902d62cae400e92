// Package storagekey derives the on-disk folder names for albums and notes.
// The collector writes folders with these names and the catalog looks them up
// with the same functions.
package storagekey

import (
	"regexp"
	"strings"
)

// MaxLen is the maximum length of a sanitized name, in characters.
const MaxLen = 80

// Fallback is returned when a name sanitizes to nothing.
const Fallback = "untitled"

var forbidden = regexp.MustCompile(`[<>:"/\\|?*\n\r\t]`)

// Sanitize makes text safe to use as a single path element.
// It is total and idempotent: Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(text string) string {
	s := forbidden.ReplaceAllString(text, "_")
	s = strings.Trim(s, " .")
	s = truncate(s, MaxLen)
	// Truncation can expose a trailing space or dot.
	s = strings.Trim(s, " .")
	if s == "" {
		return Fallback
	}
	return s
}

// Key returns the folder name of a note: Sanitize(title) + "_" + identity.
func Key(title, identity string) string {
	return Sanitize(title) + "_" + identity
}

// AlbumDir returns the folder name of an album.
func AlbumDir(name string) string {
	return Sanitize(name)
}

// Suffix is the folder-name suffix shared by every folder of identity.
func Suffix(identity string) string {
	return "_" + identity
}

// IdentityOf extracts the identity from a note folder name: the part after the
// last underscore. ok is false when the name has no underscore.
func IdentityOf(folder string) (string, bool) {
	i := strings.LastIndex(folder, "_")
	if i < 0 {
		return "", false
	}
	return folder[i+1:], true
}

func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
