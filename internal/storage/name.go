package storage

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
)

const maxExtLength = 16

// NewName returns a storage name for an upload whose client-side name was original.
// Only the extension of original survives, and only when it is plain alphanumeric.
func NewName(original string) string {
	return newName(time.Now(), rand.Intn(1e9), original)
}

func newName(now time.Time, n int, original string) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + strconv.Itoa(n) + SafeExt(original)
}

// SafeExt extracts the extension of the last path element of name.
// Anything other than a dot followed by up to 16 ASCII letters or digits yields "".
func SafeExt(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	dot := strings.LastIndexByte(name, '.')
	if dot < 0 {
		return ""
	}

	ext := name[dot+1:]
	if ext == "" || len(ext) > maxExtLength {
		return ""
	}
	for _, r := range ext {
		if !isAlnum(r) {
			return ""
		}
	}

	return "." + ext
}

// ValidName reports whether name can be a storage name: a single path element
// with no traversal.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, "/\\\x00") || strings.Contains(name, "..") {
		return false
	}
	return true
}

func isAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}
