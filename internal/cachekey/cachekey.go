// Package cachekey derives the identity under which a synthesized script is cached.
package cachekey

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/xkilldash9x/formscript/api/schemas"
)

// Prefix starts every derived key.
const Prefix = "dsl_"

// structuralMarkers select the lines of markup that describe form structure.
var structuralMarkers = []string{
	"<input", "<button", "<form", "<select",
	"type=", "id=", "name=", "class=",
}

const (
	// recordSep separates the structural digest from the field names.
	recordSep = 0x1f
	fieldSep  = ","
)

// Derive returns a deterministic key for a page and profile. Only the
// structural lines of the markup and the sorted names of the present profile
// fields take part, never the field values, so two users filling the same
// form share a key and no secret ends up inside it.
func Derive(html string, profile schemas.UserProfile) string {
	h := fnv.New64a()

	for _, line := range strings.Split(html, "\n") {
		if isStructural(line) {
			h.Write([]byte(line))
			h.Write([]byte{'\n'})
		}
	}
	h.Write([]byte{recordSep})
	h.Write([]byte(strings.Join(profile.FieldNames(), fieldSep)))

	return fmt.Sprintf("%s%016x", Prefix, h.Sum64())
}

// StructuralDigest returns the lines Derive hashes, for diagnostics.
func StructuralDigest(html string) string {
	var b strings.Builder
	for _, line := range strings.Split(html, "\n") {
		if isStructural(line) {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func isStructural(line string) bool {
	for _, m := range structuralMarkers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}
