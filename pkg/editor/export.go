package editor

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/coursetide/coursetide/pkg/domain"
)

func marshalCourse(c *domain.Course) ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// ExportFilename derives a download filename from a course title, e.g.
// "Intro to Go" -> "intro-to-go.md". Falls back to "course" for titles with
// no usable characters.
func ExportFilename(title, ext string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "course"
	}
	return slug + "." + ext
}
