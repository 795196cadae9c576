package archive

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/coursetools/canvasdl/internal/canvas"
)

// timestampLayout renders submission times as a fixed-width token whose
// lexical order matches chronological order.
const timestampLayout = "20060102_150405"

// noDateToken is used when a version carries no submission timestamp.
const noDateToken = "no_date"

// Sanitize makes a name safe for use as a filename component. Path
// separators, control characters, and other filesystem-hostile characters
// become underscores; whitespace runs collapse to a single underscore.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			if b.Len() > 0 {
				b.WriteByte('_')
			}
			space = false
		}
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|':
			b.WriteByte('_')
		case r < 0x20 || r == 0x7f:
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}

	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// BuildFilename derives the archive filename for one attachment of one
// submission version. The result is deterministic, and distinct original
// attachment filenames always produce distinct results. Two attachments
// with an identical original filename in the same version map to the same
// key; the later write wins.
//
// Layout: <student>_<id>[_v<attempt>]_<timestamp>_<attachment>. The
// version marker is only inserted when all versions are being archived
// and the submission has more than one attempt.
func BuildFilename(studentName string, studentID int64, version canvas.Version, attemptCount int, includeAll bool, attachmentName string) string {
	parts := []string{Sanitize(studentName), fmt.Sprint(studentID)}

	if includeAll && attemptCount > 1 {
		parts = append(parts, fmt.Sprintf("v%d", version.Attempt))
	}

	if version.SubmittedAt.IsZero() {
		parts = append(parts, noDateToken)
	} else {
		parts = append(parts, version.SubmittedAt.UTC().Format(timestampLayout))
	}

	parts = append(parts, Sanitize(attachmentName))

	return strings.Join(parts, "_")
}

// AssignmentDir returns the per-assignment directory component used when
// the archive is laid out one directory per assignment.
func AssignmentDir(name string, id int64) string {
	return fmt.Sprintf("%s_%d", Sanitize(name), id)
}

// ExcludedExt reports whether the attachment's extension is in the
// exclusion set. The comparison is case-insensitive; extensions in the
// set carry a leading dot.
func ExcludedExt(filename string, excluded map[string]bool) bool {
	if len(excluded) == 0 {
		return false
	}
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		return false
	}
	return excluded[ext]
}
