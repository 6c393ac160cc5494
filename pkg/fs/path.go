package fs

import "strings"

// SplitPath breaks a slash-delimited path into its name segments. Empty
// segments are dropped, so leading, trailing, and doubled slashes are all
// tolerated: "/a//b/" and "a/b" name the same walk. The root path yields no
// segments.
func SplitPath(path string) []string {
	parts := strings.Split(path, "/")

	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}

	return segments
}

// GetFileName returns the final segment of a path without requiring the
// path to exist or be accessible. The root path yields "".
func GetFileName(path string) string {
	segments := SplitPath(path)
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}
