package fs

import (
	"strings"
	"testing"
)

func TestSplitPath(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"", []string{}},
		{"/", []string{}},
		{"//", []string{}},
		{"a", []string{"a"}},
		{"/a", []string{"a"}},
		{"/a/b/c", []string{"a", "b", "c"}},
		{"a//b/", []string{"a", "b"}},
		{"/with space/c", []string{"with space", "c"}},
	}

	for _, tt := range tests {
		got := SplitPath(tt.path)
		if strings.Join(got, "\x00") != strings.Join(tt.want, "\x00") {
			t.Errorf("SplitPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestGetFileName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"", ""},
		{"/", ""},
		{"/a", "a"},
		{"/a/b", "b"},
		{"a/b/", "b"},
		{"//x//", "x"},
		{"/dir/file.txt", "file.txt"},
	}

	for _, tt := range tests {
		if got := GetFileName(tt.path); got != tt.want {
			t.Errorf("GetFileName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
