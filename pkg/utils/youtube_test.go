package utils

import "testing"

func TestExtractYouTubeID(t *testing.T) {
	cases := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtube.com/watch?v=abc123&t=42", "abc123", false},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ?t=10", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/embed/xyz789", "xyz789", false},
		{"https://www.youtube.com/v/xyz789", "xyz789", false},
		{"https://example.com/watch?v=nope", "", true},
		{"https://youtube.com/watch", "", true},
		{"://bad-url", "", true},
	}

	for _, c := range cases {
		got, err := ExtractYouTubeID(c.url)
		if c.wantErr {
			if err == nil {
				t.Errorf("ExtractYouTubeID(%q): expected error, got %q", c.url, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ExtractYouTubeID(%q) failed: %v", c.url, err)
			continue
		}
		if got != c.want {
			t.Errorf("ExtractYouTubeID(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}

func TestIsYouTubeURL(t *testing.T) {
	cases := map[string]bool{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ": true,
		"https://youtu.be/dQw4w9WgXcQ":                true,
		"https://music.youtube.com/watch?v=abc":       true,
		"https://vimeo.com/12345":                     false,
		"not a url at all":                            false,
	}
	for url, want := range cases {
		if got := IsYouTubeURL(url); got != want {
			t.Errorf("IsYouTubeURL(%q) = %v, want %v", url, got, want)
		}
	}
}
