package storage

import "testing"

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		fileURL string
		want    string
	}{
		{"absolute passthrough", "http://localhost:8080", "https://res.cloudinary.com/demo/x.pdf", "https://res.cloudinary.com/demo/x.pdf"},
		{"relative joined", "http://localhost:8080", "uploads/x.pdf", "http://localhost:8080/uploads/x.pdf"},
		{"slashes collapsed", "http://localhost:8080/", "/uploads/x.pdf", "http://localhost:8080/uploads/x.pdf"},
		{"empty stays empty", "http://localhost:8080", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveURL(tt.base, tt.fileURL); got != tt.want {
				t.Errorf("ResolveURL(%q, %q) = %q, want %q", tt.base, tt.fileURL, got, tt.want)
			}
		})
	}
}

func TestExtractPublicID(t *testing.T) {
	s := &cloudinaryStorage{}
	tests := []struct {
		url  string
		want string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v123456789/achievements/sertifikat.pdf", "achievements/sertifikat"},
		{"https://res.cloudinary.com/demo/image/upload/achievements/foto.webp", "achievements/foto"},
		{"https://example.com/no/upload/segment.pdf", "segment"},
		{"not a url at all", ""},
	}

	for _, tt := range tests {
		if got := s.extractPublicID(tt.url); got != tt.want {
			t.Errorf("extractPublicID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
