package utils

import (
	"mime/multipart"
	"net/textproto"
	"testing"
)

func TestIsValidID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1", true},
		{"42", true},
		{" 7 ", true},
		{"0", false},
		{"-1", false},
		{"abc", false},
		{"1.5", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidID(tt.in); got != tt.want {
			t.Errorf("IsValidID(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"user@example.com", true},
		{"first.last+tag@sub.example.co", true},
		{"", false},
		{"no-at-sign", false},
		{"missing@tld", false},
		{"@example.com", false},
		{"user@.com", false},
	}
	for _, tt := range tests {
		if got := IsValidEmail(tt.in); got != tt.want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://example.com", true},
		{"http://example.com/path?q=1", true},
		{"", false},
		{"ftp://example.com", false},
		{"example.com", false},
		{"https://", false},
		{"not a url", false},
	}
	for _, tt := range tests {
		if got := IsValidURL(tt.in); got != tt.want {
			t.Errorf("IsValidURL(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsValidDate(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2026-08-31", true},
		{"2026-02-29", false}, // not a leap year
		{"2024-02-29", true},
		{"", false},
		{"31-08-2026", false},
		{"2026-13-01", false},
		{"yesterday", false},
	}
	for _, tt := range tests {
		if got := IsValidDate(tt.in); got != tt.want {
			t.Errorf("IsValidDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsStrongPassword(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Abc123", true},
		{"Passw0rd", true},
		{"abc123", false},  // no upper
		{"ABC123", false},  // no lower
		{"Abcdef", false},  // no digit
		{"Ab1", false},     // too short
		{"", false},
	}
	for _, tt := range tests {
		if got := IsStrongPassword(tt.in); got != tt.want {
			t.Errorf("IsStrongPassword(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestResolvePagination(t *testing.T) {
	tests := []struct {
		name      string
		page      string
		limit     string
		wantPage  int
		wantLimit int
		wantErr   bool
	}{
		{"defaults when absent", "", "", 1, 10, false},
		{"numeric strings", "3", "25", 3, 25, false},
		{"upper bound", "1", "100", 1, 100, false},
		{"page zero", "0", "10", 0, 0, true},
		{"limit zero", "1", "0", 0, 0, true},
		{"limit above max", "1", "101", 0, 0, true},
		{"negative page", "-2", "10", 0, 0, true},
		{"non-numeric page", "abc", "10", 0, 0, true},
		{"non-numeric limit", "1", "ten", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit, err := ResolvePagination(tt.page, tt.limit)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if page != tt.wantPage || limit != tt.wantLimit {
				t.Errorf("got (%d, %d), want (%d, %d)", page, limit, tt.wantPage, tt.wantLimit)
			}
		})
	}
}

// Resolving already-normalized values returns them unchanged.
func TestResolvePaginationIdempotent(t *testing.T) {
	page, limit, err := ResolvePagination("4", "20")
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	page2, limit2, err := ResolvePagination("4", "20")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if page != page2 || limit != limit2 {
		t.Errorf("resolution not stable: (%d,%d) vs (%d,%d)", page, limit, page2, limit2)
	}
}

func TestNormalizeSearchQuery(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"trims whitespace", "  golang  ", "golang", false},
		{"minimum length", "go", "go", false},
		{"empty", "", "", true},
		{"only spaces", "   ", "", true},
		{"single char", "g", "", true},
		{"too long", string(make([]byte, 101)), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeSearchQuery(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func uploadHeader(contentType string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{
		Filename: "photo.jpg",
		Size:     size,
		Header:   textproto.MIMEHeader{"Content-Type": []string{contentType}},
	}
}

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name    string
		header  *multipart.FileHeader
		wantErr bool
	}{
		{"nil file", nil, true},
		{"valid jpeg", uploadHeader("image/jpeg", 1024), false},
		{"valid png", uploadHeader("image/png", 1024), false},
		{"valid gif", uploadHeader("image/gif", 1024), false},
		{"disallowed type", uploadHeader("application/pdf", 1024), true},
		{"at the limit", uploadHeader("image/jpeg", 5*1024*1024), false},
		{"over the limit", uploadHeader("image/jpeg", 5*1024*1024+1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.header, nil, 0)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateUploadCustomAllowList(t *testing.T) {
	err := ValidateUpload(uploadHeader("application/pdf", 1024), []string{"application/pdf"}, 2048)
	if err != nil {
		t.Errorf("pdf with custom allow-list rejected: %v", err)
	}
	if err := ValidateUpload(uploadHeader("application/pdf", 4096), []string{"application/pdf"}, 2048); err == nil {
		t.Error("oversized file passed the custom limit")
	}
}
