package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "URL with query",
			input:    "http://bing.com/search?q=dotnet",
			expected: "http://bing.com/search?q=dotnet",
		},
		{
			name:     "URL without query",
			input:    "http://example.com",
			expected: "http://example.com",
		},
		{
			name:     "URL with port",
			input:    "http://localhost:8080/a.jpg",
			expected: "http://localhost:8080/a.jpg",
		},
		{
			name:     "URL with uppercase host",
			input:    "https://CDN.Example.com/Img/1.JPG",
			expected: "https://cdn.example.com/Img/1.JPG",
		},
		{
			name:     "URL with unicode domain",
			input:    "http://bücher.de/album/1.png",
			expected: "http://xn--bcher-kva.de/album/1.png",
		},
		{
			name:     "URL with IPv6 address",
			input:    "http://[2001:db8::1]:8080/img.gif",
			expected: "http://[2001:db8::1]:8080/img.gif",
		},
		{
			name:     "URL with unsorted query",
			input:    "https://example.com/i.jpg?b=2&a=1",
			expected: "https://example.com/i.jpg?a=1&b=2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.input)
			require.NoError(t, err)

			assert.Equal(t, tt.expected, CanonicalURL(u))
		})
	}
}

func TestCanonicalURLDoesNotMutate(t *testing.T) {
	u, err := url.Parse("https://faß.de/x?b=2&a=1")
	require.NoError(t, err)

	before := u.String()
	_ = CanonicalURL(u)

	assert.Equal(t, before, u.String())
}

func TestValidateURL(t *testing.T) {
	valid, _ := url.Parse("https://example.com/gallery/42")
	ftp, _ := url.Parse("ftp://example.com/file")
	relative, _ := url.Parse("/gallery/42")

	assert.NoError(t, ValidateURL(valid))
	assert.ErrorIs(t, ValidateURL(ftp), ErrInvalidURL)
	assert.ErrorIs(t, ValidateURL(relative), ErrInvalidURL)
	assert.ErrorIs(t, ValidateURL(nil), ErrInvalidURL)
}
