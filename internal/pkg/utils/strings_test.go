package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeStrings(t *testing.T) {
	input := []string{"b", "a", "b", "c", "a"}

	assert.Equal(t, []string{"b", "a", "c"}, DedupeStrings(input))
	assert.Empty(t, DedupeStrings(nil))
}

func TestTrimExtension(t *testing.T) {
	assert.Equal(t, "photo", TrimExtension("photo.jpg"))
	assert.Equal(t, "archive.tar", TrimExtension("archive.tar.gz"))
	assert.Equal(t, "noext", TrimExtension("noext"))
	assert.Equal(t, ".hidden", TrimExtension(".hidden"))
}
