package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://example.com/a.jpg"))
	assert.NoError(t, ValidateURL("http://example.com/a.jpg"))

	// Opaque file tokens pass through.
	assert.NoError(t, ValidateURL("AgACAgIAAxkBAAIB"))

	assert.Error(t, ValidateURL(""))
	assert.Error(t, ValidateURL("ftp://example.com/a.jpg"))
	assert.Error(t, ValidateURL("https:///no-host"))
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com"))
	assert.False(t, IsURL("AgACAgIAAxkBAAIB"))
}
