package session

import (
	"testing"

	"github.com/m-manu/ftp-sidekick/entity"
	"github.com/stretchr/testify/assert"
)

func TestModeFor(t *testing.T) {
	m := NewModeSelector(DefaultTextExtensions...)
	tests := []struct {
		filename string
		expected entity.TransferMode
	}{
		{"notes.txt", entity.Text},
		{"NOTES.TXT", entity.Text},
		{"config.Yml", entity.Text},
		{"archive.tar.gz", entity.Binary},
		{"photo.jpg", entity.Binary},
		{"README", entity.Text},
		{"trailing.", entity.Text},
		{"/var/www/index.php", entity.Text},
		{"dir.d/Makefile", entity.Text},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, m.ModeFor(tt.filename), "filename: %s", tt.filename)
	}
}

func TestResolvePerCallSiteDefault(t *testing.T) {
	m := NewModeSelector(DefaultTextExtensions...)
	assert.Equal(t, entity.Text, m.Resolve(entity.Auto, "README", entity.Text))
	assert.Equal(t, entity.Binary, m.Resolve(entity.Auto, "README", entity.Binary))
	assert.Equal(t, entity.Text, m.Resolve(entity.Auto, "a.csv", entity.Binary))
	assert.Equal(t, entity.Binary, m.Resolve(entity.Auto, "a.gz", entity.Text))
	// explicit modes are never second-guessed
	assert.Equal(t, entity.Binary, m.Resolve(entity.Binary, "notes.txt", entity.Text))
	assert.Equal(t, entity.Text, m.Resolve(entity.Text, "photo.jpg", entity.Binary))
}

func TestModeSelectorIsConfigurable(t *testing.T) {
	m := NewModeSelector("txt")
	assert.Equal(t, entity.Binary, m.ModeFor("page.html"))
	m.Add(".HTML", " md ")
	assert.Equal(t, entity.Text, m.ModeFor("page.html"))
	assert.Equal(t, []string{"html", "md", "txt"}, m.Extensions())
	m.Set("csv")
	assert.Equal(t, entity.Binary, m.ModeFor("notes.txt"))
	assert.Equal(t, []string{"csv"}, m.Extensions())
}
