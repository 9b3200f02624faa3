package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractImageURL(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("https://example.com/cat.jpg", ExtractImageURL("look at https://example.com/cat.jpg please"))
	assert.Equal("https://i.example.com/a.gif", ExtractImageURL("last word https://i.example.com/a.gif"))
	assert.Equal("", ExtractImageURL("no links here"))
	assert.Equal("", ExtractImageURL("plain link https://example.com/page and text"))
	// first image wins
	assert.Equal("https://a.example/1.png", ExtractImageURL("https://a.example/1.png then https://b.example/2.png"))
	// fallback: extension buried mid-URL still counts
	assert.Equal("https://example.com/cat.jpg?width=100", ExtractImageURL("see https://example.com/cat.jpg?width=100 here"))
}

func TestIsImageURL(t *testing.T) {
	assert := assert.New(t)

	assert.True(IsImageURL("https://example.com/cat.jpg"))
	assert.True(IsImageURL("https://example.com/CAT.PNG"))
	assert.True(IsImageURL("https://example.com/pic.jpeg"))
	assert.False(IsImageURL("https://example.com/gallery"))
	assert.False(IsImageURL("https://example.com/cat.jpg?width=100"))
}
