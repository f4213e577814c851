// internal/assets/image.go
package assets

import (
	"net/url"
	"strconv"
	"strings"
)

// Default output dimensions for vertical short-form video
const (
	DefaultWidth  = 1080
	DefaultHeight = 1920
)

// ImageTemplate turns an image prompt into a text-to-image URL.
// Nothing is fetched: the URL is resolved later by whatever displays it.
type ImageTemplate struct {
	BaseURL string
	Width   int
	Height  int
	NoLogo  bool
}

// NewImageTemplate returns the default template for baseURL
func NewImageTemplate(baseURL string) ImageTemplate {
	if baseURL == "" {
		baseURL = "https://image.pollinations.ai"
	}
	return ImageTemplate{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Width:   DefaultWidth,
		Height:  DefaultHeight,
		NoLogo:  true,
	}
}

// URL builds the image reference for prompt
func (t ImageTemplate) URL(prompt string) string {
	var b strings.Builder
	b.WriteString(t.BaseURL)
	b.WriteString("/prompt/")
	b.WriteString(encodeURIComponent(prompt))
	b.WriteString("?width=")
	b.WriteString(strconv.Itoa(t.Width))
	b.WriteString("&height=")
	b.WriteString(strconv.Itoa(t.Height))
	if t.NoLogo {
		b.WriteString("&nologo=true")
	}
	return b.String()
}

// componentUnescaper restores the characters encodeURIComponent leaves as is
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeURIComponent percent-encodes s for use as a single path segment,
// matching the JavaScript function of the same name: spaces become %20 and
// !*'() stay literal.
func encodeURIComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
