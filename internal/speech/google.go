// internal/speech/google.go
package speech

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	apperrors "github.com/Corphon/CreativeStudio/internal/errors"
)

// MaxTextLength is the longest text the translate endpoint accepts in one request
const MaxTextLength = 200

// Provider turns narration text into a playable audio reference
type Provider interface {
	Name() string
	AudioURL(ctx context.Context, text string) (string, error)
}

// GoogleTranslate builds translate_tts URLs. The URL is resolved by whoever
// plays it; no request is made here.
type GoogleTranslate struct {
	Host string
	Lang string
	Slow bool
}

// NewGoogleTranslate fills in defaults for empty settings
func NewGoogleTranslate(host, lang string, slow bool) *GoogleTranslate {
	if host == "" {
		host = "https://translate.google.com"
	}
	if lang == "" {
		lang = "pt"
	}
	return &GoogleTranslate{Host: strings.TrimRight(host, "/"), Lang: lang, Slow: slow}
}

// Name identifies the provider
func (g *GoogleTranslate) Name() string {
	return "google-translate"
}

// AudioURL returns the speech URL for text
func (g *GoogleTranslate) AudioURL(_ context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperrors.NewInputValidationError("text is required", nil)
	}
	length := utf8.RuneCountInString(text)
	if length > MaxTextLength {
		return "", apperrors.NewInputValidationError(
			fmt.Sprintf("text is %d characters, limit is %d", length, MaxTextLength), nil)
	}

	speed := "1"
	if g.Slow {
		speed = "0.24"
	}

	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("q", text)
	q.Set("tl", g.Lang)
	q.Set("total", "1")
	q.Set("idx", "0")
	q.Set("textlen", strconv.Itoa(length))
	q.Set("client", "tw-ob")
	q.Set("prev", "input")
	q.Set("ttsspeed", speed)

	return g.Host + "/translate_tts?" + q.Encode(), nil
}
