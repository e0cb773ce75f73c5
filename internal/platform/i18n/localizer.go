package i18n

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Localizer negotiates locales and renders bundle messages.
type Localizer struct {
	bundle    *Bundle
	supported []string
	tags      []language.Tag
	matcher   language.Matcher
	builder   *catalog.Builder
	templates sync.Map // locale + "\x00" + key -> *template.Template
}

// NewLocalizer registers every message of b with an x/text catalog. Keys
// missing from a locale fall back to BaseLocale.
func NewLocalizer(b *Bundle) (*Localizer, error) {
	base := language.MustParse(BaseLocale)
	l := &Localizer{
		bundle:  b,
		builder: catalog.NewBuilder(catalog.Fallback(base)),
	}
	for _, locale := range b.Locales() {
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", locale, err)
		}
		for key, text := range b.Messages(locale) {
			// The catalog stores printf formats; templates never carry verbs.
			if err := l.builder.SetString(tag, key, strings.ReplaceAll(text, "%", "%%")); err != nil {
				return nil, fmt.Errorf("register %s %s: %w", locale, key, err)
			}
		}
		l.supported = append(l.supported, locale)
		l.tags = append(l.tags, tag)
	}
	l.matcher = language.NewMatcher(l.tags)
	return l, nil
}

var defaultLocalizer = sync.OnceValues(func() (*Localizer, error) {
	b, err := LoadEmbedded()
	if err != nil {
		return nil, err
	}
	return NewLocalizer(b)
})

// Default returns the localizer over the embedded catalogs. It panics if
// they fail to load, which tests catch.
func Default() *Localizer {
	l, err := defaultLocalizer()
	if err != nil {
		panic(err)
	}
	return l
}

// Supported returns the locales in preference order, BaseLocale first.
func (l *Localizer) Supported() []string {
	return append([]string(nil), l.supported...)
}

// Match picks the supported locale closest to an Accept-Language value or a
// bare tag. Unparseable or unmatched input selects BaseLocale.
func (l *Localizer) Match(accept string) string {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return BaseLocale
	}
	_, idx, conf := l.matcher.Match(tags...)
	if conf == language.No {
		return BaseLocale
	}
	return l.supported[idx]
}

// Text returns the raw message for key in locale, falling back to
// BaseLocale and then to the key itself.
func (l *Localizer) Text(locale, key string) string {
	tag, err := language.Parse(l.Match(locale))
	if err != nil {
		tag = language.MustParse(BaseLocale)
	}
	return message.NewPrinter(tag, message.Catalog(l.builder)).Sprintf(key)
}

// Format renders key for locale with data as the template input. A template
// that fails to parse or execute renders as its raw text.
func (l *Localizer) Format(locale, key string, data map[string]string) string {
	locale = l.Match(locale)
	text := l.Text(locale, key)
	if !strings.Contains(text, "{{") {
		return text
	}
	cacheKey := locale + "\x00" + key
	cached, ok := l.templates.Load(cacheKey)
	if !ok {
		tmpl, err := template.New(key).Option("missingkey=zero").Parse(text)
		if err != nil {
			return text
		}
		cached, _ = l.templates.LoadOrStore(cacheKey, tmpl)
	}
	if data == nil {
		data = map[string]string{}
	}
	var buf bytes.Buffer
	if err := cached.(*template.Template).Execute(&buf, data); err != nil {
		return text
	}
	return buf.String()
}
