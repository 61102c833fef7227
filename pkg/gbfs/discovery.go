package gbfs

import (
	"errors"
	"slices"
	"time"

	"github.com/tidwall/gjson"
)

// Language is one language section of a discovery document
type Language struct {
	Code  string
	Feeds []Feed
}

// Document is a parsed auto-discovery document. Languages keep the order of
// the keys in the upstream data object.
type Document struct {
	LastUpdated time.Time
	TTL         int
	Version     string
	Languages   []Language
}

// LanguageCodes returns the language codes in document order
func (d *Document) LanguageCodes() []string {
	codes := make([]string, 0, len(d.Languages))
	for _, lang := range d.Languages {
		codes = append(codes, lang.Code)
	}
	return codes
}

// FeedsFor returns a copy of the feed list of language code
func (d *Document) FeedsFor(code string) ([]Feed, bool) {
	for _, lang := range d.Languages {
		if lang.Code == code {
			return slices.Clone(lang.Feeds), true
		}
	}
	return nil, false
}

// ParseDocument parses an auto-discovery document
func ParseDocument(body []byte) (*Document, error) {
	if err := validateShape(discoverySchema, body); err != nil {
		return nil, err
	}

	root := gjson.ParseBytes(body)
	doc := &Document{
		LastUpdated: timestampOf(root.Get("last_updated")),
		TTL:         int(root.Get("ttl").Int()),
		Version:     root.Get("version").String(),
	}

	// gjson walks object keys in source order, which decides the default language.
	seen := map[string]bool{}
	root.Get("data").ForEach(func(key, value gjson.Result) bool {
		code := key.String()
		if seen[code] {
			return true
		}
		seen[code] = true

		lang := Language{Code: code, Feeds: []Feed{}}
		value.Get("feeds").ForEach(func(_, f gjson.Result) bool {
			lang.Feeds = append(lang.Feeds, Feed{
				Name: f.Get("name").String(),
				URL:  f.Get("url").String(),
			})
			return true
		})
		doc.Languages = append(doc.Languages, lang)
		return true
	})

	if len(doc.Languages) == 0 {
		return nil, errors.New("discovery document lists no languages")
	}
	return doc, nil
}

func timestampOf(r gjson.Result) time.Time {
	switch r.Type {
	case gjson.Number:
		return time.Unix(r.Int(), 0).UTC()
	case gjson.String:
		if t, err := time.Parse(time.RFC3339, r.String()); err == nil {
			return t
		}
	}
	return time.Time{}
}

// payloadTTL reads the ttl a feed payload declares, in seconds
func payloadTTL(body []byte) int {
	return int(gjson.GetBytes(body, "ttl").Int())
}
