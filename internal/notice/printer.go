package notice

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the locale every catalog key must exist in.
const BaseLocale = "en-US"

//go:embed locales/*.yaml
var embeddedLocales embed.FS

// argOrder fixes the positional order of each kind's params in catalog strings.
var argOrder = map[Kind][]string{
	OutOfAmmo:             {"weapon"},
	LastAmmoUsed:          {"projectile", "weapon"},
	ManeuverMisconfigured: {"weapon", "maneuver"},
	FumbleTableMissing:    {"table"},
	RuneMisconfigured:     {"rune", "opposing"},
	EffectMisconfigured:   {"effect", "key", "origin"},
	EffectOrphaned:        {"effect", "key"},
}

type localeFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Printer renders notices as localized single-line text.
type Printer struct {
	catalog *catalog.Builder
	tags    []language.Tag
	matcher language.Matcher
}

// NewPrinter loads the embedded locale catalogs.
func NewPrinter() (*Printer, error) {
	return NewPrinterFS(embeddedLocales)
}

// NewPrinterFS loads locales/*.yaml from fsys.
//
// Postcondition: returns an error if the base locale is absent or lacks a
// message for any known kind.
func NewPrinterFS(fsys fs.FS) (*Printer, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no locale catalogs found")
	}
	base := language.MustParse(BaseLocale)
	locales := make(map[language.Tag]map[string]string, len(paths))
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		var f localeFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
		tag, err := language.Parse(strings.TrimSpace(f.Locale))
		if err != nil {
			return nil, fmt.Errorf("catalog %s: parse locale %q: %w", path, f.Locale, err)
		}
		if _, dup := locales[tag]; dup {
			return nil, fmt.Errorf("catalog %s: locale %q defined twice", path, tag)
		}
		locales[tag] = f.Messages
	}
	baseMessages, ok := locales[base]
	if !ok {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}
	for kind := range argOrder {
		if _, ok := baseMessages[string(kind)]; !ok {
			return nil, fmt.Errorf("base locale %s has no message for %q", BaseLocale, kind)
		}
	}

	// Base locale first so that it wins when nothing matches.
	tags := []language.Tag{base}
	for tag := range locales {
		if tag != base {
			tags = append(tags, tag)
		}
	}
	sort.Slice(tags[1:], func(i, j int) bool { return tags[1+i].String() < tags[1+j].String() })

	b := catalog.NewBuilder(catalog.Fallback(base))
	for _, tag := range tags {
		msgs := locales[tag]
		for key, msg := range baseMessages {
			if local, ok := msgs[key]; ok {
				msg = local
			}
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("locale %s: key %q: %w", tag, key, err)
			}
		}
	}
	return &Printer{catalog: b, tags: tags, matcher: language.NewMatcher(tags)}, nil
}

// Locales returns the available locales, base first.
func (p *Printer) Locales() []string {
	out := make([]string, len(p.tags))
	for i, t := range p.tags {
		out[i] = t.String()
	}
	return out
}

// Render formats n for the best available match of locale.
// Unknown kinds render as the kind followed by their sorted params.
func (p *Printer) Render(locale string, n Notice) string {
	order, ok := argOrder[n.Kind]
	if !ok {
		parts := []string{string(n.Kind)}
		for _, k := range n.Keys() {
			parts = append(parts, k+"="+n.Params[k])
		}
		return strings.Join(parts, " ")
	}
	_, idx, _ := p.matcher.Match(language.Make(locale))
	mp := message.NewPrinter(p.tags[idx], message.Catalog(p.catalog))
	args := make([]any, len(order))
	for i, k := range order {
		args[i] = n.Params[k]
	}
	return mp.Sprintf(string(n.Kind), args...)
}
