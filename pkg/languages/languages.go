// Package languages holds the catalog of practice languages and resolves user
// input (English names or BCP 47 tags) onto catalog entries.
package languages

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is a practice language. Name is the value sent to the gateway.
type Language struct {
	Name string
	Tag  language.Tag
}

// Catalog is the default set of practice languages, in display order.
var Catalog = []Language{
	{Name: "Hindi", Tag: language.Hindi},
	{Name: "Spanish", Tag: language.Spanish},
	{Name: "French", Tag: language.French},
	{Name: "German", Tag: language.German},
	{Name: "Japanese", Tag: language.Japanese},
	{Name: "Portuguese", Tag: language.Portuguese},
	{Name: "Arabic", Tag: language.Arabic},
	{Name: "Chinese", Tag: language.Chinese},
}

var titleCaser = cases.Title(language.English)

// Names returns the catalog names in display order.
func Names() []string {
	names := make([]string, 0, len(Catalog))
	for _, l := range Catalog {
		names = append(names, l.Name)
	}
	return names
}

// Resolve maps input onto a language name. Catalog names match
// case-insensitively, tags such as "es" or "pt-BR" resolve to their base
// language, and 1-based catalog indexes are accepted. Other names are
// title-cased and passed through.
func Resolve(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("language must not be empty")
	}

	if idx, ok := parseIndex(input); ok {
		if idx < 1 || idx > len(Catalog) {
			return "", fmt.Errorf("language index %d out of range (1-%d)", idx, len(Catalog))
		}
		return Catalog[idx-1].Name, nil
	}

	for _, l := range Catalog {
		if strings.EqualFold(l.Name, input) {
			return l.Name, nil
		}
	}

	if tag, err := language.Parse(input); err == nil && tag != language.Und {
		base, _ := tag.Base()
		for _, l := range Catalog {
			if lb, _ := l.Tag.Base(); lb == base {
				return l.Name, nil
			}
		}
		if name := display.English.Languages().Name(language.Make(base.String())); name != "" {
			return name, nil
		}
	}

	return titleCaser.String(strings.ToLower(input)), nil
}

func parseIndex(s string) (int, bool) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
		if n > 1000 {
			return n, true
		}
	}
	return n, true
}
