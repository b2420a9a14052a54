package model

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// LocaleSet is the set of base languages translation fields may use. The
// zero value accepts any well-formed language tag with a known base.
type LocaleSet struct {
	bases map[string]struct{}
}

// NewLocaleSet parses the supplied codes ("en", "es", "pt-BR") into a set of
// base languages.
func NewLocaleSet(codes ...string) (LocaleSet, error) {
	set := LocaleSet{}
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		tag, err := language.Parse(code)
		if err != nil {
			return LocaleSet{}, fmt.Errorf("model: locale %q: %w", code, err)
		}
		base, _ := tag.Base()
		if set.bases == nil {
			set.bases = make(map[string]struct{})
		}
		set.bases[base.String()] = struct{}{}
	}
	return set, nil
}

// MustLocaleSet is like NewLocaleSet but panics on malformed codes.
func MustLocaleSet(codes ...string) LocaleSet {
	set, err := NewLocaleSet(codes...)
	if err != nil {
		panic(err)
	}
	return set
}

// Empty reports whether no locale restriction is configured.
func (s LocaleSet) Empty() bool {
	return len(s.bases) == 0
}

// Supports reports whether code names a language accepted by the set.
func (s LocaleSet) Supports(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	tag, err := language.Parse(code)
	if err != nil {
		return false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return false
	}
	if s.Empty() {
		return true
	}
	_, ok := s.bases[base.String()]
	return ok
}

// Codes returns the configured base languages, sorted.
func (s LocaleSet) Codes() []string {
	out := make([]string, 0, len(s.bases))
	for code := range s.bases {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// SplitTranslationName splits "title_en" into ("title", "en"). The language is
// always the segment after the last underscore.
func SplitTranslationName(name string) (base, lang string, ok bool) {
	idx := strings.LastIndex(name, "_")
	if idx <= 0 || idx == len(name)-1 {
		return name, "", false
	}
	return name[:idx], strings.ToLower(name[idx+1:]), true
}
