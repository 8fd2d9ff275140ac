package extract

import (
	"fmt"
	"strings"

	"github.com/matzehuels/twill/pkg/jsonapi"
)

// TranslationsField is the attribute holding per-locale translation records.
const TranslationsField = "translations"

// Translated hoists localized fields to the top level of a resource.
//
// For each field it looks for, in order:
//
//  1. a locale map on the field itself: {"title": {"en": "Hi", "fr": "Salut"}}
//  2. a record in the translations attribute:
//     {"translations": [{"locale": "en", "title": "Hi"}]}
//
// The requested locale is tried first, then fallback. Fields with no match
// are left out of the patch.
func Translated(locale, fallback string, fields ...string) Rule {
	locales := []string{locale}
	if fallback != "" && fallback != locale {
		locales = append(locales, fallback)
	}
	return func(r jsonapi.Resource) (map[string]any, error) {
		patch := make(map[string]any, len(fields))
		records := translationRecords(r[TranslationsField])
		for _, field := range fields {
			if v, ok := fromLocaleMap(r[field], locales); ok {
				patch[field] = v
				continue
			}
			if v, ok := fromRecords(records, field, locales); ok {
				patch[field] = v
			}
		}
		return patch, nil
	}
}

func fromLocaleMap(v any, locales []string) (any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	for _, l := range locales {
		if tv, ok := m[l]; ok && tv != nil {
			return tv, true
		}
	}
	return nil, false
}

// translationRecords accepts a list of records or a map keyed by locale.
func translationRecords(v any) map[string]map[string]any {
	out := make(map[string]map[string]any)
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			rec, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if l, ok := rec["locale"].(string); ok {
				if _, seen := out[l]; !seen {
					out[l] = rec
				}
			}
		}
	case map[string]any:
		for l, item := range t {
			if rec, ok := item.(map[string]any); ok {
				out[l] = rec
			}
		}
	}
	return out
}

func fromRecords(records map[string]map[string]any, field string, locales []string) (any, bool) {
	for _, l := range locales {
		rec, ok := records[l]
		if !ok {
			continue
		}
		if v, ok := rec[field]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Join sets target to the non-empty values of fields joined by sep.
// Strings and numbers are used; other values are skipped. When no field
// contributes, target is left out of the patch.
func Join(target, sep string, fields ...string) Rule {
	return func(r jsonapi.Resource) (map[string]any, error) {
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			switch v := r[f].(type) {
			case string:
				if s := strings.TrimSpace(v); s != "" {
					parts = append(parts, s)
				}
			case float64, int, int64:
				parts = append(parts, fmt.Sprint(v))
			}
		}
		if len(parts) == 0 {
			return map[string]any{}, nil
		}
		return map[string]any{target: strings.Join(parts, sep)}, nil
	}
}

// Rename copies the value of from to the field to, when present.
func Rename(from, to string) Rule {
	return func(r jsonapi.Resource) (map[string]any, error) {
		v, ok := r[from]
		if !ok {
			return map[string]any{}, nil
		}
		return map[string]any{to: v}, nil
	}
}
