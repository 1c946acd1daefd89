package progress

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// decodeWeekDocument converts raw document data into a WeekDocument. Fields with the wrong
// shape are treated as absent so the defaults apply instead of failing the whole snapshot.
func decodeWeekDocument(data map[string]any) WeekDocument {
	doc := WeekDocument{Progress: decodeProgress(data[FieldProgress])}
	doc.Structure = decodeStructure(data[FieldStructure])
	if raw, ok := data[FieldRewards].([]any); ok {
		rewards := make([]string, 0, len(raw))
		for _, r := range raw {
			s, _ := r.(string)
			rewards = append(rewards, s)
		}
		doc.Rewards = rewards
	}
	return doc
}

func decodeProgress(raw any) map[string]int {
	progress := make(map[string]int)
	m, ok := raw.(map[string]any)
	if !ok {
		return progress
	}
	for itemID, v := range m {
		if n, ok := numeric(v); ok {
			progress[itemID] = n
		}
	}
	return progress
}

// decodeStructure returns nil unless every category and item carries the required fields.
func decodeStructure(raw any) []Category {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}

	structure := make([]Category, 0, len(list))
	for _, rc := range list {
		m, ok := rc.(map[string]any)
		if !ok {
			return nil
		}
		cat := Category{
			ID:    stringField(m, "id"),
			Label: stringField(m, "label"),
			Color: stringField(m, "color"),
			Icon:  stringField(m, "icon"),
		}
		items, ok := m["items"].([]any)
		if cat.ID == "" || !ok {
			return nil
		}
		cat.Items = make([]Item, 0, len(items))
		for _, ri := range items {
			im, ok := ri.(map[string]any)
			if !ok {
				return nil
			}
			item := Item{ID: stringField(im, "id"), Name: stringField(im, "name"), Total: CoerceCount(im["total"])}
			if item.ID == "" {
				return nil
			}
			cat.Items = append(cat.Items, item)
		}
		structure = append(structure, cat)
	}

	if err := checkItemIDs(structure); err != nil {
		return nil
	}
	return structure
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func numeric(v any) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case int:
		return n, true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

// CoerceCount turns a user-supplied block total into a non-negative integer. Anything that is
// not a number, or is negative, becomes 0. Strings count by their leading integer, so "12.5"
// is 12 and "3칸" is 3.
func CoerceCount(v any) int {
	n, ok := numeric(v)
	if !ok {
		s, isString := v.(string)
		if !isString {
			return 0
		}
		if n, ok = leadingInt(s); !ok {
			return 0
		}
	}
	if n < 0 {
		return 0
	}
	return n
}

// leadingInt parses the optionally signed run of digits at the start of s, after leading
// white space. Whatever follows the digits is ignored.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
