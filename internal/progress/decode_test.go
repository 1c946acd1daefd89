package progress

import (
	"reflect"
	"testing"
)

func TestDecodeWeekDocument(t *testing.T) {
	data := map[string]any{
		"progress": map[string]any{"m1": int64(3), "m2": float64(2), "bad": "x"},
		"structure": []any{
			map[string]any{
				"id": "c", "label": "Math", "color": "#fff", "icon": "Calculator",
				"items": []any{
					map[string]any{"id": "m1", "name": "Drill", "total": int64(4)},
					map[string]any{"id": "m2", "name": "Review", "total": float64(-2)},
				},
			},
		},
		"rewards": []any{"one", "two", int64(3)},
	}

	got := decodeWeekDocument(data)
	want := WeekDocument{
		Progress: map[string]int{"m1": 3, "m2": 2},
		Structure: []Category{{
			ID: "c", Label: "Math", Color: "#fff", Icon: "Calculator",
			Items: []Item{{ID: "m1", Name: "Drill", Total: 4}, {ID: "m2", Name: "Review", Total: 0}},
		}},
		Rewards: []string{"one", "two", ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected document:\n got %+v\nwant %+v", got, want)
	}
}

func TestDecodeWeekDocument_MalformedStructureFallsBack(t *testing.T) {
	cases := map[string]any{
		"not a list":       "oops",
		"category no id":   []any{map[string]any{"items": []any{}}},
		"items not a list": []any{map[string]any{"id": "c", "items": "x"}},
		"item no id":       []any{map[string]any{"id": "c", "items": []any{map[string]any{"total": int64(1)}}}},
		"duplicate items": []any{
			map[string]any{"id": "c1", "items": []any{map[string]any{"id": "a"}}},
			map[string]any{"id": "c2", "items": []any{map[string]any{"id": "a"}}},
		},
	}
	for name, structure := range cases {
		doc := decodeWeekDocument(map[string]any{"structure": structure})
		if doc.Structure != nil {
			t.Fatalf("%s: expected structure to be treated as absent", name)
		}
	}
}

func TestDecodeWeekDocument_Empty(t *testing.T) {
	doc := decodeWeekDocument(map[string]any{})
	if doc.Progress == nil || len(doc.Progress) != 0 || doc.Structure != nil || doc.Rewards != nil {
		t.Fatalf("unexpected empty document: %+v", doc)
	}
}

func TestCoerceCount(t *testing.T) {
	cases := []struct {
		in   any
		want int
	}{
		{int64(7), 7},
		{float64(3), 3},
		{-2, 0},
		{"12", 12},
		{" 4 ", 4},
		{"abc", 0},
		{"12.5", 12},
		{"3칸", 3},
		{"+8", 8},
		{"-4 blocks", 0},
		{"", 0},
		{"-", 0},
		{nil, 0},
		{true, 0},
	}
	for _, tc := range cases {
		if got := CoerceCount(tc.in); got != tc.want {
			t.Fatalf("CoerceCount(%#v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
