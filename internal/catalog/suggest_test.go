package catalog

import "testing"

func TestSuggestExactMatch(t *testing.T) {
	cases := map[string]string{
		"Milk":         "dairy",
		"milk":         "dairy",
		"  Bread  ":    "bakery",
		"toilet paper": "house",
		"Coffee":       "drinks",
		"chicken":      "meat",
	}
	for name, want := range cases {
		if got := Suggest(name); got != want {
			t.Errorf("Suggest(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestSuggestSubstringMatch(t *testing.T) {
	cases := map[string]string{
		"cheddar cheese":    "dairy",
		"frozen dumplings":  "frozen",
		"whole wheat bread": "bakery",
		"apple juice":       "drinks",
	}
	for name, want := range cases {
		if got := Suggest(name); got != want {
			t.Errorf("Suggest(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestSuggestUnknown(t *testing.T) {
	if got := Suggest("flux capacitor"); got != "" {
		t.Errorf("Suggest(unknown) = %q, want empty", got)
	}
	if got := Suggest(""); got != "" {
		t.Errorf("Suggest(empty) = %q, want empty", got)
	}
}

func TestSuggestTagLength(t *testing.T) {
	// Suggested tags must fit the eight-character tag text limit.
	for _, tag := range exactMatch {
		if len(tag) > 8 {
			t.Errorf("tag %q exceeds 8 characters", tag)
		}
	}
	for _, entry := range substringMatches {
		if len(entry.tag) > 8 {
			t.Errorf("tag %q exceeds 8 characters", entry.tag)
		}
	}
}
