package doc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestUpdate(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		changes  []string
	}{
		{
			name:    "same",
			from:    `{"a": [1, 2], "b": {"c": null}}`,
			to:      `{"a": [1, 2], "b": {"c": null}}`,
			changes: []string{},
		},
		{
			name: "fields",
			from: `{"a": 1, "b": {"c": 1, "d": 2}, "e": 3}`,
			to:   `{"a": 1, "b": {"c": 1, "d": 5}, "f": 4}`,
			changes: []string{
				`removed parent="" [2, +1]`,
				`replaced parent="b" [1, +1]`,
				`added parent="" [2, +1]`,
			},
		},
		{
			name:    "edited element",
			from:    `[1, 2, 3]`,
			to:      `[1, 5, 3]`,
			changes: []string{`replaced parent="" [1, +1]`},
		},
		{
			name:    "inserted elements",
			from:    `[1, 2]`,
			to:      `[1, 8, 9, 2]`,
			changes: []string{`added parent="" [1, +2]`},
		},
		{
			name:    "removed elements",
			from:    `{"l": ["a", "b", "c", "d"]}`,
			to:      `{"l": ["a", "d"]}`,
			changes: []string{`removed parent="l" [1, +2]`},
		},
		{
			name:    "nested element",
			from:    `[{"n": 1}, {"n": 2}]`,
			to:      `[{"n": 1}, {"n": 3}]`,
			changes: []string{`replaced parent="[1]" [0, +1]`},
		},
		{
			name:    "type change",
			from:    `{"a": {"x": 1}}`,
			to:      `{"a": [1]}`,
			changes: []string{`replaced parent="" [0, +1]`},
		},
		{
			name:    "root type change",
			from:    `{"a": 1}`,
			to:      `[1]`,
			changes: []string{`reset`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst, src := mustParse(t, tt.from), mustParse(t, tt.to)
			changes := []Change{}
			if err := Update(dst, src, Collect(&changes)); err != nil {
				t.Fatal(err)
			}
			if !Equal(dst, src) {
				t.Errorf("got %s, want %s", jsonOf(t, dst), jsonOf(t, src))
			}
			if diff := cmp.Diff(tt.changes, changeStrings(changes)); diff != "" {
				t.Errorf("changes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUpdateMovedFields(t *testing.T) {
	dst := mustParse(t, `{"a": 1, "b": 2, "c": 3}`)
	src := mustParse(t, `{"c": 3, "a": 1, "b": 2}`)
	var changes []Change
	if err := Update(dst, src, Collect(&changes)); err != nil {
		t.Fatal(err)
	}
	if !Equal(dst, src) {
		t.Errorf("got %s", jsonOf(t, dst))
	}
	if len(changes) != 2 || changes[0].Kind != Removed || changes[1].Kind != Added {
		t.Errorf("changes %v", changes)
	}
}

func TestUpdateIdentity(t *testing.T) {
	dst := mustParse(t, `{"keep": {"x": [1]}, "edit": {"y": 1}}`)
	keep, edit := dst.Values[0], dst.Values[1]
	if err := Update(dst, mustParse(t, `{"keep": {"x": [1]}, "edit": {"y": 2}, "new": 0}`), nil); err != nil {
		t.Fatal(err)
	}
	if dst.Values[0] != keep || dst.Values[1] != edit {
		t.Errorf("unchanged containers were replaced")
	}

	root := mustParse(t, `{"a": 1}`)
	if err := Update(root, mustParse(t, `"s"`), nil); err != nil {
		t.Fatal(err)
	}
	if root.Type != StringType || root.String != "s" || len(root.Values) != 0 {
		t.Errorf("root not reset: %s", jsonOf(t, root))
	}
}

func TestDiff(t *testing.T) {
	from := mustParse(t, `{"a": [1, 2]}`)
	changes := Diff(from, mustParse(t, `{"a": [2]}`))
	if diff := cmp.Diff([]string{`removed parent="a" [0, +1]`}, changeStrings(changes)); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
	if got := jsonOf(t, from); got != `{"a":[1,2]}` {
		t.Errorf("Diff changed its input: %s", got)
	}
}
