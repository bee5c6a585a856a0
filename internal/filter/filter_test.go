package filter

import (
	"testing"

	"github.com/hpungsan/tabshelf/internal/collection"
)

func sample() []collection.Collection {
	return []collection.Collection{
		{ID: "1", Name: "Work", Tabs: []collection.TabEntry{{URL: "https://github.com/org/repo", Title: "Repo"}}},
		{ID: "2", Name: "Recipes", Tabs: []collection.TabEntry{{URL: "https://food.example/pasta", Title: "Pasta Carbonara"}}},
		{ID: "3", Name: "Go reading", Tabs: []collection.TabEntry{}},
		{ID: "4", Name: "Misc", Tabs: []collection.TabEntry{{URL: "https://go.dev/blog", Title: ""}}},
	}
}

func ids(list []collection.Collection) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.ID
	}
	return out
}

func TestCollections_EmptyTermIsIdentity(t *testing.T) {
	list := sample()
	for _, term := range []string{"", "   "} {
		got := Collections(list, term)
		if len(got) != len(list) || &got[0] != &list[0] {
			t.Errorf("Collections(%q) should return the input slice unchanged", term)
		}
	}
}

func TestCollections_MatchesNameTitleURL(t *testing.T) {
	cases := []struct {
		term string
		want []string
	}{
		{"work", []string{"1"}},
		{"CARBONARA", []string{"2"}},
		{"github.com", []string{"1"}},
		{"go", []string{"3", "4"}},
		{"  pasta ", []string{"2"}},
		{"nothing-matches", []string{}},
	}
	for _, tc := range cases {
		got := ids(Collections(sample(), tc.term))
		if len(got) != len(tc.want) {
			t.Errorf("Collections(%q) = %v, want %v", tc.term, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("Collections(%q) = %v, want %v", tc.term, got, tc.want)
				break
			}
		}
	}
}

func TestCollections_SubsetInOriginalOrder(t *testing.T) {
	list := sample()
	got := Collections(list, "e")

	pos := -1
	for _, c := range got {
		idx := collection.IndexOf(list, c.ID)
		if idx < 0 {
			t.Fatalf("result %q not in input", c.ID)
		}
		if idx <= pos {
			t.Fatalf("result order %v does not follow input order", ids(got))
		}
		pos = idx
	}
}

type fakeTab struct{ title, url string }

func (f fakeTab) FilterTitle() string { return f.title }
func (f fakeTab) FilterURL() string   { return f.url }

func TestOpenTabs_Mask(t *testing.T) {
	tabs := []fakeTab{
		{"Inbox", "https://mail.example"},
		{"Docs", "https://go.dev/doc"},
		{"", "https://GO.dev/play"},
	}

	mask := OpenTabs(tabs, "go.dev")
	want := []bool{false, true, true}
	for i := range want {
		if mask[i] != want[i] {
			t.Errorf("mask[%d] = %v, want %v", i, mask[i], want[i])
		}
	}
	if CountVisible(mask) != 2 {
		t.Errorf("CountVisible() = %d, want 2", CountVisible(mask))
	}

	all := OpenTabs(tabs, "")
	if CountVisible(all) != len(tabs) {
		t.Errorf("empty term should show all tabs, got %v", all)
	}
}
