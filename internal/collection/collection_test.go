package collection

import (
	"strings"
	"testing"
	"time"
)

func TestClone_DeepCopiesTabs(t *testing.T) {
	fav := "https://a/favicon.ico"
	c := Collection{ID: "1", Name: "A", Tabs: []TabEntry{{URL: "https://a", Title: "A", FavIconURL: &fav}}}

	cp := c.Clone()
	cp.Tabs[0].Title = "changed"
	*cp.Tabs[0].FavIconURL = "changed"

	if c.Tabs[0].Title != "A" {
		t.Errorf("original title mutated: %q", c.Tabs[0].Title)
	}
	if *c.Tabs[0].FavIconURL != "https://a/favicon.ico" {
		t.Errorf("original favicon mutated: %q", *c.Tabs[0].FavIconURL)
	}
}

func TestCloneList_Nil(t *testing.T) {
	if CloneList(nil) != nil {
		t.Error("CloneList(nil) should be nil")
	}
}

func TestIndexOf(t *testing.T) {
	list := []Collection{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	if got := IndexOf(list, "b"); got != 1 {
		t.Errorf("IndexOf(b) = %d, want 1", got)
	}
	if got := IndexOf(list, "z"); got != -1 {
		t.Errorf("IndexOf(z) = %d, want -1", got)
	}
}

func TestHasURL(t *testing.T) {
	c := Collection{Tabs: []TabEntry{{URL: "https://a"}, {URL: "https://b"}}}
	if !c.HasURL("https://b") {
		t.Error("HasURL(b) = false")
	}
	if c.HasURL("https://c") {
		t.Error("HasURL(c) = true")
	}
}

func TestDisplayTitle(t *testing.T) {
	cases := []struct {
		title, url, want string
	}{
		{"Docs", "https://go.dev/doc", "Docs"},
		{"  ", "https://go.dev/doc", "go.dev"},
		{"", "not a url", "Untitled"},
		{"", "", "Untitled"},
	}
	for _, tc := range cases {
		if got := DisplayTitle(tc.title, tc.url); got != tc.want {
			t.Errorf("DisplayTitle(%q, %q) = %q, want %q", tc.title, tc.url, got, tc.want)
		}
	}
}

func TestNormalizeTerm(t *testing.T) {
	if got := NormalizeTerm("  GoLang  "); got != "golang" {
		t.Errorf("NormalizeTerm() = %q, want %q", got, "golang")
	}
}

func TestMarkdown(t *testing.T) {
	list := []Collection{
		{ID: "1", Name: "Reading [list]", Tabs: []TabEntry{{URL: "https://go.dev", Title: "Go"}}},
		{ID: "2", Name: "Empty", Tabs: []TabEntry{}},
	}
	md := Markdown(list, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))

	for _, want := range []string{
		"## Reading \\[list\\]",
		"- [Go](<https://go.dev>)",
		"## Empty",
		"_No tabs_",
		"2024-01-02T03:04:05Z",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Index(md, "Reading") > strings.Index(md, "Empty") {
		t.Error("collections out of order")
	}
}
