package collection

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"
)

// Collection is a named, ordered set of saved tabs.
type Collection struct {
	// ID is unique among collections and never changes after creation
	ID string `json:"id"`

	// Name is the display name; never empty after a rename
	Name string `json:"name"`

	// CreatedAt is serialized as ISO-8601. Zero when the stored value is
	// missing or unreadable.
	CreatedAt time.Time `json:"createdAt"`

	// Tabs keep insertion order
	Tabs []TabEntry `json:"tabs"`
}

// UnmarshalJSON decodes c, tolerating an empty, null or unparseable
// createdAt so one bad timestamp does not reject the whole document.
func (c *Collection) UnmarshalJSON(data []byte) error {
	type plain Collection
	var raw struct {
		plain
		CreatedAt *string `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Collection(raw.plain)
	c.CreatedAt = time.Time{}
	if raw.CreatedAt != nil {
		if t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(*raw.CreatedAt)); err == nil {
			c.CreatedAt = t
		}
	}
	return nil
}

// TabEntry is one saved tab. URL identifies the tab within its collection.
type TabEntry struct {
	URL        string  `json:"url"`
	Title      string  `json:"title"`
	FavIconURL *string `json:"favIconUrl"`
}

// Clone returns a deep copy of c.
func (c Collection) Clone() Collection {
	out := c
	if c.Tabs != nil {
		out.Tabs = make([]TabEntry, len(c.Tabs))
		for i, t := range c.Tabs {
			out.Tabs[i] = t.Clone()
		}
	}
	return out
}

// Clone returns a copy of t with its own favicon pointer.
func (t TabEntry) Clone() TabEntry {
	if t.FavIconURL != nil {
		fav := *t.FavIconURL
		t.FavIconURL = &fav
	}
	return t
}

// HasURL reports whether the collection already holds a tab with url.
func (c Collection) HasURL(url string) bool {
	return c.TabIndex(url) >= 0
}

// TabIndex returns the index of the first tab with url, or -1.
func (c Collection) TabIndex(url string) int {
	for i, t := range c.Tabs {
		if t.URL == url {
			return i
		}
	}
	return -1
}

// CloneList deep-copies an ordered list of collections.
func CloneList(list []Collection) []Collection {
	if list == nil {
		return nil
	}
	out := make([]Collection, len(list))
	for i, c := range list {
		out[i] = c.Clone()
	}
	return out
}

// IndexOf returns the position of the collection with id, or -1.
func IndexOf(list []Collection, id string) int {
	for i, c := range list {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// DisplayTitle returns title, else the url host, else "Untitled".
func DisplayTitle(title, rawURL string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return u.Host
	}
	return "Untitled"
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
