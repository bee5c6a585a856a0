package collection

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDecodeDocument_Empty(t *testing.T) {
	for _, in := range []string{"", "  ", `{}`, `{"tabCollections": []}`} {
		list, err := DecodeDocument([]byte(in))
		if err != nil {
			t.Fatalf("DecodeDocument(%q) error = %v", in, err)
		}
		if list == nil || len(list) != 0 {
			t.Errorf("DecodeDocument(%q) = %v, want empty non-nil list", in, list)
		}
	}
}

func TestDecodeDocument_Valid(t *testing.T) {
	data := `{"tabCollections":[
		{"id":"1700000000000","name":"Work","createdAt":"2024-01-01T10:00:00.000Z",
		 "tabs":[{"url":"https://a","title":"A","favIconUrl":null},
		         {"url":"https://b","title":"B","favIconUrl":"https://b/f.ico"}]},
		{"id":"2","name":"Home","createdAt":"2024-01-02T10:00:00Z","tabs":[]}
	]}`

	list, err := DecodeDocument([]byte(data))
	if err != nil {
		t.Fatalf("DecodeDocument() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].ID != "1700000000000" || list[1].ID != "2" {
		t.Errorf("order lost: %q, %q", list[0].ID, list[1].ID)
	}
	if list[0].Tabs[0].FavIconURL != nil {
		t.Error("null favicon should decode as nil")
	}
	if list[0].Tabs[1].FavIconURL == nil || *list[0].Tabs[1].FavIconURL != "https://b/f.ico" {
		t.Error("favicon not decoded")
	}
	if !list[0].CreatedAt.Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", list[0].CreatedAt)
	}
}

func TestDecodeDocument_UnreadableCreatedAt(t *testing.T) {
	data := `{"tabCollections":[
		{"id":"1","name":"Blank","createdAt":"","tabs":[]},
		{"id":"2","name":"Null","createdAt":null,"tabs":[]},
		{"id":"3","name":"Garbage","createdAt":"last tuesday","tabs":[]},
		{"id":"4","name":"Missing","tabs":[]},
		{"id":"5","name":"Good","createdAt":"2024-01-02T10:00:00Z","tabs":[]}
	]}`

	list, err := DecodeDocument([]byte(data))
	if err != nil {
		t.Fatalf("DecodeDocument() error = %v", err)
	}
	if len(list) != 5 {
		t.Fatalf("len = %d, want 5", len(list))
	}
	for _, c := range list[:4] {
		if !c.CreatedAt.IsZero() {
			t.Errorf("%s: CreatedAt = %v, want zero", c.Name, c.CreatedAt)
		}
	}
	if !list[4].CreatedAt.Equal(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", list[4].CreatedAt)
	}
}

func TestDecodeDocument_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":         `{tabCollections`,
		"wrong root type":  `[]`,
		"list not array":   `{"tabCollections": {}}`,
		"missing id":       `{"tabCollections":[{"name":"x","tabs":[]}]}`,
		"tabs not array":   `{"tabCollections":[{"id":"1","name":"x","tabs":"nope"}]}`,
		"tab without url":  `{"tabCollections":[{"id":"1","name":"x","tabs":[{"title":"t"}]}]}`,
		"favicon as number": `{"tabCollections":[{"id":"1","name":"x","tabs":[{"url":"u","favIconUrl":3}]}]}`,
	}
	for name, in := range cases {
		if _, err := DecodeDocument([]byte(in)); err == nil {
			t.Errorf("%s: DecodeDocument() expected error", name)
		}
	}
}

func TestEncodeDocument_RoundTripShape(t *testing.T) {
	list := []Collection{{
		ID:        "01HX",
		Name:      "Work",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}}

	data, err := EncodeDocument(list)
	if err != nil {
		t.Fatalf("EncodeDocument() error = %v", err)
	}

	var raw map[string][]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	got := raw[DocumentKey]
	if len(got) != 1 {
		t.Fatalf("tabCollections = %v", raw)
	}
	if tabs, ok := got[0]["tabs"].([]any); !ok || len(tabs) != 0 {
		t.Errorf("tabs = %#v, want []", got[0]["tabs"])
	}
	if !strings.HasPrefix(got[0]["createdAt"].(string), "2024-01-01T00:00:00") {
		t.Errorf("createdAt = %v", got[0]["createdAt"])
	}
	if err := ValidateDocument(data); err != nil {
		t.Errorf("encoded document fails schema: %v", err)
	}
}
