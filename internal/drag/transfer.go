package drag

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hpungsan/tabshelf/internal/collection"
	"github.com/hpungsan/tabshelf/internal/errors"
)

// Drag data types carried in dataTransfer.
const (
	MIMETabPayload = "application/vnd.tabmanager.tab+json"
	MIMEText       = "text/plain"
)

type tabPayload struct {
	URL        string  `json:"url"`
	Title      string  `json:"title"`
	FavIconURL *string `json:"favIconUrl"`
}

// SessionFromTransfer rebuilds a session from drag data keyed by MIME type.
// A tab payload is preferred over a plain collection id.
func SessionFromTransfer(data map[string]string) (Session, error) {
	if raw, ok := data[MIMETabPayload]; ok {
		var p tabPayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return None(), errors.NewInvalidRequest(fmt.Sprintf("invalid tab payload: %v", err))
		}
		if strings.TrimSpace(p.URL) == "" {
			return None(), errors.NewInvalidRequest("tab payload has no url")
		}
		return InsertingTab(collection.TabEntry{
			URL:        p.URL,
			Title:      p.Title,
			FavIconURL: nonEmpty(p.FavIconURL),
		}), nil
	}
	if id := strings.TrimSpace(data[MIMEText]); id != "" {
		return Reordering(id), nil
	}
	return None(), nil
}

// Transfer is the inverse of SessionFromTransfer.
func Transfer(s Session) (map[string]string, error) {
	switch {
	case s.carriesTab():
		b, err := json.Marshal(tabPayload{URL: s.Payload.URL, Title: s.Payload.Title, FavIconURL: s.Payload.FavIconURL})
		if err != nil {
			return nil, err
		}
		return map[string]string{MIMETabPayload: string(b)}, nil
	case s.CollectionID != "":
		return map[string]string{MIMEText: s.CollectionID}, nil
	}
	return map[string]string{}, nil
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
