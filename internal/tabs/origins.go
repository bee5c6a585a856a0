package tabs

import "strings"

// OriginPatterns converts CORS-style origins ("chrome-extension://*") to
// the host patterns websocket.Accept matches against. Same-host requests are
// always accepted, so loopback pages need no entry.
func OriginPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	seen := map[string]bool{}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if i := strings.Index(o, "://"); i >= 0 {
			o = o[i+3:]
		}
		o = strings.TrimSuffix(o, "/")
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	return out
}
