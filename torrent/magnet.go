package torrent

import (
	"net/url"
	"strings"
)

// Magnet renders the BEP 9 magnet link for the torrent: the v1
// infohash, the display name, and every tracker.
func (m *MetaInfo) Magnet() string {
	var sb strings.Builder
	sb.WriteString("magnet:?xt=urn:btih:")
	sb.WriteString(m.InfohashV1.String())
	if m.Info.Name != "" {
		sb.WriteString("&dn=")
		sb.WriteString(url.QueryEscape(m.Info.Name))
	}
	for _, tr := range m.Trackers() {
		sb.WriteString("&tr=")
		sb.WriteString(url.QueryEscape(tr))
	}
	return sb.String()
}
