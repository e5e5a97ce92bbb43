package models

// Channel represents a single playable entry from an M3U playlist.
// Its identity for comparison and deduplication is URL.
type Channel struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Country  string `json:"country,omitempty"`
	Language string `json:"language,omitempty"`
	Category string `json:"category,omitempty"`
	Quality  string `json:"quality,omitempty"`
	Logo     string `json:"logo,omitempty"`
	TVG      *TVG   `json:"tvg,omitempty"`
}

// TVG mirrors the tvg-* attributes of the upstream playlist. URL points at an
// external program guide when the playlist provides one.
type TVG struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Logo string `json:"logo,omitempty"`
	URL  string `json:"url,omitempty"`
}

// DisplayLogo returns the direct logo, falling back to the tvg-logo.
func (c Channel) DisplayLogo() string {
	if c.Logo != "" {
		return c.Logo
	}
	if c.TVG != nil {
		return c.TVG.Logo
	}
	return ""
}

// GuideURL returns the program guide URL, or "" when there is none.
func (c Channel) GuideURL() string {
	if c.TVG == nil {
		return ""
	}
	return c.TVG.URL
}

// Clone returns a deep copy of c.
func (c Channel) Clone() Channel {
	if c.TVG != nil {
		tvg := *c.TVG
		c.TVG = &tvg
	}
	return c
}
