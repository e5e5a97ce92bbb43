package models

// UnnamedChannel is the placeholder name for EXTINF lines without a title.
const UnnamedChannel = "Canal sin nombre"

// RecentChannelsKey is the store key holding the recently viewed list.
const RecentChannelsKey = "recentChannels"

// DefaultSources are the preset playlists offered when the config lists none.
var DefaultSources = map[string]string{
	"argentina": "https://iptv-org.github.io/iptv/countries/ar.m3u",
	"spanish":   "https://iptv-org.github.io/iptv/languages/spa.m3u",
	"all":       "https://iptv-org.github.io/iptv/index.m3u",
}

// Languages maps the three-letter language codes found in group titles to
// display names.
var Languages = map[string]string{
	"spa": "Español",
	"eng": "English",
	"por": "Português",
}

// LanguageName returns the display name for code, or code itself.
func LanguageName(code string) string {
	if n, ok := Languages[code]; ok {
		return n
	}
	return code
}
