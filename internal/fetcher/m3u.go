package fetcher

import (
	"regexp"
	"strings"

	"github.com/voyagen/iptvbrowser/internal/models"
)

const (
	extinfPrefix = "#EXTINF:"
	urlPrefix    = "http"
)

var (
	reExtended = regexp.MustCompile(`tvg-id="([^"]*)".*tvg-name="([^"]*)".*tvg-logo="([^"]*)".*group-title="([^"]*)",(.+)`)
	reCountry  = regexp.MustCompile(`[A-Z]{2}`)
	reLanguage = regexp.MustCompile(`[a-z]{3}`)
	reQuality  = regexp.MustCompile(`\d+p`)
)

// Parse converts M3U text into channels. It never fails: metadata lines that
// do not carry the extended attributes fall back to the comma title, and
// entries without both a name and a URL are dropped.
func Parse(content string) []models.Channel {
	channels := make([]models.Channel, 0, 64)
	var pending models.Channel

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))

		switch {
		case strings.HasPrefix(line, extinfPrefix):
			// Whatever was pending had no URL; it is replaced, not emitted.
			pending = parseEXTINF(line)
		case strings.HasPrefix(line, urlPrefix):
			pending.URL = line
			if pending.Name != "" && pending.URL != "" {
				channels = append(channels, pending.Clone())
			}
			pending = models.Channel{}
		}
	}
	return channels
}

// parseEXTINF builds the pending record for one metadata line.
func parseEXTINF(line string) models.Channel {
	if m := reExtended.FindStringSubmatch(line); m != nil {
		id, name, logo, group, title := m[1], m[2], m[3], m[4], m[5]
		return models.Channel{
			Name:     strings.TrimSpace(title),
			TVG:      &models.TVG{ID: id, Name: name, Logo: logo},
			Category: group,
			Country:  reCountry.FindString(group),
			Language: reLanguage.FindString(group),
			Quality:  reQuality.FindString(group),
		}
	}
	return models.Channel{Name: simpleName(line)}
}

// simpleName takes the second comma-delimited field of an EXTINF line.
func simpleName(line string) string {
	fields := strings.Split(line, ",")
	if len(fields) < 2 {
		return models.UnnamedChannel
	}
	if name := strings.TrimSpace(fields[1]); name != "" {
		return name
	}
	return models.UnnamedChannel
}
