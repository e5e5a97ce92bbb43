package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/iptvbrowser/internal/config"
	"github.com/voyagen/iptvbrowser/internal/logging"
	"github.com/voyagen/iptvbrowser/internal/models"
	"github.com/voyagen/iptvbrowser/internal/store"
)

const playlist = `#EXTM3U
#EXTINF:-1 tvg-id="tn.ar" tvg-name="TN" tvg-logo="http://logo/tn.png" group-title="AR spa News",TN
http://stream.example/tn.m3u8
#EXTINF:-1 tvg-id="bbc.uk" tvg-name="BBC" tvg-logo="" group-title="GB eng News",BBC One
http://stream.example/bbc.m3u8
`

func writePlaylist(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "list.m3u")
	require.NoError(t, os.WriteFile(path, []byte(playlist), 0o644))
	return path
}

func TestParseFileTable(t *testing.T) {
	var buf bytes.Buffer
	cmd := parseCmd{Source: writePlaylist(t), Country: "AR"}
	require.NoError(t, cmd.run(context.Background(), &buf))

	out := buf.String()
	require.Contains(t, out, "TN")
	require.Contains(t, out, "Español")
	require.NotContains(t, out, "BBC One")
	require.Contains(t, out, "1 of 2 channels")
}

func TestParseWideShowsLogo(t *testing.T) {
	var buf bytes.Buffer
	cmd := parseCmd{Source: writePlaylist(t), Search: "TN", Wide: true}
	require.NoError(t, cmd.run(context.Background(), &buf))
	require.Contains(t, buf.String(), "LOGO")
	require.Contains(t, buf.String(), "http://logo/tn.png")
}

func TestParseURLJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(playlist))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	cmd := parseCmd{Source: srv.URL, Search: "bbc", JSON: true}
	require.NoError(t, cmd.run(context.Background(), &buf))

	var got []models.Channel
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	require.Equal(t, "BBC One", got[0].Name)
}

func TestParseMissingFile(t *testing.T) {
	cmd := parseCmd{Source: filepath.Join(t.TempDir(), "nope.m3u")}
	require.Error(t, cmd.run(context.Background(), &bytes.Buffer{}))
}

func TestCLIParsesFlags(t *testing.T) {
	var c struct {
		Serve serveCmd `cmd:"" default:"withargs"`
		Parse parseCmd `cmd:""`
	}
	parser, err := kong.New(&c, kong.Vars{"version": "test"})
	require.NoError(t, err)

	ctx, err := parser.Parse([]string{"parse", "list.m3u", "--language", "spa", "--json"})
	require.NoError(t, err)
	require.Equal(t, "parse <source>", ctx.Command())
	require.Equal(t, "spa", c.Parse.Language)
	require.True(t, c.Parse.JSON)

	ctx, err = parser.Parse([]string{})
	require.NoError(t, err)
	require.Equal(t, "serve", ctx.Command())
}

func TestOpenStoreMemory(t *testing.T) {
	cfg := config.Defaults()
	b, err := openStore(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer b.close()

	_, ok := b.kv.(*store.Memory)
	require.True(t, ok)
	require.Nil(t, b.redis)
}
