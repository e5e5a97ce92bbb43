package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/voyagen/iptvbrowser/internal/catalog"
	"github.com/voyagen/iptvbrowser/internal/fetcher"
	"github.com/voyagen/iptvbrowser/internal/models"
)

type parseCmd struct {
	Source    string        `arg:"" help:"Playlist file path or http(s) URL."`
	Country   string        `help:"Only channels with this country code."`
	Language  string        `help:"Only channels with this language code."`
	Category  string        `help:"Only channels with this category."`
	Search    string        `help:"Only channels whose name contains this text."`
	JSON      bool          `name:"json" help:"Print JSON instead of a table."`
	Wide      bool          `help:"Add logo and guide columns to the table."`
	UserAgent string        `default:"iptvbrowser/1.0" help:"User-Agent for URL sources."`
	Timeout   time.Duration `default:"30s" help:"Timeout for URL sources."`
}

func (c *parseCmd) Run() error {
	return c.run(context.Background(), os.Stdout)
}

func (c *parseCmd) run(ctx context.Context, w io.Writer) error {
	content, err := c.read(ctx)
	if err != nil {
		return err
	}

	cat := catalog.New()
	cat.Replace(fetcher.Parse(content))
	cat.SetSearch(c.Search)
	cat.SetFilter(models.Filter{Country: c.Country, Language: c.Language, Category: c.Category})
	visible := cat.Visible()

	if c.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(visible)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := "NAME\tCOUNTRY\tLANGUAGE\tCATEGORY\tURL"
	if c.Wide {
		header += "\tLOGO\tGUIDE"
	}
	fmt.Fprintln(tw, header)
	for _, ch := range visible {
		row := strings.Join([]string{ch.Name, ch.Country, models.LanguageName(ch.Language), ch.Category, ch.URL}, "\t")
		if c.Wide {
			row += "\t" + ch.DisplayLogo() + "\t" + ch.GuideURL()
		}
		fmt.Fprintln(tw, row)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d of %d channels\n", len(visible), cat.Len())
	return nil
}

func (c *parseCmd) read(ctx context.Context) (string, error) {
	if strings.HasPrefix(c.Source, "http://") || strings.HasPrefix(c.Source, "https://") {
		return fetcher.FetchPlaylist(ctx, c.Source, fetcher.Options{UserAgent: c.UserAgent, Timeout: c.Timeout})
	}
	data, err := os.ReadFile(c.Source)
	if err != nil {
		return "", fmt.Errorf("read playlist: %w", err)
	}
	return string(data), nil
}
