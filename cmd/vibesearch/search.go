package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	vibesearch "github.com/kailas-cloud/vibesearch/pkg/sdk"
)

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Run one search against the gateway and print the results",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Search text"},
			&cli.StringSliceFlag{Name: "image", Usage: "Reference image URL (repeatable)"},
			&cli.StringFlag{Name: "gateway", Usage: "Gateway base URL (default: from config)"},
			&cli.FloatFlag{Name: "min-beds"},
			&cli.FloatFlag{Name: "max-beds"},
			&cli.FloatFlag{Name: "min-baths"},
			&cli.FloatFlag{Name: "max-baths"},
			&cli.IntFlag{Name: "min-rent"},
			&cli.IntFlag{Name: "max-rent"},
			&cli.StringFlag{Name: "city"},
			&cli.StringFlag{Name: "state"},
			&cli.BoolFlag{Name: "studio"},
			&cli.BoolFlag{Name: "available", Usage: "Only properties with available units"},
			&cli.IntFlag{Name: "page", Usage: "Show list pages 1..N", Value: 1},
			&cli.BoolFlag{Name: "map", Usage: "Print map locations instead of the list"},
			&cli.BoolFlag{Name: "json", Usage: "Print JSON"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.String("query") == "" && len(c.StringSlice("image")) == 0 {
				return fmt.Errorf("--query or --image is required")
			}
			gatewayURL := c.String("gateway")
			if gatewayURL == "" {
				cfg, err := loadConfig(c.String("config"))
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				gatewayURL = cfg.Gateway.BaseURL
			}
			return runSearch(ctx, os.Stdout, gatewayURL, c)
		},
	}
}

func filtersFromFlags(c *cli.Command) *vibesearch.Filters {
	f := &vibesearch.Filters{
		City:              c.String("city"),
		State:             c.String("state"),
		Studio:            c.Bool("studio"),
		HasAvailableUnits: c.Bool("available"),
	}
	floats := map[string]**float64{
		"min-beds": &f.MinBeds, "max-beds": &f.MaxBeds,
		"min-baths": &f.MinBaths, "max-baths": &f.MaxBaths,
	}
	for name, dst := range floats {
		if c.IsSet(name) {
			*dst = vibesearch.Float(c.Float(name))
		}
	}
	if c.IsSet("min-rent") {
		f.MinRent = vibesearch.Int(c.Int("min-rent"))
	}
	if c.IsSet("max-rent") {
		f.MaxRent = vibesearch.Int(c.Int("max-rent"))
	}
	return f
}

func runSearch(ctx context.Context, out io.Writer, gatewayURL string, c *cli.Command) error {
	client, err := vibesearch.New(ctx, vibesearch.WithGateway(gatewayURL))
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	sess, err := client.Open(ctx, vibesearch.NewSessionID(), vibesearch.Seed{})
	if err != nil {
		return err
	}
	if _, err := sess.Search(ctx, vibesearch.SearchRequest{
		Query:     c.String("query"),
		Filters:   filtersFromFlags(c),
		ImageURLs: c.StringSlice("image"),
	}); err != nil {
		return fmt.Errorf("%s: %w", vibesearch.UserMessage(err), err)
	}

	if c.Bool("map") {
		sess.ResolveMap(ctx)
		waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		snap, err := sess.WaitMap(waitCtx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "map incomplete: %v\n", err)
		}
		if c.Bool("json") {
			return writeJSON(out, snap)
		}
		for _, l := range snap.Locations {
			title := l.ID
			if l.Property != nil {
				title = l.Property.Title
			}
			flag := ""
			switch {
			case l.HasError:
				flag = " (unavailable)"
			case l.Placeholder:
				flag = " (pending)"
			}
			fmt.Fprintf(out, "%9.5f %10.5f  %s%s\n", l.Latitude, l.Longitude, title, flag)
		}
		return nil
	}

	page := sess.Page(ctx, vibesearch.ListView)
	for i := 1; i < c.Int("page") && page.CanRevealMore; i++ {
		if page, err = sess.Reveal(ctx, vibesearch.ListView); err != nil {
			return err
		}
	}
	if c.Bool("json") {
		return writeJSON(out, page)
	}
	printPage(out, page)
	return nil
}

func printPage(out io.Writer, page vibesearch.Page) {
	fmt.Fprintf(out, "Showing %d of %d results\n", len(page.Items), page.Total)
	for i, p := range page.Items {
		fmt.Fprintf(out, "%3d. %s  $%.0f  %gbd/%gba", i+1, p.Title, p.Price, p.Bedrooms, p.Bathrooms)
		if p.Address != "" {
			fmt.Fprintf(out, "  %s", p.Address)
		}
		fmt.Fprintf(out, "  [%s]\n", p.ID)
	}
	if page.CanRevealMore {
		fmt.Fprintln(out, "More results available (use --page)")
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
