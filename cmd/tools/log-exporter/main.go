// cmd/tools/log-exporter/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"
	_ "time/tzdata"

	"growth-forecast/internal/common/config"
	httpclient "growth-forecast/internal/common/http"
	"growth-forecast/internal/export"
	"growth-forecast/internal/persistence"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	summaryCmd := flag.NewFlagSet("summary", flag.ExitOnError)

	out := exportCmd.String("out", "", "Output file (stdout when empty)")
	since := exportCmd.String("since", "", "Only rows started on or after this date (YYYY-MM-DD)")
	limit := exportCmd.Int("limit", 0, "Maximum rows (0 for all)")
	lang := exportCmd.String("lang", "ja", "Header language (ja, en)")
	tz := exportCmd.String("tz", "Asia/Tokyo", "Time zone for timestamps")

	summarySince := summaryCmd.String("since", "", "Only rows started on or after this date (YYYY-MM-DD)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		loc, err := time.LoadLocation(*tz)
		if err != nil {
			fail("Error: unknown time zone %q: %v", *tz, err)
		}
		q, err := listQuery(*since, *limit)
		if err != nil {
			fail("Error: %v", err)
		}
		rows := fetch(q)

		var w io.Writer = os.Stdout
		if *out != "" {
			f, err := os.Create(*out)
			if err != nil {
				fail("Error creating %s: %v", *out, err)
			}
			defer f.Close()
			w = f
		}
		if err := export.WriteCSV(w, rows, export.Options{Japanese: *lang == "ja", Location: loc}); err != nil {
			fail("Error writing CSV: %v", err)
		}
		if *out != "" {
			fmt.Printf("Exported %d rows to %s\n", len(rows), *out)
		}

	case "summary":
		summaryCmd.Parse(os.Args[2:])
		q, err := listQuery(*summarySince, 0)
		if err != nil {
			fail("Error: %v", err)
		}
		q.Columns = []string{"id", "prediction_completed_at", "satisfaction_rating"}
		s := export.Summarize(fetch(q))
		body, _ := json.MarshalIndent(struct {
			export.Summary
			SatisfactionRate float64 `json:"satisfactionRate"`
		}{s, s.SatisfactionRate()}, "", "  ")
		fmt.Println(string(body))

	case "help":
		help()

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		help()
		os.Exit(1)
	}
}

func listQuery(since string, limit int) (persistence.ListQuery, error) {
	q := persistence.ListQuery{Columns: export.Columns(), Limit: limit}
	if since != "" {
		t, err := time.Parse("2006-01-02", since)
		if err != nil {
			return q, fmt.Errorf("invalid -since %q: %w", since, err)
		}
		q.Since = t
	}
	return q, nil
}

func fetch(q persistence.ListQuery) []map[string]interface{} {
	cfg, err := config.Load()
	if err != nil {
		fail("Error loading config: %v", err)
	}
	rest := cfg.Persistence.REST
	tier := persistence.NewRESTTier(rest.URL, rest.APIKey, rest.Table, httpclient.NewClient(30*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	rows, err := tier.List(ctx, q)
	if err != nil {
		fail("Error fetching prediction logs: %v", err)
	}
	return rows
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func help() {
	fmt.Println("Usage: log-exporter <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  export   Write prediction logs as CSV")
	fmt.Println("  summary  Print completion and satisfaction counts")
	fmt.Println("  help     Show this help message")
	fmt.Println("\nUse 'log-exporter <command> -h' for command flags.")
}
