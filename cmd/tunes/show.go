package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/tunes/internal/store"
	"github.com/franz/tunes/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show library totals and recent import runs",
	Long: `Display what is in the library database.

Shows:
- Row counts for genres, artists, albums, tracks and their links
- The most used genres
- The most recent import runs with their outcome`,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().Int("runs", 5, "number of recent import runs to list")
	showCmd.Flags().Int("genres", 10, "number of top genres to list")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	dbPath := viper.GetString("db")
	runLimit, _ := cmd.Flags().GetInt("runs")
	genreLimit, _ := cmd.Flags().GetInt("genres")

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		util.WarnLog("No database at %s. Run 'tunes import' first.", dbPath)
		return nil
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	counts, err := db.CountRows(ctx)
	if err != nil {
		return err
	}

	util.InfoLog("=== Library ===")
	util.InfoLog("Database: %s", dbPath)
	util.InfoLog("")
	util.InfoLog("  Tracks:  %s", humanize.Comma(int64(counts.Tracks)))
	util.InfoLog("  Artists: %s (%s credits)", humanize.Comma(int64(counts.Artists)), humanize.Comma(int64(counts.TrackArtists)))
	util.InfoLog("  Albums:  %s (%s placements)", humanize.Comma(int64(counts.Albums)), humanize.Comma(int64(counts.TrackAlbums)))
	util.InfoLog("  Genres:  %s", humanize.Comma(int64(counts.Genres)))

	if genreLimit > 0 {
		genres, err := db.TopGenres(ctx, genreLimit)
		if err != nil {
			return err
		}
		if len(genres) > 0 {
			util.InfoLog("")
			util.InfoLog("Top genres:")
			for _, g := range genres {
				util.InfoLog("  %-30s %s", g.Name, humanize.Comma(int64(g.Tracks)))
			}
		}
	}

	if runLimit > 0 {
		runs, err := db.RecentRuns(ctx, runLimit)
		if err != nil {
			return err
		}

		util.InfoLog("")
		if len(runs) == 0 {
			util.InfoLog("No import runs recorded yet.")
			return nil
		}

		util.InfoLog("Recent runs:")
		for _, run := range runs {
			line := formatRun(run)
			switch run.Status {
			case store.RunCompleted:
				if run.Failed > 0 {
					util.WarnLog("%s", line)
				} else {
					util.SuccessLog("%s", line)
				}
			case store.RunRunning:
				util.InfoLog("%s", line)
			default:
				util.ErrorLog("%s", line)
			}
		}
	}

	return nil
}

// formatRun renders one import run as a single status line
func formatRun(run *store.ImportRun) string {
	line := fmt.Sprintf("%s  %-9s  %s imported, %s skipped, %s failed",
		shortID(run.RunID), run.Status,
		humanize.Comma(int64(run.Imported)),
		humanize.Comma(int64(run.Skipped)),
		humanize.Comma(int64(run.Failed)))

	if !run.FinishedAt.IsZero() {
		line += fmt.Sprintf("  %s (took %s)", humanize.Time(run.FinishedAt),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	} else {
		line += fmt.Sprintf("  started %s", humanize.Time(run.StartedAt))
	}

	if run.Error != "" {
		line += "  error: " + run.Error
	}

	return line
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
