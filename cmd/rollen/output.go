package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/llehouerou/rollen/internal/gateway"
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func printTracks(out io.Writer, tracks []gateway.Track) error {
	w := newTable(out)
	fmt.Fprintln(w, "ID\tTITLE\tARTIST\tLENGTH\tSHARES\tLIKED")
	for _, t := range tracks {
		liked := ""
		if t.IsLiked {
			liked = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Title, t.Author, formatLength(t.Duration()),
			humanize.Comma(int64(t.ReShares)), liked)
	}
	return w.Flush()
}

func printPlaylists(out io.Writer, playlists []gateway.PlaylistSummary) error {
	w := newTable(out)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR")
	for _, p := range playlists {
		fmt.Fprintf(w, "%d\t%s\t%s\n", p.ID, p.Title, p.Author)
	}
	return w.Flush()
}

func printComments(out io.Writer, comments []gateway.Comment) error {
	if len(comments) == 0 {
		fmt.Fprintln(out, "No comments yet")
		return nil
	}
	w := newTable(out)
	for _, c := range comments {
		fmt.Fprintf(w, "%s\t%s\n", c.Username, c.Text)
	}
	return w.Flush()
}

func printProfile(out io.Writer, d gateway.UserDetail) {
	fmt.Fprintf(out, "Name:  %s\n", d.Name)
	fmt.Fprintf(out, "Email: %s\n", d.Email)
	if d.Bio != "" {
		fmt.Fprintf(out, "Bio:   %s\n", d.Bio)
	}
	fmt.Fprintf(out, "Songs: %s\n", humanize.Comma(int64(len(d.Tracks))))
}

// formatLength renders d as m:ss.
func formatLength(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
