// Package dataset holds an uploaded CSV of track data and answers
// summary, chart, and recommendation queries over it.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strconv"
	"strings"
)

// Column names the analysis surface knows about.
const (
	colTrackName = "track_name"
	colArtist    = "artist"
	colDuration  = "duration_ms"
)

// ErrEmptyDataset is returned when a CSV has a header but no rows.
var ErrEmptyDataset = errors.New("dataset has no rows")

// Dataset is one parsed CSV of track data.
type Dataset struct {
	Columns []string
	Rows    [][]string
	index   map[string]int
}

// Parse reads a CSV stream into a Dataset. The first record is the
// header; column lookup is by header name, so extra columns are fine and
// known columns may be absent.
func Parse(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("dataset has no header")
	}
	if len(records) == 1 {
		return nil, ErrEmptyDataset
	}

	header := records[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	return &Dataset{
		Columns: header,
		Rows:    records[1:],
		index:   index,
	}, nil
}

// field returns the value of a named column in a row, or "" when the
// column is absent or the row is short.
func (d *Dataset) field(row []string, column string) string {
	i, ok := d.index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// HasColumn reports whether the dataset carries the named column.
func (d *Dataset) HasColumn(column string) bool {
	_, ok := d.index[column]
	return ok
}

// Summary holds headline statistics for a dataset.
type Summary struct {
	TotalSongs     int      `json:"total_songs"`
	UniqueArtists  int      `json:"unique_artists"`
	AvgDurationMin *float64 `json:"avg_duration_min,omitempty"`
}

// Summarize computes headline statistics. UniqueArtists is zero when the
// artist column is missing; AvgDurationMin is nil when duration_ms is
// missing or unparseable throughout.
func (d *Dataset) Summarize() Summary {
	s := Summary{TotalSongs: len(d.Rows)}

	if d.HasColumn(colArtist) {
		seen := make(map[string]struct{})
		for _, row := range d.Rows {
			if artist := d.field(row, colArtist); artist != "" {
				seen[artist] = struct{}{}
			}
		}
		s.UniqueArtists = len(seen)
	}

	if d.HasColumn(colDuration) {
		var total, counted float64
		for _, row := range d.Rows {
			ms, err := strconv.ParseFloat(d.field(row, colDuration), 64)
			if err != nil {
				continue
			}
			total += ms
			counted++
		}
		if counted > 0 {
			avg := total / counted / 60000
			avg = float64(int(avg*100+0.5)) / 100 // two decimal places
			s.AvgDurationMin = &avg
		}
	}

	return s
}

// ArtistCount is the number of dataset rows for one artist.
type ArtistCount struct {
	Artist string `json:"artist"`
	Count  int    `json:"count"`
}

// TopArtists returns the n most frequent artists, ties broken by name.
func (d *Dataset) TopArtists(n int) []ArtistCount {
	counts := make(map[string]int)
	for _, row := range d.Rows {
		if artist := d.field(row, colArtist); artist != "" {
			counts[artist]++
		}
	}

	all := make([]ArtistCount, 0, len(counts))
	for artist, count := range counts {
		all = append(all, ArtistCount{Artist: artist, Count: count})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		return all[i].Artist < all[j].Artist
	})

	if n < len(all) {
		all = all[:n]
	}
	return all
}

// Track is one recommendable dataset row.
type Track struct {
	TrackName string `json:"track_name"`
	Artist    string `json:"artist"`
}

// Recommend returns up to n tracks whose artist or track name contains
// the query, case-insensitively. Matches are sampled at random.
func (d *Dataset) Recommend(query string, n int) []Track {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var matches []Track
	for _, row := range d.Rows {
		artist := d.field(row, colArtist)
		track := d.field(row, colTrackName)
		if strings.Contains(strings.ToLower(artist), query) ||
			strings.Contains(strings.ToLower(track), query) {
			matches = append(matches, Track{TrackName: track, Artist: artist})
		}
	}

	if len(matches) <= n {
		return matches
	}

	rand.Shuffle(len(matches), func(i, j int) {
		matches[i], matches[j] = matches[j], matches[i]
	})
	return matches[:n]
}

// WriteCSV writes the dataset back out as CSV, header first.
func (d *Dataset) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(d.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, row := range d.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
