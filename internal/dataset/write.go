package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"genreclf/internal/fileutil"
)

// Write stores records at path, choosing CSV or JSON lines from the extension.
// The file is replaced atomically.
func Write(path string, records []MovieRecord) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		data, err = encodeCSV(records)
	case ".jsonl", ".ndjson":
		data, err = encodeJSONLines(records)
	default:
		return fmt.Errorf("write dataset: unsupported extension %q", ext)
	}
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

func encodeCSV(records []MovieRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(writeColumns); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			strconv.FormatInt(rec.ID, 10),
			rec.Title,
			rec.Overview,
			FormatGenreIDs(rec.GenreIDs),
			rec.Language,
			rec.ReleaseDate,
			strconv.FormatFloat(rec.VoteAverage, 'f', -1, 64),
			strconv.FormatInt(rec.VoteCount, 10),
			strconv.FormatFloat(rec.Popularity, 'f', -1, 64),
			rec.SourceGenre,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", rec.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

type jsonRow struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	GenreIDs    []int   `json:"genre_ids"`
	Language    string  `json:"original_language"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int64   `json:"vote_count"`
	Popularity  float64 `json:"popularity"`
	SourceGenre string  `json:"source_genre,omitempty"`
}

func encodeJSONLines(records []MovieRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range records {
		ids := rec.GenreIDs
		if ids == nil {
			ids = []int{}
		}
		if err := enc.Encode(jsonRow{
			ID:          rec.ID,
			Title:       rec.Title,
			Overview:    rec.Overview,
			GenreIDs:    ids,
			Language:    rec.Language,
			ReleaseDate: rec.ReleaseDate,
			VoteAverage: rec.VoteAverage,
			VoteCount:   rec.VoteCount,
			Popularity:  rec.Popularity,
			SourceGenre: rec.SourceGenre,
		}); err != nil {
			return nil, fmt.Errorf("encode row %d: %w", rec.ID, err)
		}
	}
	return buf.Bytes(), nil
}
