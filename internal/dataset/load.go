package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"genreclf/internal/services"
)

const stageLoad = "load"

// Load reads movie records from a .csv or .jsonl/.ndjson file.
// Every failure carries services.ErrDataFormat.
func Load(path string) ([]MovieRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrDataFormat, stageLoad, "open", path, err)
	}
	defer file.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return readCSV(file, path)
	case ".jsonl", ".ndjson":
		return readJSONLines(file, path)
	default:
		return nil, services.Wrap(services.ErrDataFormat, stageLoad, "detect format",
			fmt.Sprintf("%s: unsupported extension %q (want .csv or .jsonl)", path, ext), nil)
	}
}

func readCSV(r io.Reader, path string) ([]MovieRecord, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, services.Wrap(services.ErrDataFormat, stageLoad, "read header", path+": empty file", nil)
		}
		return nil, services.Wrap(services.ErrDataFormat, stageLoad, "read header", path, err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}
	for _, required := range []string{ColumnOverview, ColumnGenreIDs} {
		if _, ok := columns[required]; !ok {
			return nil, services.Wrap(services.ErrDataFormat, stageLoad, "validate columns",
				fmt.Sprintf("%s: missing required column %q", path, required), nil)
		}
	}

	cell := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	var records []MovieRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrDataFormat, stageLoad, "read row", path, err)
		}
		ids, err := ParseGenreIDs(cell(row, ColumnGenreIDs))
		if err != nil {
			return nil, services.Wrap(services.ErrDataFormat, stageLoad, "decode genre_ids",
				fmt.Sprintf("%s line %d", path, line), err)
		}
		records = append(records, MovieRecord{
			ID:          parseInt(cell(row, ColumnID)),
			Title:       cell(row, ColumnTitle),
			Overview:    cell(row, ColumnOverview),
			GenreIDs:    ids,
			Language:    cell(row, ColumnLanguage),
			ReleaseDate: cell(row, ColumnReleaseDate),
			VoteAverage: parseFloat(cell(row, ColumnVoteAverage)),
			VoteCount:   parseInt(cell(row, ColumnVoteCount)),
			Popularity:  parseFloat(cell(row, ColumnPopularity)),
			SourceGenre: cell(row, ColumnSourceGenre),
		})
	}
	return records, nil
}

type jsonRecord struct {
	ID          json.Number     `json:"id"`
	Title       *string         `json:"title"`
	Overview    json.RawMessage `json:"overview"`
	GenreIDs    json.RawMessage `json:"genre_ids"`
	Language    *string         `json:"original_language"`
	ReleaseDate *string         `json:"release_date"`
	VoteAverage json.Number     `json:"vote_average"`
	VoteCount   json.Number     `json:"vote_count"`
	Popularity  json.Number     `json:"popularity"`
	SourceGenre *string         `json:"source_genre"`
}

func readJSONLines(r io.Reader, path string) ([]MovieRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	var records []MovieRecord
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, services.Wrap(services.ErrDataFormat, stageLoad, "decode row",
				fmt.Sprintf("%s line %d", path, line), err)
		}
		for _, required := range []string{ColumnOverview, ColumnGenreIDs} {
			if _, ok := fields[required]; !ok {
				return nil, services.Wrap(services.ErrDataFormat, stageLoad, "validate columns",
					fmt.Sprintf("%s line %d: missing required column %q", path, line, required), nil)
			}
		}
		var rec jsonRecord
		decoder := json.NewDecoder(bytes.NewReader(raw))
		decoder.UseNumber()
		if err := decoder.Decode(&rec); err != nil {
			return nil, services.Wrap(services.ErrDataFormat, stageLoad, "decode row",
				fmt.Sprintf("%s line %d", path, line), err)
		}
		ids, err := decodeGenreIDs(rec.GenreIDs)
		if err != nil {
			return nil, services.Wrap(services.ErrDataFormat, stageLoad, "decode genre_ids",
				fmt.Sprintf("%s line %d", path, line), err)
		}
		records = append(records, MovieRecord{
			ID:          parseInt(rec.ID.String()),
			Title:       deref(rec.Title),
			Overview:    coerceString(rec.Overview),
			GenreIDs:    ids,
			Language:    deref(rec.Language),
			ReleaseDate: deref(rec.ReleaseDate),
			VoteAverage: parseFloat(rec.VoteAverage.String()),
			VoteCount:   parseInt(rec.VoteCount.String()),
			Popularity:  parseFloat(rec.Popularity.String()),
			SourceGenre: deref(rec.SourceGenre),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, services.Wrap(services.ErrDataFormat, stageLoad, "read", path, err)
	}
	return records, nil
}

// decodeGenreIDs accepts a native array, a string list literal, or null.
func decodeGenreIDs(raw json.RawMessage) ([]int, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []int{}, nil
	}
	switch trimmed[0] {
	case '[':
		var ids []int
		if err := json.Unmarshal(trimmed, &ids); err != nil {
			return nil, fmt.Errorf("genre_ids array: %w", err)
		}
		if ids == nil {
			ids = []int{}
		}
		return ids, nil
	case '"':
		var literal string
		if err := json.Unmarshal(trimmed, &literal); err != nil {
			return nil, err
		}
		return ParseGenreIDs(literal)
	default:
		return nil, fmt.Errorf("genre_ids must be an array or list literal, got %s", trimmed)
	}
}

// coerceString renders any JSON scalar as text; null becomes "".
func coerceString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	return string(trimmed)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func parseInt(value string) int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return int64(f)
	}
	return 0
}

func parseFloat(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}
