package dataset

// MovieRecord is one row of the training table.
type MovieRecord struct {
	ID          int64
	Title       string
	Overview    string
	GenreIDs    []int
	Language    string
	ReleaseDate string
	VoteAverage float64
	VoteCount   int64
	Popularity  float64
	// SourceGenre names the genre query that produced the row when the
	// catalog was fetched per genre.
	SourceGenre string
}

// Column names used by the on-disk formats.
const (
	ColumnID          = "id"
	ColumnTitle       = "title"
	ColumnOverview    = "overview"
	ColumnGenreIDs    = "genre_ids"
	ColumnLanguage    = "original_language"
	ColumnReleaseDate = "release_date"
	ColumnVoteAverage = "vote_average"
	ColumnVoteCount   = "vote_count"
	ColumnPopularity  = "popularity"
	ColumnSourceGenre = "source_genre"
)

var writeColumns = []string{
	ColumnID,
	ColumnTitle,
	ColumnOverview,
	ColumnGenreIDs,
	ColumnLanguage,
	ColumnReleaseDate,
	ColumnVoteAverage,
	ColumnVoteCount,
	ColumnPopularity,
	ColumnSourceGenre,
}

// Overviews returns the overview column in record order.
func Overviews(records []MovieRecord) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.Overview
	}
	return out
}
