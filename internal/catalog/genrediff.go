package catalog

import (
	"context"
	"sort"

	"genreclf/internal/catalog/tmdb"
	"genreclf/internal/genres"
	"genreclf/internal/services"
)

// GenreDiff describes one genre id whose local and remote names disagree.
// An empty side means the id is missing there.
type GenreDiff struct {
	ID     int
	Local  string
	Remote string
}

// CompareGenres fetches the remote genre table and reports differences from
// the local catalog, ordered by id.
func CompareGenres(ctx context.Context, client tmdb.Lister, local genres.Catalog) ([]GenreDiff, error) {
	remote, err := client.Genres(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "genres", "fetch remote", "", err)
	}
	return DiffGenres(local, remote), nil
}

// DiffGenres compares a local catalog with a remote genre list.
func DiffGenres(local genres.Catalog, remote []tmdb.Genre) []GenreDiff {
	remoteByID := make(map[int]string, len(remote))
	for _, g := range remote {
		remoteByID[g.ID] = g.Name
	}
	var diffs []GenreDiff
	for _, id := range local.IDs() {
		name, _ := local.CanonicalName(id)
		if remoteName, ok := remoteByID[id]; !ok || remoteName != name {
			diffs = append(diffs, GenreDiff{ID: id, Local: name, Remote: remoteName})
		}
		delete(remoteByID, id)
	}
	for id, name := range remoteByID {
		diffs = append(diffs, GenreDiff{ID: id, Remote: name})
	}
	sort.Slice(diffs, func(i, j int) bool { return diffs[i].ID < diffs[j].ID })
	return diffs
}
