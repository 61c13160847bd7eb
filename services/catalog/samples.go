package catalog

import (
	"strings"

	"vetrina/models"
)

// Built-in sample catalog served when the metadata provider is unreachable or
// no API key is configured. Browsing keeps working in a degraded mode; every
// sample title is flagged as a fallback so clients can tell.

var sampleMovies = []models.Title{
	{ID: 550, Kind: models.KindMovie, Name: "Fight Club", Overview: "An insomniac office worker and a soap maker form an underground club.", ReleaseDate: "1999-10-15", Rating: 8.4, VoteCount: 27000, Popularity: 61.4, GenreIDs: []int64{18}, Fallback: true},
	{ID: 278, Kind: models.KindMovie, Name: "The Shawshank Redemption", Overview: "Two imprisoned men bond over a number of years.", ReleaseDate: "1994-09-23", Rating: 8.7, VoteCount: 24000, Popularity: 88.0, GenreIDs: []int64{18, 80}, Fallback: true},
	{ID: 238, Kind: models.KindMovie, Name: "The Godfather", Overview: "The aging patriarch of an organized crime dynasty transfers control to his son.", ReleaseDate: "1972-03-14", Rating: 8.7, VoteCount: 18000, Popularity: 103.5, GenreIDs: []int64{18, 80}, Fallback: true},
	{ID: 27205, Kind: models.KindMovie, Name: "Inception", Overview: "A thief who steals corporate secrets through dream-sharing technology.", ReleaseDate: "2010-07-15", Rating: 8.4, VoteCount: 34000, Popularity: 83.9, GenreIDs: []int64{28, 878}, Fallback: true},
	{ID: 157336, Kind: models.KindMovie, Name: "Interstellar", Overview: "A team of explorers travel through a wormhole in space.", ReleaseDate: "2014-11-05", Rating: 8.4, VoteCount: 33000, Popularity: 140.2, GenreIDs: []int64{12, 878}, Fallback: true},
	{ID: 603, Kind: models.KindMovie, Name: "The Matrix", Overview: "A computer hacker learns the true nature of his reality.", ReleaseDate: "1999-03-30", Rating: 8.2, VoteCount: 24000, Popularity: 79.1, GenreIDs: []int64{28, 878}, Fallback: true},
	{ID: 680, Kind: models.KindMovie, Name: "Pulp Fiction", Overview: "The lives of two mob hitmen, a boxer and a pair of diner bandits intertwine.", ReleaseDate: "1994-09-10", Rating: 8.5, VoteCount: 26000, Popularity: 74.7, GenreIDs: []int64{80, 53}, Fallback: true},
	{ID: 155, Kind: models.KindMovie, Name: "The Dark Knight", Overview: "Batman raises the stakes in his war on crime.", ReleaseDate: "2008-07-16", Rating: 8.5, VoteCount: 31000, Popularity: 123.2, GenreIDs: []int64{28, 80, 18}, Fallback: true},
}

var sampleShows = []models.Title{
	{ID: 1396, Kind: models.KindTV, Name: "Breaking Bad", Overview: "A chemistry teacher diagnosed with cancer turns to manufacturing methamphetamine.", ReleaseDate: "2008-01-20", Rating: 8.9, VoteCount: 13000, Popularity: 245.8, GenreIDs: []int64{18, 80}, Fallback: true},
	{ID: 1399, Kind: models.KindTV, Name: "Game of Thrones", Overview: "Seven noble families fight for control of the land of Westeros.", ReleaseDate: "2011-04-17", Rating: 8.4, VoteCount: 22000, Popularity: 346.1, GenreIDs: []int64{10765, 18}, Fallback: true},
	{ID: 66732, Kind: models.KindTV, Name: "Stranger Things", Overview: "A young boy vanishes and a small town uncovers a mystery.", ReleaseDate: "2016-07-15", Rating: 8.6, VoteCount: 16000, Popularity: 299.4, GenreIDs: []int64{18, 10765}, Fallback: true},
	{ID: 1398, Kind: models.KindTV, Name: "The Sopranos", Overview: "A New Jersey mob boss balances family life and the criminal organization.", ReleaseDate: "1999-01-10", Rating: 8.6, VoteCount: 2500, Popularity: 133.5, GenreIDs: []int64{18}, Fallback: true},
	{ID: 60625, Kind: models.KindTV, Name: "Rick and Morty", Overview: "A genius scientist drags his grandson on adventures across the multiverse.", ReleaseDate: "2013-12-02", Rating: 8.7, VoteCount: 9500, Popularity: 672.3, GenreIDs: []int64{16, 35}, Fallback: true},
	{ID: 94605, Kind: models.KindTV, Name: "Arcane", Overview: "Two sisters fight on rival sides of a war between magic technologies.", ReleaseDate: "2021-11-06", Rating: 8.7, VoteCount: 4600, Popularity: 115.2, GenreIDs: []int64{16, 10765}, Fallback: true},
}

var sampleMovieGenres = []models.Genre{
	{ID: 28, Name: "Action"},
	{ID: 12, Name: "Adventure"},
	{ID: 16, Name: "Animation"},
	{ID: 35, Name: "Comedy"},
	{ID: 80, Name: "Crime"},
	{ID: 18, Name: "Drama"},
	{ID: 27, Name: "Horror"},
	{ID: 878, Name: "Science Fiction"},
	{ID: 53, Name: "Thriller"},
}

var sampleTVGenres = []models.Genre{
	{ID: 10759, Name: "Action & Adventure"},
	{ID: 16, Name: "Animation"},
	{ID: 35, Name: "Comedy"},
	{ID: 80, Name: "Crime"},
	{ID: 18, Name: "Drama"},
	{ID: 9648, Name: "Mystery"},
	{ID: 10765, Name: "Sci-Fi & Fantasy"},
}

func sampleTitles(kind models.Kind) []models.Title {
	if kind == models.KindMovie {
		return sampleMovies
	}
	return sampleShows
}

func samplePage(kind models.Kind) models.Page {
	titles := sampleTitles(kind)
	results := make([]models.Title, len(titles))
	copy(results, titles)
	return models.Page{Page: 1, TotalPages: 1, TotalResults: len(results), Results: results}
}

func sampleSearch(kind models.Kind, query string) models.Page {
	needle := strings.ToLower(strings.TrimSpace(query))
	var results []models.Title
	for _, t := range sampleTitles(kind) {
		if strings.Contains(strings.ToLower(t.Name), needle) {
			results = append(results, t)
		}
	}
	return models.Page{Page: 1, TotalPages: 1, TotalResults: len(results), Results: results}
}

func sampleGenres(kind models.Kind) []models.Genre {
	if kind == models.KindMovie {
		return sampleMovieGenres
	}
	return sampleTVGenres
}
