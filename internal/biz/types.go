package biz

import (
	"context"
	"time"
)

// Genre is one of the supported movie genres.
type Genre string

const (
	GenreAction      Genre = "Action"
	GenreAdventure   Genre = "Adventure"
	GenreAnimation   Genre = "Animation"
	GenreBiography   Genre = "Biography"
	GenreComedy      Genre = "Comedy"
	GenreCrime       Genre = "Crime"
	GenreDocumentary Genre = "Documentary"
	GenreDrama       Genre = "Drama"
	GenreFamily      Genre = "Family"
	GenreFantasy     Genre = "Fantasy"
	GenreHistory     Genre = "History"
	GenreHorror      Genre = "Horror"
	GenreMusic       Genre = "Music"
	GenreMusical     Genre = "Musical"
	GenreMystery     Genre = "Mystery"
	GenreRomance     Genre = "Romance"
	GenreSciFi       Genre = "Sci-Fi"
	GenreSport       Genre = "Sport"
	GenreThriller    Genre = "Thriller"
	GenreWar         Genre = "War"
	GenreWestern     Genre = "Western"
)

var knownGenres = map[Genre]struct{}{
	GenreAction: {}, GenreAdventure: {}, GenreAnimation: {}, GenreBiography: {},
	GenreComedy: {}, GenreCrime: {}, GenreDocumentary: {}, GenreDrama: {},
	GenreFamily: {}, GenreFantasy: {}, GenreHistory: {}, GenreHorror: {},
	GenreMusic: {}, GenreMusical: {}, GenreMystery: {}, GenreRomance: {},
	GenreSciFi: {}, GenreSport: {}, GenreThriller: {}, GenreWar: {},
	GenreWestern: {},
}

func (g Genre) IsValid() bool {
	_, ok := knownGenres[g]
	return ok
}

// Rating is an MPAA rating code.
type Rating string

const (
	RatingG    Rating = "G"
	RatingPG   Rating = "PG"
	RatingPG13 Rating = "PG-13"
	RatingR    Rating = "R"
	RatingNC17 Rating = "NC-17"
	RatingNR   Rating = "NR"
)

func (r Rating) IsValid() bool {
	switch r {
	case RatingG, RatingPG, RatingPG13, RatingR, RatingNC17, RatingNR:
		return true
	}
	return false
}

// CastMember domain model
type CastMember struct {
	Name      string  `json:"name" validate:"required,min=1,max=200"`
	Role      string  `json:"role" validate:"required,min=1,max=200"`
	Character *string `json:"character,omitempty" validate:"omitnil,max=200"`
}

// Movie domain model. CreatedAt and UpdatedAt are owned by the store; values
// supplied by callers are ignored.
type Movie struct {
	ID               string                 `json:"id" validate:"required,min=1,max=100"`
	Title            string                 `json:"title" validate:"required,min=1,max=500"`
	Year             int                    `json:"year" validate:"required,gte=1888,lte=2030"`
	Genre            []Genre                `json:"genre" validate:"required,min=1,max=5,unique,dive,genre"`
	Cast             []CastMember           `json:"cast" validate:"omitempty,max=100,castnames,dive"`
	Director         *string                `json:"director,omitempty" validate:"omitnil,max=200"`
	RuntimeMinutes   *int                   `json:"runtime_minutes,omitempty" validate:"omitnil,gte=1,lte=600"`
	Rating           *Rating                `json:"rating,omitempty" validate:"omitnil,mpaa"`
	ImdbID           *string                `json:"imdb_id,omitempty" validate:"omitnil,imdbid"`
	BudgetUSD        *int64                 `json:"budget_usd,omitempty" validate:"omitnil,gte=0,lte=1000000000"`
	BoxOfficeUSD     *int64                 `json:"box_office_usd,omitempty" validate:"omitnil,gte=0,lte=10000000000"`
	Synopsis         *string                `json:"synopsis,omitempty" validate:"omitnil,max=2000"`
	PosterURL        *string                `json:"poster_url,omitempty" validate:"omitnil,max=500"`
	TrailerURL       *string                `json:"trailer_url,omitempty" validate:"omitnil,max=500"`
	ProviderMetadata map[string]interface{} `json:"provider_metadata"`
	CreatedAt        *time.Time             `json:"created_at,omitempty"`
	UpdatedAt        *time.Time             `json:"updated_at,omitempty"`
}

// MovieFilter holds the conjunctive search predicates. Nil or empty fields do
// not constrain the result.
type MovieFilter struct {
	Title    *string `json:"title,omitempty" validate:"omitnil,min=1,max=200"`
	Year     *int    `json:"year,omitempty" validate:"omitnil,gte=1888,lte=2030"`
	Genre    []Genre `json:"genre,omitempty" validate:"omitempty,dive,genre"`
	Cast     *string `json:"cast,omitempty" validate:"omitnil,min=1,max=200"`
	Director *string `json:"director,omitempty" validate:"omitnil,min=1,max=200"`
	Rating   *Rating `json:"rating,omitempty" validate:"omitnil,mpaa"`
}

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// MovieSearchQuery is a filter plus offset pagination.
type MovieSearchQuery struct {
	MovieFilter
	Limit  int `json:"limit" validate:"gte=1,lte=100"`
	Offset int `json:"offset" validate:"gte=0"`
}

// Pagination echoes the window of a search result.
type Pagination struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

// MovieSearchResult is the search response envelope.
type MovieSearchResult struct {
	Data       []*Movie   `json:"data"`
	Pagination Pagination `json:"pagination"`
	Total      int64      `json:"total"`
}

// DependencyHealth reports reachability of the API's backends.
type DependencyHealth struct {
	Database bool
	Cache    bool
}

// MovieRepo defines the repository interface for movies. Implementations
// return ErrMovieNotFound for missing ids and wrap ErrStoreUnavailable for
// backend failures.
type MovieRepo interface {
	CreateMovie(ctx context.Context, movie *Movie) (*Movie, error)
	GetMovieByID(ctx context.Context, id string) (*Movie, error)
	GetMoviesByIDs(ctx context.Context, ids []string) ([]*Movie, error)
	UpdateMovie(ctx context.Context, movie *Movie) (*Movie, error)
	DeleteMovie(ctx context.Context, id string) error
	SearchMovies(ctx context.Context, filter *MovieFilter, limit, offset int) ([]*Movie, int64, error)
	Ping(ctx context.Context) error
}

// MovieCache is a best-effort JSON key/value store. Get reports absence as
// (false, nil); backend problems come back as ErrCacheUnavailable and
// undecodable entries as ErrCacheCorrupt. A ttl <= 0 selects the default TTL.
type MovieCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) (bool, error)
	InvalidatePattern(ctx context.Context, pattern string) (int64, error)
	Ping(ctx context.Context) error
}

// Notification is one queue message describing storage changes.
type Notification struct {
	ID            string
	ReceiptHandle string
	Body          []byte
}

// NotificationQueue defines the queue the processor consumes.
type NotificationQueue interface {
	Receive(ctx context.Context, max int32, wait time.Duration) ([]*Notification, error)
	Ack(ctx context.Context, n *Notification) error
	Ping(ctx context.Context) error
}

// ObjectStore downloads the objects referenced by notifications.
type ObjectStore interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	Ping(ctx context.Context) error
}
