package service

import "github.com/yixianOu/moviestore/internal/biz"

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDegraded  = "degraded"
	statusStopped   = "stopped"

	docsURL = "Contact admin for API documentation"
)

// RootReply is the service banner.
type RootReply struct {
	Message string `json:"message"`
	Version string `json:"version"`
	DocsURL string `json:"docs_url"`
}

// HealthReply aggregates dependency status. Status is "healthy" only when
// every entry in Services is.
type HealthReply struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
}

// ProcessorHealthReply is the processor's admin health document.
type ProcessorHealthReply struct {
	Status         string            `json:"status"`
	Timestamp      string            `json:"timestamp"`
	ProcessedCount int64             `json:"processed_count"`
	ErrorCount     int64             `json:"error_count"`
	Services       map[string]string `json:"services"`
}

// ListMoviesRequest is bound from the query string. Repeat genre to filter
// on several genres.
type ListMoviesRequest struct {
	Title    string   `json:"title"`
	Year     *int     `json:"year"`
	Genre    []string `json:"genre"`
	Cast     string   `json:"cast"`
	Director string   `json:"director"`
	Rating   string   `json:"rating"`
	Limit    *int     `json:"limit"`
	Offset   *int     `json:"offset"`
}

// GetMovieRequest is bound from the path.
type GetMovieRequest struct {
	ID string `json:"id"`
}

// ListMoviesReply is the paginated search envelope.
type ListMoviesReply = biz.MovieSearchResult

// MovieReply is a single movie.
type MovieReply = biz.Movie
