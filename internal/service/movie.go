package service

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/yixianOu/moviestore/internal/biz"
	"github.com/yixianOu/moviestore/internal/conf"
)

// MovieService implements the movie HTTP API
type MovieService struct {
	movieUC *biz.MovieUseCase
	version string
	log     *log.Helper
}

// NewMovieService creates a new MovieService
func NewMovieService(movieUC *biz.MovieUseCase, app *conf.App, logger log.Logger) *MovieService {
	version := ""
	if app != nil {
		version = app.Version
	}
	return &MovieService{
		movieUC: movieUC,
		version: version,
		log:     log.NewHelper(logger),
	}
}

// Root returns the service banner.
func (s *MovieService) Root(ctx context.Context) (*RootReply, error) {
	return &RootReply{
		Message: "Movie Store API",
		Version: s.version,
		DocsURL: docsURL,
	}, nil
}

// Health reports the store and cache. Search is served by the store, so its
// entry is always healthy.
func (s *MovieService) Health(ctx context.Context) (*HealthReply, error) {
	h := s.movieUC.CheckHealth(ctx)
	services := map[string]string{
		"database": healthString(h.Database),
		"cache":    healthString(h.Cache),
		"search":   statusHealthy,
	}
	return &HealthReply{
		Status:    aggregateStatus(services),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.version,
		Services:  services,
	}, nil
}

// ListMovies implements movie search
func (s *MovieService) ListMovies(ctx context.Context, req *ListMoviesRequest) (*ListMoviesReply, error) {
	query := &biz.MovieSearchQuery{
		MovieFilter: biz.MovieFilter{
			Title:    optional(req.Title),
			Year:     req.Year,
			Cast:     optional(req.Cast),
			Director: optional(req.Director),
		},
		Limit: biz.DefaultSearchLimit,
	}
	for _, g := range req.Genre {
		if g != "" {
			query.Genre = append(query.Genre, biz.Genre(g))
		}
	}
	if req.Rating != "" {
		rating := biz.Rating(req.Rating)
		query.Rating = &rating
	}
	if req.Limit != nil {
		query.Limit = *req.Limit
	}
	if req.Offset != nil {
		query.Offset = *req.Offset
	}

	result, err := s.movieUC.SearchMovies(ctx, query)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return result, nil
}

// GetMovie implements movie lookup by id
func (s *MovieService) GetMovie(ctx context.Context, req *GetMovieRequest) (*MovieReply, error) {
	movie, err := s.movieUC.GetMovieByID(ctx, req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return movie, nil
}

// toStatus maps biz errors onto HTTP statuses. Unknown errors stay opaque;
// the server's error encoder turns them into a generic 500.
func (s *MovieService) toStatus(ctx context.Context, err error) error {
	var ve *biz.ValidationError
	switch {
	case stderrors.As(err, &ve):
		return errors.BadRequest("INVALID_ARGUMENT", ve.Error())
	case stderrors.Is(err, biz.ErrMovieNotFound):
		return errors.NotFound("MOVIE_NOT_FOUND", "Movie not found")
	default:
		s.log.WithContext(ctx).Errorf("request failed: %v", err)
		return err
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func healthString(ok bool) string {
	if ok {
		return statusHealthy
	}
	return statusUnhealthy
}

func aggregateStatus(services map[string]string) string {
	for _, status := range services {
		if status != statusHealthy {
			return statusDegraded
		}
	}
	return statusHealthy
}
