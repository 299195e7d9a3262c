package biz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// SearchCacheTTL bounds how long a search page may be served from cache.
const SearchCacheTTL = 5 * time.Minute

// MovieUseCase serves movie reads through the cache and keeps the cache
// coherent on writes.
type MovieUseCase struct {
	repo  MovieRepo
	cache MovieCache
	log   *log.Helper
}

// NewMovieUseCase creates a new MovieUseCase instance
func NewMovieUseCase(repo MovieRepo, cache MovieCache, logger log.Logger) *MovieUseCase {
	return &MovieUseCase{
		repo:  repo,
		cache: cache,
		log:   log.NewHelper(logger),
	}
}

// GetMovieByID returns the movie with the given id, or ErrMovieNotFound.
// Negative results are not cached.
func (uc *MovieUseCase) GetMovieByID(ctx context.Context, id string) (*Movie, error) {
	key := MovieKey(id)

	var cached Movie
	if uc.cacheGet(ctx, key, &cached) {
		uc.log.WithContext(ctx).Debugf("cache hit for movie %s", id)
		return &cached, nil
	}

	movie, err := uc.repo.GetMovieByID(ctx, id)
	switch {
	case errors.Is(err, ErrMovieNotFound):
		return nil, ErrMovieNotFound
	case errors.Is(err, ErrStoreUnavailable):
		// Reads keep answering "not found" while the store is down; /health
		// reports the outage.
		uc.log.WithContext(ctx).Warnf("store unavailable fetching movie %s: %v", id, err)
		return nil, ErrMovieNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}

	uc.cacheSet(ctx, key, movie, 0)
	return movie, nil
}

// SearchMovies runs a filtered, paginated search. Results are cached for
// SearchCacheTTL under a fingerprint of the full query.
func (uc *MovieUseCase) SearchMovies(ctx context.Context, q *MovieSearchQuery) (*MovieSearchResult, error) {
	if err := ValidateSearchQuery(q); err != nil {
		return nil, err
	}

	key := SearchKey(q)
	var cached MovieSearchResult
	if uc.cacheGet(ctx, key, &cached) {
		uc.log.WithContext(ctx).Debug("cache hit for search query")
		return &cached, nil
	}

	movies, total, err := uc.repo.SearchMovies(ctx, &q.MovieFilter, q.Limit, q.Offset)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			uc.log.WithContext(ctx).Warnf("store unavailable searching movies: %v", err)
			return newSearchResult(nil, q, 0), nil
		}
		return nil, fmt.Errorf("failed to search movies: %w", err)
	}

	result := newSearchResult(movies, q, total)
	uc.cacheSet(ctx, key, result, SearchCacheTTL)
	return result, nil
}

// CreateMovie validates and stores a new movie.
func (uc *MovieUseCase) CreateMovie(ctx context.Context, movie *Movie) (*Movie, error) {
	if err := ValidateMovie(movie); err != nil {
		return nil, err
	}

	created, err := uc.repo.CreateMovie(ctx, movie)
	if err != nil {
		return nil, fmt.Errorf("failed to create movie: %w", err)
	}

	uc.invalidate(ctx, created.ID)
	uc.log.WithContext(ctx).Infof("created movie: %s (%s)", created.Title, created.ID)
	return created, nil
}

// UpdateMovie validates and replaces an existing movie.
func (uc *MovieUseCase) UpdateMovie(ctx context.Context, movie *Movie) (*Movie, error) {
	if err := ValidateMovie(movie); err != nil {
		return nil, err
	}

	updated, err := uc.repo.UpdateMovie(ctx, movie)
	if err != nil {
		return nil, fmt.Errorf("failed to update movie: %w", err)
	}

	uc.invalidate(ctx, updated.ID)
	uc.log.WithContext(ctx).Infof("updated movie: %s (%s)", updated.Title, updated.ID)
	return updated, nil
}

// DeleteMovie removes a movie.
func (uc *MovieUseCase) DeleteMovie(ctx context.Context, id string) error {
	if err := uc.repo.DeleteMovie(ctx, id); err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}

	uc.invalidate(ctx, id)
	uc.log.WithContext(ctx).Infof("deleted movie: %s", id)
	return nil
}

// CheckHealth pings the store and the cache.
func (uc *MovieUseCase) CheckHealth(ctx context.Context) DependencyHealth {
	var h DependencyHealth
	if err := uc.repo.Ping(ctx); err != nil {
		uc.log.WithContext(ctx).Errorf("database health check failed: %v", err)
	} else {
		h.Database = true
	}
	if err := uc.cache.Ping(ctx); err != nil {
		uc.log.WithContext(ctx).Errorf("cache health check failed: %v", err)
	} else {
		h.Cache = true
	}
	return h
}

// invalidate drops the record key and every cached search page, since any
// search may have included the changed record.
func (uc *MovieUseCase) invalidate(ctx context.Context, id string) {
	if _, err := uc.cache.Delete(ctx, MovieKey(id)); err != nil {
		uc.log.WithContext(ctx).Warnf("cache delete error for movie %s: %v", id, err)
	}
	n, err := uc.cache.InvalidatePattern(ctx, SearchKeyPattern)
	if err != nil {
		uc.log.WithContext(ctx).Warnf("cache pattern invalidation error for %s: %v", SearchKeyPattern, err)
		return
	}
	uc.log.WithContext(ctx).Debugf("invalidated %d cached searches", n)
}

// cacheGet folds every cache failure into a miss.
func (uc *MovieUseCase) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	hit, err := uc.cache.Get(ctx, key, dest)
	if err != nil {
		uc.log.WithContext(ctx).Warnf("cache get error for key %s: %v", key, err)
		return false
	}
	return hit
}

func (uc *MovieUseCase) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if err := uc.cache.Set(ctx, key, value, ttl); err != nil {
		uc.log.WithContext(ctx).Warnf("cache set error for key %s: %v", key, err)
	}
}

func newSearchResult(movies []*Movie, q *MovieSearchQuery, total int64) *MovieSearchResult {
	if movies == nil {
		movies = []*Movie{}
	}
	return &MovieSearchResult{
		Data: movies,
		Pagination: Pagination{
			Limit:  q.Limit,
			Offset: q.Offset,
			Total:  total,
		},
		Total: total,
	}
}
