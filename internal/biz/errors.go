package biz

import "errors"

var (
	ErrMovieNotFound      = errors.New("movie not found")
	ErrMovieAlreadyExists = errors.New("movie already exists")
	ErrStoreUnavailable   = errors.New("record store unavailable")

	ErrCacheUnavailable = errors.New("cache unavailable")
	ErrCacheCorrupt     = errors.New("cache entry corrupt")

	ErrUnknownEnvelope = errors.New("unknown notification format")
)
