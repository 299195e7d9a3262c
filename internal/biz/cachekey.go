package biz

import (
	"fmt"
	"sort"
	"strings"
)

const (
	movieKeyPrefix  = "movie"
	searchKeyPrefix = "search"

	// SearchKeyPattern matches every cached search result.
	SearchKeyPattern = searchKeyPrefix + ":*"
)

var keyEscaper = strings.NewReplacer(`\`, `\\`, `:`, `\:`)

// CacheKey joins prefix and args with colons. Colons inside string arguments
// are escaped so distinct argument lists never share a key.
func CacheKey(prefix string, args ...interface{}) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = keyEscaper.Replace(fmt.Sprint(arg))
	}
	return prefix + ":" + strings.Join(parts, ":")
}

// MovieKey is the cache key of a single record.
func MovieKey(id string) string {
	return CacheKey(movieKeyPrefix, id)
}

// SearchKey fingerprints a search query in fixed field order. Genres are
// sorted because the genre filter is a set overlap.
func SearchKey(q *MovieSearchQuery) string {
	genres := make([]string, len(q.Genre))
	for i, g := range q.Genre {
		genres[i] = string(g)
	}
	sort.Strings(genres)

	year := ""
	if q.Year != nil {
		year = fmt.Sprint(*q.Year)
	}
	rating := ""
	if q.Rating != nil {
		rating = string(*q.Rating)
	}

	return CacheKey(searchKeyPrefix,
		deref(q.Title),
		year,
		strings.Join(genres, "|"),
		deref(q.Cast),
		deref(q.Director),
		rating,
		q.Limit,
		q.Offset,
	)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
