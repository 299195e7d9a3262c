package biz

import "testing"

func TestCacheKey(t *testing.T) {
	tests := []struct {
		prefix string
		args   []interface{}
		want   string
	}{
		{"movie", []interface{}{"tt0111161"}, "movie:tt0111161"},
		{"search", []interface{}{"", 1994, 20, 0}, "search::1994:20:0"},
		{"movie", []interface{}{"a:b"}, `movie:a\:b`},
		{"movie", []interface{}{`a\`, "b"}, `movie:a\\:b`},
	}
	for _, tt := range tests {
		if got := CacheKey(tt.prefix, tt.args...); got != tt.want {
			t.Errorf("CacheKey(%q, %v) = %q, want %q", tt.prefix, tt.args, got, tt.want)
		}
	}
}

func TestCacheKeyEscapingKeepsArgumentsDistinct(t *testing.T) {
	a := CacheKey("search", "a:b", "c")
	b := CacheKey("search", "a", "b:c")
	if a == b {
		t.Fatalf("distinct argument lists share key %q", a)
	}
}

func TestSearchKey(t *testing.T) {
	q := &MovieSearchQuery{
		MovieFilter: MovieFilter{Year: intPtr(1994), Genre: []Genre{GenreDrama, GenreCrime}},
		Limit:       10,
	}
	same := &MovieSearchQuery{
		MovieFilter: MovieFilter{Year: intPtr(1994), Genre: []Genre{GenreCrime, GenreDrama}},
		Limit:       10,
	}
	if SearchKey(q) != SearchKey(same) {
		t.Errorf("genre order changed the key: %q vs %q", SearchKey(q), SearchKey(same))
	}
	if SearchKey(q) != SearchKey(q) {
		t.Error("key is not deterministic")
	}

	nextPage := *q
	nextPage.Offset = 10
	if SearchKey(q) == SearchKey(&nextPage) {
		t.Error("different offsets share a key")
	}

	titled := *q
	titled.Title = strPtr("Shawshank")
	if SearchKey(q) == SearchKey(&titled) {
		t.Error("title filter did not change the key")
	}

	if want := "search::1994:Crime|Drama::::10:0"; SearchKey(q) != want {
		t.Errorf("SearchKey = %q, want %q", SearchKey(q), want)
	}
}

func TestMovieKey(t *testing.T) {
	if got := MovieKey("tt0111161"); got != "movie:tt0111161" {
		t.Errorf("MovieKey = %q", got)
	}
}
