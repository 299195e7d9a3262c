//go:build integration

package data

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/yixianOu/moviestore/internal/biz"
	"github.com/yixianOu/moviestore/internal/conf"
)

func skipIfNoDocker(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

func newIntegrationRepo(t *testing.T) biz.MovieRepo {
	t.Helper()
	skipIfNoDocker(t)
	ctx := context.Background()

	pg, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("movies"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, pg)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	logger := log.NewStdLogger(io.Discard)
	d, cleanup, err := NewData(&conf.Data{
		Database: &conf.Data_Database{Source: dsn, AutoMigrate: true},
	}, logger)
	if err != nil {
		t.Fatalf("NewData: %v", err)
	}
	t.Cleanup(cleanup)
	return NewMovieRepo(d, logger)
}

func seedMovie(id, title string, year int, genres ...biz.Genre) *biz.Movie {
	return &biz.Movie{
		ID:    id,
		Title: title,
		Year:  year,
		Genre: genres,
		Cast:  []biz.CastMember{{Name: title + " Lead", Role: "Actor"}},
	}
}

func TestMovieRepoIntegration(t *testing.T) {
	repo := newIntegrationRepo(t)
	ctx := context.Background()

	for _, m := range []*biz.Movie{
		seedMovie("tt0111161", "The Shawshank Redemption", 1994, biz.GenreDrama),
		seedMovie("tt0110912", "Pulp Fiction", 1994, biz.GenreCrime, biz.GenreDrama),
		seedMovie("tt0068646", "The Godfather", 1972, biz.GenreCrime),
		seedMovie("tt9999999", "100% Pure_Test", 2001, biz.GenreComedy),
	} {
		if _, err := repo.CreateMovie(ctx, m); err != nil {
			t.Fatalf("CreateMovie %s: %v", m.ID, err)
		}
	}

	t.Run("duplicate id", func(t *testing.T) {
		_, err := repo.CreateMovie(ctx, seedMovie("tt0111161", "Again", 1994, biz.GenreDrama))
		if !errors.Is(err, biz.ErrMovieAlreadyExists) {
			t.Fatalf("expected ErrMovieAlreadyExists, got %v", err)
		}
	})

	t.Run("get", func(t *testing.T) {
		m, err := repo.GetMovieByID(ctx, "tt0110912")
		if err != nil {
			t.Fatalf("GetMovieByID: %v", err)
		}
		if len(m.Genre) != 2 || len(m.Cast) != 1 || m.CreatedAt == nil {
			t.Errorf("unexpected movie %+v", m)
		}
		if _, err := repo.GetMovieByID(ctx, "missing"); !errors.Is(err, biz.ErrMovieNotFound) {
			t.Errorf("expected ErrMovieNotFound, got %v", err)
		}
	})

	t.Run("search pagination", func(t *testing.T) {
		year := 1994
		movies, total, err := repo.SearchMovies(ctx, &biz.MovieFilter{Year: &year}, 1, 0)
		if err != nil {
			t.Fatalf("SearchMovies: %v", err)
		}
		if total != 2 || len(movies) != 1 || movies[0].Title != "Pulp Fiction" {
			t.Errorf("unexpected page total=%d movies=%+v", total, movies)
		}
	})

	t.Run("search filters", func(t *testing.T) {
		title, cast := "godfather", "shawshank redemption lead"
		tests := []struct {
			name   string
			filter biz.MovieFilter
			want   int64
		}{
			{"title substring", biz.MovieFilter{Title: &title}, 1},
			{"genre overlap", biz.MovieFilter{Genre: []biz.Genre{biz.GenreCrime, biz.GenreComedy}}, 3},
			{"cast name", biz.MovieFilter{Cast: &cast}, 1},
			{"no match", biz.MovieFilter{Genre: []biz.Genre{biz.GenreWestern}}, 0},
		}
		for _, tt := range tests {
			_, total, err := repo.SearchMovies(ctx, &tt.filter, 20, 0)
			if err != nil {
				t.Fatalf("%s: %v", tt.name, err)
			}
			if total != tt.want {
				t.Errorf("%s: expected %d matches, got %d", tt.name, tt.want, total)
			}
		}
	})

	t.Run("like wildcards are literal", func(t *testing.T) {
		pct := "0%"
		_, total, err := repo.SearchMovies(ctx, &biz.MovieFilter{Title: &pct}, 20, 0)
		if err != nil {
			t.Fatalf("SearchMovies: %v", err)
		}
		if total != 1 {
			t.Errorf("expected literal %% match, got %d", total)
		}
	})

	t.Run("update", func(t *testing.T) {
		before, err := repo.GetMovieByID(ctx, "tt0068646")
		if err != nil {
			t.Fatalf("GetMovieByID: %v", err)
		}
		changed := seedMovie("tt0068646", "The Godfather Part I", 1972, biz.GenreCrime, biz.GenreDrama)
		after, err := repo.UpdateMovie(ctx, changed)
		if err != nil {
			t.Fatalf("UpdateMovie: %v", err)
		}
		if after.Title != "The Godfather Part I" || len(after.Genre) != 2 {
			t.Errorf("update not applied: %+v", after)
		}
		if !after.CreatedAt.Equal(*before.CreatedAt) {
			t.Errorf("created_at changed: %v -> %v", before.CreatedAt, after.CreatedAt)
		}
		if _, err := repo.UpdateMovie(ctx, seedMovie("missing", "X", 2000, biz.GenreDrama)); !errors.Is(err, biz.ErrMovieNotFound) {
			t.Errorf("expected ErrMovieNotFound, got %v", err)
		}
	})

	t.Run("get by ids", func(t *testing.T) {
		movies, err := repo.GetMoviesByIDs(ctx, []string{"tt0068646", "tt0111161", "missing"})
		if err != nil {
			t.Fatalf("GetMoviesByIDs: %v", err)
		}
		if len(movies) != 2 || movies[0].ID != "tt0111161" {
			t.Errorf("unexpected movies %+v", movies)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := repo.DeleteMovie(ctx, "tt9999999"); err != nil {
			t.Fatalf("DeleteMovie: %v", err)
		}
		if err := repo.DeleteMovie(ctx, "tt9999999"); !errors.Is(err, biz.ErrMovieNotFound) {
			t.Errorf("expected ErrMovieNotFound, got %v", err)
		}
	})

	t.Run("ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping: %v", err)
		}
	})
}
