package data

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/yixianOu/moviestore/internal/biz"
)

type movieRepo struct {
	data *Data
	log  *log.Helper
}

// NewMovieRepo creates a new movie repository
func NewMovieRepo(data *Data, logger log.Logger) biz.MovieRepo {
	return &movieRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *movieRepo) CreateMovie(ctx context.Context, movie *biz.Movie) (*biz.Movie, error) {
	dbMovie := bizToModel(movie)

	if err := r.data.db.WithContext(ctx).Create(dbMovie).Error; err != nil {
		return nil, storeError("create movie", err)
	}
	return modelToBiz(dbMovie), nil
}

func (r *movieRepo) GetMovieByID(ctx context.Context, id string) (*biz.Movie, error) {
	var dbMovie Movie
	if err := r.data.db.WithContext(ctx).Where("id = ?", id).First(&dbMovie).Error; err != nil {
		return nil, storeError("get movie", err)
	}
	return modelToBiz(&dbMovie), nil
}

func (r *movieRepo) GetMoviesByIDs(ctx context.Context, ids []string) ([]*biz.Movie, error) {
	if len(ids) == 0 {
		return []*biz.Movie{}, nil
	}

	var dbMovies []Movie
	err := r.data.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("year DESC").Order("title ASC").Order("id ASC").
		Find(&dbMovies).Error
	if err != nil {
		return nil, storeError("get movies", err)
	}
	return toBizMovies(dbMovies), nil
}

// UpdateMovie overwrites every column except id and created_at.
func (r *movieRepo) UpdateMovie(ctx context.Context, movie *biz.Movie) (*biz.Movie, error) {
	dbMovie := bizToModel(movie)

	var updated Movie
	err := r.data.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Movie{}).
			Where("id = ?", movie.ID).
			Select("*").
			Omit("id", "created_at").
			Updates(dbMovie)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", movie.ID).First(&updated).Error
	})
	if err != nil {
		return nil, storeError("update movie", err)
	}
	return modelToBiz(&updated), nil
}

func (r *movieRepo) DeleteMovie(ctx context.Context, id string) error {
	res := r.data.db.WithContext(ctx).Where("id = ?", id).Delete(&Movie{})
	if res.Error != nil {
		return storeError("delete movie", res.Error)
	}
	if res.RowsAffected == 0 {
		return biz.ErrMovieNotFound
	}
	return nil
}

// SearchMovies counts and pages inside one snapshot so total and data agree.
func (r *movieRepo) SearchMovies(ctx context.Context, filter *biz.MovieFilter, limit, offset int) ([]*biz.Movie, int64, error) {
	var (
		total    int64
		dbMovies []Movie
	)
	err := r.data.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyFilter(tx.Model(&Movie{}), filter).Count(&total).Error; err != nil {
			return err
		}
		if total == 0 || int64(offset) >= total {
			return nil
		}
		return applyFilter(tx.Model(&Movie{}), filter).
			Order("year DESC").Order("title ASC").Order("id ASC").
			Limit(limit).
			Offset(offset).
			Find(&dbMovies).Error
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, 0, storeError("search movies", err)
	}

	r.log.Debugf("search matched %d movies, returning %d", total, len(dbMovies))
	return toBizMovies(dbMovies), total, nil
}

func (r *movieRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.data.db.DB()
	if err != nil {
		return storeError("ping", err)
	}
	return storeError("ping", sqlDB.PingContext(ctx))
}

// applyFilter adds one predicate per set field. Text filters are
// case-insensitive substring matches.
func applyFilter(db *gorm.DB, f *biz.MovieFilter) *gorm.DB {
	if f == nil {
		return db
	}
	if f.Title != nil {
		db = db.Where("title ILIKE ?", likePattern(*f.Title))
	}
	if f.Year != nil {
		db = db.Where("year = ?", *f.Year)
	}
	if len(f.Genre) > 0 {
		genres := make(pq.StringArray, len(f.Genre))
		for i, g := range f.Genre {
			genres[i] = string(g)
		}
		db = db.Where("genre && ?::text[]", genres)
	}
	if f.Director != nil {
		db = db.Where("director ILIKE ?", likePattern(*f.Director))
	}
	if f.Rating != nil {
		db = db.Where("rating = ?", string(*f.Rating))
	}
	if f.Cast != nil {
		db = db.Where(
			`EXISTS (SELECT 1 FROM jsonb_array_elements(CASE WHEN jsonb_typeof(cast_members) = 'array' THEN cast_members ELSE '[]'::jsonb END) AS c WHERE c->>'name' ILIKE ?)`,
			likePattern(*f.Cast),
		)
	}
	return db
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns user input into a literal substring pattern.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func toBizMovies(dbMovies []Movie) []*biz.Movie {
	movies := make([]*biz.Movie, 0, len(dbMovies))
	for i := range dbMovies {
		movies = append(movies, modelToBiz(&dbMovies[i]))
	}
	return movies
}
