package data

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"

	"github.com/yixianOu/moviestore/internal/biz"
)

// Movie represents the movies table
type Movie struct {
	ID               string                              `gorm:"primaryKey;size:100"`
	Title            string                              `gorm:"not null;size:500;index:idx_movies_title,expression:LOWER(title)"`
	Year             int                                 `gorm:"not null;index:idx_movies_year"`
	Genre            pq.StringArray                      `gorm:"type:text[];not null;index:idx_movies_genre,type:gin"`
	Cast             datatypes.JSONSlice[biz.CastMember] `gorm:"column:cast_members;type:jsonb;not null;default:'[]'"`
	Director         *string                             `gorm:"size:200;index:idx_movies_director,expression:LOWER(director)"`
	RuntimeMinutes   *int                                `gorm:"column:runtime_minutes"`
	Rating           *string                             `gorm:"size:10;index:idx_movies_rating"`
	ImdbID           *string                             `gorm:"column:imdb_id;size:20;uniqueIndex"`
	BudgetUSD        *int64                              `gorm:"column:budget_usd"`
	BoxOfficeUSD     *int64                              `gorm:"column:box_office_usd"`
	Synopsis         *string                             `gorm:"type:text"`
	PosterURL        *string                             `gorm:"column:poster_url;size:500"`
	TrailerURL       *string                             `gorm:"column:trailer_url;size:500"`
	ProviderMetadata datatypes.JSONMap                   `gorm:"type:jsonb;not null;default:'{}'"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName overrides the table name
func (Movie) TableName() string {
	return "movies"
}

func bizToModel(m *biz.Movie) *Movie {
	genres := make(pq.StringArray, len(m.Genre))
	for i, g := range m.Genre {
		genres[i] = string(g)
	}
	cast := m.Cast
	if cast == nil {
		cast = []biz.CastMember{}
	}
	metadata := datatypes.JSONMap(m.ProviderMetadata)
	if metadata == nil {
		metadata = datatypes.JSONMap{}
	}
	var rating *string
	if m.Rating != nil {
		r := string(*m.Rating)
		rating = &r
	}

	return &Movie{
		ID:               m.ID,
		Title:            m.Title,
		Year:             m.Year,
		Genre:            genres,
		Cast:             datatypes.JSONSlice[biz.CastMember](cast),
		Director:         m.Director,
		RuntimeMinutes:   m.RuntimeMinutes,
		Rating:           rating,
		ImdbID:           m.ImdbID,
		BudgetUSD:        m.BudgetUSD,
		BoxOfficeUSD:     m.BoxOfficeUSD,
		Synopsis:         m.Synopsis,
		PosterURL:        m.PosterURL,
		TrailerURL:       m.TrailerURL,
		ProviderMetadata: metadata,
	}
}

func modelToBiz(m *Movie) *biz.Movie {
	genres := make([]biz.Genre, len(m.Genre))
	for i, g := range m.Genre {
		genres[i] = biz.Genre(g)
	}
	cast := []biz.CastMember(m.Cast)
	if cast == nil {
		cast = []biz.CastMember{}
	}
	metadata := map[string]interface{}(m.ProviderMetadata)
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	var rating *biz.Rating
	if m.Rating != nil {
		r := biz.Rating(*m.Rating)
		rating = &r
	}
	createdAt, updatedAt := m.CreatedAt.UTC(), m.UpdatedAt.UTC()

	return &biz.Movie{
		ID:               m.ID,
		Title:            m.Title,
		Year:             m.Year,
		Genre:            genres,
		Cast:             cast,
		Director:         m.Director,
		RuntimeMinutes:   m.RuntimeMinutes,
		Rating:           rating,
		ImdbID:           m.ImdbID,
		BudgetUSD:        m.BudgetUSD,
		BoxOfficeUSD:     m.BoxOfficeUSD,
		Synopsis:         m.Synopsis,
		PosterURL:        m.PosterURL,
		TrailerURL:       m.TrailerURL,
		ProviderMetadata: metadata,
		CreatedAt:        &createdAt,
		UpdatedAt:        &updatedAt,
	}
}
