package repository

import (
	"context"

	"github.com/smallbiznis/profitlens/internal/source/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, source *domain.DataSource) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(source).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.DataSource{}).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]*domain.DataSource, error) {
	var sources []*domain.DataSource
	err := db.WithContext(ctx).
		Model(&domain.DataSource{}).
		Order("created_at ASC").
		Order("id ASC").
		Find(&sources).Error
	if err != nil {
		return nil, err
	}
	return sources, nil
}
