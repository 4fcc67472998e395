package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-backend/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const recentProjectsLimit = 5

type RecentProject struct {
	ID           uuid.UUID            `json:"id"`
	Title        string               `json:"title"`
	Status       models.ProjectStatus `json:"status"`
	UpdatedAt    time.Time            `json:"updatedAt"`
	Technologies []string             `json:"technologies"`
}

type DashboardStats struct {
	TotalProjects          int64            `json:"totalProjects"`
	TotalTechnologies      int64            `json:"totalTechnologies"`
	ProjectsByStatus       map[string]int64 `json:"projectsByStatus"`
	TechnologiesByCategory map[string]int64 `json:"technologiesByCategory"`
	RecentProjects         []RecentProject  `json:"recentProjects"`
}

type labelCount struct {
	Label string
	Count int64
}

type DashboardRepo struct {
	db *gorm.DB
}

func NewDashboardRepo(db *gorm.DB) *DashboardRepo {
	return &DashboardRepo{db}
}

// Stats aggregates counts and the most recently updated projects. The
// queries run concurrently and the first failure cancels the rest.
func (r *DashboardRepo) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		ProjectsByStatus:       map[string]int64{},
		TechnologiesByCategory: map[string]int64{},
		RecentProjects:         []RecentProject{},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.db.WithContext(ctx).Model(&models.Project{}).Count(&stats.TotalProjects).Error
	})
	g.Go(func() error {
		return r.db.WithContext(ctx).Model(&models.Technology{}).Count(&stats.TotalTechnologies).Error
	})

	var byStatus, byCategory []labelCount
	g.Go(func() error {
		return r.countBy(ctx, &models.Project{}, "status", &byStatus)
	})
	g.Go(func() error {
		return r.countBy(ctx, &models.Technology{}, "category", &byCategory)
	})

	var recent []*models.Project
	g.Go(func() error {
		return r.db.WithContext(ctx).
			Preload("ProjectTechnologies", func(db *gorm.DB) *gorm.DB {
				return db.Order("created_at ASC")
			}).
			Preload("ProjectTechnologies.Technology").
			Order("updated_at DESC").
			Limit(recentProjectsLimit).
			Find(&recent).Error
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, row := range byStatus {
		stats.ProjectsByStatus[row.Label] = row.Count
	}
	for _, row := range byCategory {
		stats.TechnologiesByCategory[row.Label] = row.Count
	}
	for _, p := range recent {
		stats.RecentProjects = append(stats.RecentProjects, RecentProject{
			ID:           p.ID,
			Title:        p.Title,
			Status:       p.Status,
			UpdatedAt:    p.UpdatedAt,
			Technologies: p.TechnologyNames(),
		})
	}
	return stats, nil
}

func (r *DashboardRepo) countBy(ctx context.Context, model interface{}, column string, out *[]labelCount) error {
	return r.db.WithContext(ctx).
		Model(model).
		Select(column + " AS label, COUNT(*) AS count").
		Group(column).
		Scan(out).Error
}
