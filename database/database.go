package database

import (
	"context"

	"github.com/rpupo63/portfolio-backend/models"
	"gorm.io/gorm"
)

type Database struct {
	db             *gorm.DB
	uploadRepo     *UploadRepo
	projectRepo    *ProjectRepo
	technologyRepo *TechnologyRepo
	messageRepo    *MessageRepo
	dashboardRepo  *DashboardRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		db:             db,
		uploadRepo:     NewUploadRepo(db),
		projectRepo:    NewProjectRepo(db),
		technologyRepo: NewTechnologyRepo(db),
		messageRepo:    NewMessageRepo(db),
		dashboardRepo:  NewDashboardRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) UploadRepo() *UploadRepo {
	return d.uploadRepo
}

func (d Database) ProjectRepo() *ProjectRepo {
	return d.projectRepo
}

func (d Database) TechnologyRepo() *TechnologyRepo {
	return d.technologyRepo
}

func (d Database) MessageRepo() *MessageRepo {
	return d.messageRepo
}

func (d Database) DashboardRepo() *DashboardRepo {
	return d.dashboardRepo
}

// Ping checks that the connection pool can reach the database
func (d Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate creates or updates every table of the schema
func Migrate(db *gorm.DB) error {
	return models.AutoMigrate(db)
}
