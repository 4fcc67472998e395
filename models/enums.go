package models

// ProjectStatus is the lifecycle label of a project. Any value may be set to
// any other value; there is no enforced transition order.
type ProjectStatus string

const (
	ProjectStatusDevelopment ProjectStatus = "Development"
	ProjectStatusBeta        ProjectStatus = "Beta"
	ProjectStatusLive        ProjectStatus = "Live"
	ProjectStatusArchived    ProjectStatus = "Archived"
)

// ProjectStatuses lists every allowed status in display order.
var ProjectStatuses = []ProjectStatus{
	ProjectStatusDevelopment,
	ProjectStatusBeta,
	ProjectStatusLive,
	ProjectStatusArchived,
}

func (s ProjectStatus) Valid() bool {
	for _, status := range ProjectStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// TechnologyCategory groups technologies on the skills section.
type TechnologyCategory string

const (
	TechnologyCategoryFrontend TechnologyCategory = "Frontend"
	TechnologyCategoryBackend  TechnologyCategory = "Backend"
	TechnologyCategoryDatabase TechnologyCategory = "Database"
	TechnologyCategoryCloud    TechnologyCategory = "Cloud"
	TechnologyCategoryDevOps   TechnologyCategory = "DevOps"
)

var TechnologyCategories = []TechnologyCategory{
	TechnologyCategoryFrontend,
	TechnologyCategoryBackend,
	TechnologyCategoryDatabase,
	TechnologyCategoryCloud,
	TechnologyCategoryDevOps,
}

func (c TechnologyCategory) Valid() bool {
	for _, category := range TechnologyCategories {
		if c == category {
			return true
		}
	}
	return false
}
