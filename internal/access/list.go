package access

import (
	"github.com/taskforge-dev/taskforge/internal/models"
	"github.com/taskforge-dev/taskforge/internal/types"
	"gorm.io/gorm"
)

// TaskFilter holds the optional exact-match predicates for task listing.
// Empty fields apply no constraint; both set means logical AND.
type TaskFilter struct {
	Status   string
	Priority string
}

// TaskSort carries an already-whitelisted sort key (created_at, due_date or
// priority) and direction (asc or desc). Validation happens at the binding
// layer; values are interpolated into ORDER BY. Priority sorts by its stored
// string label, so ascending order is high, low, medium.
type TaskSort struct {
	Key   string
	Order string
}

// ListTasks returns one page of the project's tasks plus the total count over
// the same filtered set. Count and fetch share the filter conditions and run
// sequentially; divergence under concurrent writers is accepted.
func ListTasks(db *gorm.DB, projectID string, filter TaskFilter, sort TaskSort, page types.PaginationParams) ([]models.Task, int64, error) {
	query := db.Model(&models.Task{}).Where("project_id = ?", projectID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}

	query = query.Session(&gorm.Session{})

	var total int64

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	tasks := make([]models.Task, 0)

	err := query.Order(sort.Key + " " + sort.Order).
		Limit(page.PerPage).
		Offset(page.Offset()).
		Find(&tasks).Error

	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// ListProjects returns one page of the caller's projects, newest first, plus
// the total count of projects they own.
func ListProjects(db *gorm.DB, ownerID string, page types.PaginationParams) ([]models.Project, int64, error) {
	query := db.Model(&models.Project{}).
		Where("owner_id = ?", ownerID).
		Session(&gorm.Session{})

	var total int64

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	projects := make([]models.Project, 0)

	err := query.Order("created_at DESC").
		Limit(page.PerPage).
		Offset(page.Offset()).
		Find(&projects).Error

	if err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}
