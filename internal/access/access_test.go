package access

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskforge-dev/taskforge/internal/models"
	"github.com/taskforge-dev/taskforge/internal/types"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, gdb.AutoMigrate(&models.User{}, &models.Project{}, &models.Task{}))

	return gdb
}

func createUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()

	user := models.User{
		Email:        email,
		PasswordHash: "x",
		FullName:     "Test User",
		IsActive:     true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createProject(t *testing.T, db *gorm.DB, ownerID string, name string) models.Project {
	t.Helper()

	project := models.Project{Name: name, OwnerID: ownerID}
	require.NoError(t, db.Create(&project).Error)
	return project
}

func createTask(t *testing.T, db *gorm.DB, task models.Task) models.Task {
	t.Helper()

	require.NoError(t, db.Create(&task).Error)
	return task
}

func TestFindOwnedProject(t *testing.T) {
	db := openTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	other := createUser(t, db, "other@example.com")
	project := createProject(t, db, owner.ID, "P1")

	found, err := FindOwnedProject(db, owner.ID, project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, found.ID)

	// Another user's lookup is indistinguishable from a missing project.
	_, err = FindOwnedProject(db, other.ID, project.ID)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Project", nf.Subject)
	assert.Equal(t, "Project not found", nf.Error())

	_, err = FindOwnedProject(db, owner.ID, uuid.NewString())
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Project", nf.Subject)
}

func TestFindProjectTask(t *testing.T) {
	db := openTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	other := createUser(t, db, "other@example.com")
	project := createProject(t, db, owner.ID, "P1")
	task := createTask(t, db, models.Task{
		Title:     "T1",
		Status:    models.StatusTodo,
		Priority:  models.PriorityMedium,
		ProjectID: project.ID,
	})

	found, err := FindProjectTask(db, owner.ID, project.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, found.ID)

	var nf *NotFoundError

	// A foreign project hides the task entirely.
	_, err = FindProjectTask(db, other.ID, project.ID, task.ID)
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Project", nf.Subject)

	// An owned project with an unknown task reports the task.
	_, err = FindProjectTask(db, owner.ID, project.ID, uuid.NewString())
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Task", nf.Subject)

	// A task that lives under a different owned project is not reachable
	// through this one.
	otherProject := createProject(t, db, owner.ID, "P2")
	_, err = FindProjectTask(db, owner.ID, otherProject.ID, task.ID)
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Task", nf.Subject)
}

func TestListTasks_Filters(t *testing.T) {
	db := openTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	project := createProject(t, db, owner.ID, "P1")

	createTask(t, db, models.Task{Title: "T1", Status: models.StatusTodo, Priority: models.PriorityLow, ProjectID: project.ID})
	createTask(t, db, models.Task{Title: "T2", Status: models.StatusTodo, Priority: models.PriorityHigh, ProjectID: project.ID})
	createTask(t, db, models.Task{Title: "T3", Status: models.StatusDone, Priority: models.PriorityHigh, ProjectID: project.ID})

	page := types.PaginationParams{Page: 1, PerPage: 10}
	sort := TaskSort{Key: "created_at", Order: "desc"}

	tasks, total, err := ListTasks(db, project.ID, TaskFilter{}, sort, page)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, tasks, 3)

	tasks, total, err = ListTasks(db, project.ID, TaskFilter{Priority: "high"}, sort, page)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, tasks, 2)

	tasks, total, err = ListTasks(db, project.ID, TaskFilter{Status: "todo", Priority: "high"}, sort, page)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, tasks, 1)
	assert.Equal(t, "T2", tasks[0].Title)

	_, total, err = ListTasks(db, project.ID, TaskFilter{Status: "in_progress"}, sort, page)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestListTasks_TotalIndependentOfPage(t *testing.T) {
	db := openTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	project := createProject(t, db, owner.ID, "P1")

	for i := 0; i < 15; i++ {
		createTask(t, db, models.Task{
			Title:     fmt.Sprintf("T%d", i+1),
			Status:    models.StatusTodo,
			Priority:  models.PriorityMedium,
			ProjectID: project.ID,
		})
	}

	sort := TaskSort{Key: "created_at", Order: "desc"}

	tasks, total, err := ListTasks(db, project.ID, TaskFilter{}, sort, types.PaginationParams{Page: 2, PerPage: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 15, total)
	assert.Len(t, tasks, 5)

	tasks, total, err = ListTasks(db, project.ID, TaskFilter{}, sort, types.PaginationParams{Page: 4, PerPage: 5})
	require.NoError(t, err)
	assert.EqualValues(t, 15, total)
	assert.Len(t, tasks, 0)
}

func TestListTasks_PrioritySortsByLabel(t *testing.T) {
	db := openTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	project := createProject(t, db, owner.ID, "P1")

	createTask(t, db, models.Task{Title: "medium", Priority: models.PriorityMedium, Status: models.StatusTodo, ProjectID: project.ID})
	createTask(t, db, models.Task{Title: "high", Priority: models.PriorityHigh, Status: models.StatusTodo, ProjectID: project.ID})
	createTask(t, db, models.Task{Title: "low", Priority: models.PriorityLow, Status: models.StatusTodo, ProjectID: project.ID})

	page := types.PaginationParams{Page: 1, PerPage: 10}

	// Stored labels compare lexically: high < low < medium.
	tasks, _, err := ListTasks(db, project.ID, TaskFilter{}, TaskSort{Key: "priority", Order: "asc"}, page)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, models.PriorityHigh, tasks[0].Priority)
	assert.Equal(t, models.PriorityLow, tasks[1].Priority)
	assert.Equal(t, models.PriorityMedium, tasks[2].Priority)
}

func TestListTasks_DueDateSort(t *testing.T) {
	db := openTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	project := createProject(t, db, owner.ID, "P1")

	later := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	sooner := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	createTask(t, db, models.Task{Title: "later", DueDate: &later, Status: models.StatusTodo, Priority: models.PriorityMedium, ProjectID: project.ID})
	createTask(t, db, models.Task{Title: "sooner", DueDate: &sooner, Status: models.StatusTodo, Priority: models.PriorityMedium, ProjectID: project.ID})

	page := types.PaginationParams{Page: 1, PerPage: 10}

	tasks, _, err := ListTasks(db, project.ID, TaskFilter{}, TaskSort{Key: "due_date", Order: "asc"}, page)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "sooner", tasks[0].Title)
	assert.Equal(t, "later", tasks[1].Title)
}

func TestListProjects(t *testing.T) {
	db := openTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	other := createUser(t, db, "other@example.com")

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		project := models.Project{Name: fmt.Sprintf("P%d", i+1), OwnerID: owner.ID}
		project.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, db.Create(&project).Error)
	}
	createProject(t, db, other.ID, "foreign")

	projects, total, err := ListProjects(db, owner.ID, types.PaginationParams{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, projects, 2)
	assert.Equal(t, "P3", projects[0].Name)
	assert.Equal(t, "P2", projects[1].Name)

	projects, total, err = ListProjects(db, owner.ID, types.PaginationParams{Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, projects, 1)
	assert.Equal(t, "P1", projects[0].Name)
}
