package handlers

import (
	"log"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskforge-dev/taskforge/db"
	"github.com/taskforge-dev/taskforge/internal/access"
	"github.com/taskforge-dev/taskforge/internal/models"
	"github.com/taskforge-dev/taskforge/internal/types"
	"github.com/taskforge-dev/taskforge/internal/utils"
)

type CreateTaskRequest struct {
	Title       string              `json:"title" binding:"required,min=1,max=200"`
	Description *string             `json:"description"`
	Status      models.TaskStatus   `json:"status" binding:"omitempty,oneof=todo in_progress done"`
	Priority    models.TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *time.Time          `json:"due_date"`
	AssigneeID  *string             `json:"assignee_id"`
}

type UpdateTaskRequest struct {
	Title       types.Optional[string]    `json:"title"`
	Description types.Optional[string]    `json:"description"`
	Status      types.Optional[string]    `json:"status"`
	Priority    types.Optional[string]    `json:"priority"`
	DueDate     types.Optional[time.Time] `json:"due_date"`
	AssigneeID  types.Optional[string]    `json:"assignee_id"`
}

type ListTasksQuery struct {
	types.PaginationParams

	Status   string `form:"status" binding:"omitempty,oneof=todo in_progress done"`
	Priority string `form:"priority" binding:"omitempty,oneof=low medium high"`
	SortBy   string `form:"sort_by,default=created_at" binding:"oneof=created_at due_date priority"`
	Order    string `form:"order,default=desc" binding:"oneof=asc desc"`
}

type TaskResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description *string             `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
	ProjectID   string              `json:"project_id"`
	AssigneeID  *string             `json:"assignee_id"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

type TaskListResponse struct {
	Tasks      []TaskResponse `json:"tasks"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PerPage    int            `json:"per_page"`
	TotalPages int            `json:"total_pages"`
}

func taskResponse(task models.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		ProjectID:   task.ProjectID,
		AssigneeID:  task.AssigneeID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// assigneeExists checks the weak reference on create/update. The assignee does
// not need any relationship to the owning project, only to exist.
func assigneeExists(assigneeID string) (bool, error) {
	if _, err := uuid.Parse(assigneeID); err != nil {
		return false, nil
	}

	var count int64

	err := db.DB.Model(&models.User{}).Where("id = ?", assigneeID).Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func CreateTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	var req CreateTaskRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		abortValidation(ctx, err)
		return
	}

	if _, err := access.FindOwnedProject(db.DB, userID, projectID); err != nil {
		abortNotFound(ctx, err)
		return
	}

	if req.Status == "" {
		req.Status = models.StatusTodo
	}

	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}

	if req.AssigneeID != nil && *req.AssigneeID == "" {
		req.AssigneeID = nil
	}

	if req.AssigneeID != nil {
		exists, err := assigneeExists(*req.AssigneeID)

		if err != nil {
			log.Printf("Failed to check assignee %s: %v", *req.AssigneeID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if !exists {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Assignee not found"})
			return
		}
	}

	task := models.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		ProjectID:   projectID,
		AssigneeID:  req.AssigneeID,
	}

	if err := db.DB.Create(&task).Error; err != nil {
		log.Printf("Failed to create task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	BroadcastProjectEvent(projectID, "task_created")

	ctx.JSON(http.StatusCreated, taskResponse(task))
}

func ListTasks(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	var query ListTasksQuery

	if err := ctx.ShouldBindQuery(&query); err != nil {
		abortValidation(ctx, err)
		return
	}

	if _, err := access.FindOwnedProject(db.DB, userID, projectID); err != nil {
		abortNotFound(ctx, err)
		return
	}

	filter := access.TaskFilter{Status: query.Status, Priority: query.Priority}
	sort := access.TaskSort{Key: query.SortBy, Order: query.Order}

	tasks, total, err := access.ListTasks(db.DB, projectID, filter, sort, query.PaginationParams)

	if err != nil {
		log.Printf("Failed to list tasks for project %s: %v", projectID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := TaskListResponse{
		Tasks:      make([]TaskResponse, 0, len(tasks)),
		Total:      total,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: types.TotalPages(total, query.PerPage),
	}

	for _, task := range tasks {
		response.Tasks = append(response.Tasks, taskResponse(task))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, taskID, err := utils.GetProjectTaskID(ctx)

	if err != nil {
		abortInvalidTaskPath(ctx, userID)
		return
	}

	task, err := access.FindProjectTask(db.DB, userID, projectID, taskID)

	if err != nil {
		abortNotFound(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, taskResponse(*task))
}

func UpdateTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, taskID, err := utils.GetProjectTaskID(ctx)

	if err != nil {
		abortInvalidTaskPath(ctx, userID)
		return
	}

	var req UpdateTaskRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		abortValidation(ctx, err)
		return
	}

	task, err := access.FindProjectTask(db.DB, userID, projectID, taskID)

	if err != nil {
		abortNotFound(ctx, err)
		return
	}

	// Only fields present in the payload are applied; an explicit null clears
	// a nullable column and never touches the rest.
	updates := make(map[string]interface{})

	if req.Title.Set {
		if !req.Title.Valid {
			abortFieldError(ctx, "title", "Must not be null")
			return
		}
		if n := utf8.RuneCountInString(req.Title.Value); n < 1 || n > 200 {
			abortFieldError(ctx, "title", "Must be between 1 and 200 characters")
			return
		}
		updates["title"] = req.Title.Value
	}

	if req.Description.Set {
		if req.Description.Valid {
			updates["description"] = req.Description.Value
		} else {
			updates["description"] = nil
		}
	}

	if req.Status.Set {
		if !req.Status.Valid || !models.TaskStatus(req.Status.Value).Valid() {
			abortFieldError(ctx, "status", "Must be one of: todo in_progress done")
			return
		}
		updates["status"] = req.Status.Value
	}

	if req.Priority.Set {
		if !req.Priority.Valid || !models.TaskPriority(req.Priority.Value).Valid() {
			abortFieldError(ctx, "priority", "Must be one of: low medium high")
			return
		}
		updates["priority"] = req.Priority.Value
	}

	if req.DueDate.Set {
		if req.DueDate.Valid {
			updates["due_date"] = req.DueDate.Value
		} else {
			updates["due_date"] = nil
		}
	}

	if req.AssigneeID.Set {
		if req.AssigneeID.Valid && req.AssigneeID.Value != "" {
			exists, err := assigneeExists(req.AssigneeID.Value)

			if err != nil {
				log.Printf("Failed to check assignee %s: %v", req.AssigneeID.Value, err)
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}

			if !exists {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Assignee not found"})
				return
			}

			updates["assignee_id"] = req.AssigneeID.Value
		} else {
			updates["assignee_id"] = nil
		}
	}

	if len(updates) > 0 {
		if err := db.DB.Model(task).Updates(updates).Error; err != nil {
			log.Printf("Failed to update task %s: %v", task.ID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if err := db.DB.First(task, "id = ?", task.ID).Error; err != nil {
			log.Printf("Failed to reload task %s: %v", task.ID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		BroadcastProjectEvent(projectID, "task_updated")
	}

	ctx.JSON(http.StatusOK, taskResponse(*task))
}

func DeleteTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, taskID, err := utils.GetProjectTaskID(ctx)

	if err != nil {
		abortInvalidTaskPath(ctx, userID)
		return
	}

	task, err := access.FindProjectTask(db.DB, userID, projectID, taskID)

	if err != nil {
		abortNotFound(ctx, err)
		return
	}

	if err := db.DB.Delete(task).Error; err != nil {
		log.Printf("Failed to delete task %s: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	BroadcastProjectEvent(projectID, "task_deleted")

	ctx.Status(http.StatusNoContent)
}

// abortInvalidTaskPath keeps malformed path identifiers indistinguishable from
// unknown ones. The project is resolved first, matching the scoping order in
// access.FindProjectTask, so a foreign project never reports on its tasks.
func abortInvalidTaskPath(ctx *gin.Context, userID string) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	if _, err := access.FindOwnedProject(db.DB, userID, projectID); err != nil {
		abortNotFound(ctx, err)
		return
	}

	ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
}
