package handlers

import (
	"log"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/taskforge-dev/taskforge/db"
	"github.com/taskforge-dev/taskforge/internal/access"
	"github.com/taskforge-dev/taskforge/internal/models"
	"github.com/taskforge-dev/taskforge/internal/types"
	"github.com/taskforge-dev/taskforge/internal/utils"
	"gorm.io/gorm"
)

type CreateProjectRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=100"`
	Description *string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        types.Optional[string] `json:"name"`
	Description types.Optional[string] `json:"description"`
}

type ProjectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProjectListResponse struct {
	Projects   []ProjectResponse `json:"projects"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	TotalPages int               `json:"total_pages"`
}

func projectResponse(project models.Project) ProjectResponse {
	return ProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		OwnerID:     project.OwnerID,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}

func CreateProject(ctx *gin.Context) {
	var req CreateProjectRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		abortValidation(ctx, err)
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project := models.Project{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     userID,
	}

	if err := db.DB.Create(&project).Error; err != nil {
		log.Printf("Failed to create project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, projectResponse(project))
}

func ListProjects(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var page types.PaginationParams

	if err := ctx.ShouldBindQuery(&page); err != nil {
		abortValidation(ctx, err)
		return
	}

	projects, total, err := access.ListProjects(db.DB, userID, page)

	if err != nil {
		log.Printf("Failed to list projects: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := ProjectListResponse{
		Projects:   make([]ProjectResponse, 0, len(projects)),
		Total:      total,
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalPages: types.TotalPages(total, page.PerPage),
	}

	for _, project := range projects {
		response.Projects = append(response.Projects, projectResponse(project))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		// A malformed identifier matches nothing, same as an unknown one.
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	project, err := access.FindOwnedProject(db.DB, userID, projectID)

	if err != nil {
		abortNotFound(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, projectResponse(*project))
}

func UpdateProject(ctx *gin.Context) {
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

	var req UpdateProjectRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		abortValidation(ctx, err)
		return
	}

	project, err := access.FindOwnedProject(db.DB, userID, projectID)

	if err != nil {
		abortNotFound(ctx, err)
		return
	}

	// Only fields present in the payload are applied.
	updates := make(map[string]interface{})

	if req.Name.Set {
		if !req.Name.Valid {
			abortFieldError(ctx, "name", "Must not be null")
			return
		}
		if n := utf8.RuneCountInString(req.Name.Value); n < 1 || n > 100 {
			abortFieldError(ctx, "name", "Must be between 1 and 100 characters")
			return
		}
		updates["name"] = req.Name.Value
	}

	if req.Description.Set {
		if req.Description.Valid {
			updates["description"] = req.Description.Value
		} else {
			updates["description"] = nil
		}
	}

	if len(updates) > 0 {
		if err := db.DB.Model(project).Updates(updates).Error; err != nil {
			log.Printf("Failed to update project %s: %v", project.ID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if err := db.DB.First(project, "id = ?", project.ID).Error; err != nil {
			log.Printf("Failed to reload project %s: %v", project.ID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		BroadcastProjectEvent(project.ID, "project_updated")
	}

	ctx.JSON(http.StatusOK, projectResponse(*project))
}

func DeleteProject(ctx *gin.Context) {
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

	project, err := access.FindOwnedProject(db.DB, userID, projectID)

	if err != nil {
		abortNotFound(ctx, err)
		return
	}

	// Child tasks and the project go in one transaction so a crash mid-cascade
	// cannot orphan tasks.
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		return tx.Delete(project).Error
	})

	if err != nil {
		log.Printf("Failed to delete project %s: %v", project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	BroadcastProjectEvent(project.ID, "project_deleted")

	ctx.Status(http.StatusNoContent)
}
