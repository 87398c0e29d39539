package utils

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetProjectID reads and validates the project_id path parameter.
func GetProjectID(ctx *gin.Context) (string, error) {
	projectID := ctx.Param("project_id")

	if projectID == "" {
		return "", errors.New("Project ID not found")
	}

	if _, err := uuid.Parse(projectID); err != nil {
		return "", errors.New("Invalid Project ID")
	}

	return projectID, nil
}

// GetTaskID reads and validates the task_id path parameter.
func GetTaskID(ctx *gin.Context) (string, error) {
	taskID := ctx.Param("task_id")

	if taskID == "" {
		return "", errors.New("Task ID not found")
	}

	if _, err := uuid.Parse(taskID); err != nil {
		return "", errors.New("Invalid Task ID")
	}

	return taskID, nil
}

func GetProjectTaskID(ctx *gin.Context) (string, string, error) {
	projectID, err := GetProjectID(ctx)

	if err != nil {
		return "", "", err
	}

	taskID, err := GetTaskID(ctx)

	if err != nil {
		return "", "", err
	}

	return projectID, taskID, nil
}
