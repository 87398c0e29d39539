package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/taskforge-dev/taskforge/internal/access"
)

// abortValidation renders a 422 with per-field messages for binding failures,
// covering both body payloads and query parameters.
func abortValidation(ctx *gin.Context, err error) {
	var verrs validator.ValidationErrors

	if errors.As(err, &verrs) {
		details := make([]gin.H, 0, len(verrs))

		for _, fe := range verrs {
			details = append(details, gin.H{
				"field":   fieldName(fe),
				"message": validationMessage(fe),
			})
		}

		ctx.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Validation failed",
			"details": details,
		})
		return
	}

	ctx.JSON(http.StatusUnprocessableEntity, gin.H{
		"error": "Validation failed",
		"details": []gin.H{
			{"field": "body", "message": err.Error()},
		},
	})
}

// abortFieldError renders a 422 for a single semantic shape violation that
// binding tags cannot express (Optional fields on partial updates).
func abortFieldError(ctx *gin.Context, field string, message string) {
	ctx.JSON(http.StatusUnprocessableEntity, gin.H{
		"error": "Validation failed",
		"details": []gin.H{
			{"field": field, "message": message},
		},
	})
}

// abortNotFound maps a scoped-lookup failure onto the wire: a uniform 404 per
// entity subject, anything else a logged generic 500.
func abortNotFound(ctx *gin.Context, err error) {
	var nf *access.NotFoundError

	if errors.As(err, &nf) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": nf.Error()})
		return
	}

	ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func fieldName(fe validator.FieldError) string {
	return strings.ToLower(fe.Field())
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	}
	return fmt.Sprintf("Failed validation on %s", fe.Tag())
}
