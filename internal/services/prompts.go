package services

import (
	"database/sql"
	"fmt"

	"genpire-backend/internal/models"
)

func freshFrontPrompt(userPrompt string) string {
	return fmt.Sprintf(
		"Generate a professional product photograph, front view, centered on a clean white studio background. %s "+
			"Show the complete product with even lighting and no props, text, or watermarks.",
		userPrompt)
}

func editFrontPrompt(analysis *models.ProductAnalysis, instruction string) string {
	return fmt.Sprintf(
		"Edit this product image. %s %s "+
			"Keep the front-view framing, the white studio background, and the lighting identical to the reference.",
		instruction, analysis.PreservationClause())
}

var viewDirections = map[models.ViewType]string{
	models.ViewBack:   "Show the exact same product rotated 180 degrees so the back faces the camera.",
	models.ViewSide:   "Show the exact same product rotated 90 degrees so its left side faces the camera.",
	models.ViewBottom: "Show the exact same product tilted to reveal its underside.",
}

func fanOutPrompt(analysis *models.ProductAnalysis, viewType models.ViewType) string {
	return fmt.Sprintf(
		"%s %s Keep the white studio background, lighting, scale, and framing identical to the reference image.",
		viewDirections[viewType], analysis.PreservationClause())
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
