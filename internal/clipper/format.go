package clipper

import (
	"fmt"
	"strings"

	"grocery-planner/internal/recipe"
)

// ToRecipe turns a clipped page into a new recipe for userID. Ingredient
// lines are free text on the page, so they go into the instructions above
// the numbered steps and the structured ingredient list starts empty.
func (c *ClippedRecipe) ToRecipe(userID string) *recipe.Recipe {
	return &recipe.Recipe{
		UserID:       userID,
		Title:        c.Title,
		Description:  c.Description,
		Ingredients:  []recipe.Ingredient{},
		Instructions: formatInstructions(c),
		SourceURL:    c.SourceURL,
	}
}

func formatInstructions(c *ClippedRecipe) string {
	var sb strings.Builder
	if len(c.Ingredients) > 0 {
		sb.WriteString("Ingredients:\n")
		for _, ing := range c.Ingredients {
			sb.WriteString("- " + ing + "\n")
		}
	}
	if len(c.Steps) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("Steps:\n")
		for i, step := range c.Steps {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, step))
		}
	}
	if c.SourceURL != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("Imported from: " + c.SourceURL)
	}
	return strings.TrimRight(sb.String(), "\n")
}
