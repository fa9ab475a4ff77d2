package clipper

import (
	"encoding/json"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractJSONLD returns the first schema.org Recipe found in the page's
// JSON-LD blocks, or nil.
func extractJSONLD(doc *goquery.Document) *ClippedRecipe {
	var found *ClippedRecipe
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		if node := findRecipe(data); node != nil {
			found = recipeFromNode(node)
			return found == nil
		}
		return true
	})
	return found
}

// findRecipe walks arrays and @graph containers looking for a Recipe node.
func findRecipe(v any) map[string]any {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if node := findRecipe(item); node != nil {
				return node
			}
		}
	case map[string]any:
		if isRecipeType(t["@type"]) {
			return t
		}
		if graph, ok := t["@graph"]; ok {
			return findRecipe(graph)
		}
	}
	return nil
}

func isRecipeType(v any) bool {
	switch t := v.(type) {
	case string:
		return t == "Recipe"
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s == "Recipe" {
				return true
			}
		}
	}
	return false
}

func recipeFromNode(node map[string]any) *ClippedRecipe {
	title := text(node["name"])
	if title == "" {
		return nil
	}
	return &ClippedRecipe{
		Title:       title,
		Description: text(node["description"]),
		Ingredients: stringList(node["recipeIngredient"]),
		Steps:       instructions(node["recipeInstructions"]),
	}
}

func text(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(html.UnescapeString(s))
}

func stringList(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case string:
		if s := text(t); s != "" {
			out = append(out, s)
		}
	case []any:
		for _, item := range t {
			if s := text(item); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// instructions flattens recipeInstructions, which may be a string, a list
// of strings, HowToStep objects or HowToSection objects holding steps.
func instructions(v any) []string {
	steps := []string{}
	switch t := v.(type) {
	case string:
		for _, line := range strings.Split(t, "\n") {
			if s := text(line); s != "" {
				steps = append(steps, s)
			}
		}
	case []any:
		for _, item := range t {
			switch step := item.(type) {
			case string:
				if s := text(step); s != "" {
					steps = append(steps, s)
				}
			case map[string]any:
				if children, ok := step["itemListElement"]; ok {
					steps = append(steps, instructions(children)...)
					continue
				}
				s := text(step["text"])
				if s == "" {
					s = text(step["name"])
				}
				if s != "" {
					steps = append(steps, s)
				}
			}
		}
	case map[string]any:
		return instructions([]any{t})
	}
	return steps
}
