package planner

import (
	"grocery-planner/internal/recipe"
)

// Need is a quantity of one ingredient the plan calls for.
type Need struct {
	IngredientID string  `json:"ingredientId"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
}

type needKey struct {
	ingredientID string
	unit         string
}

// ShoppingNeeds totals what a plan needs: the ingredients of every planned
// recipe, once per meal, plus the misc items of every day. Quantities are
// summed per ingredient and unit, in order of first appearance. Meals whose
// recipe is missing from recipes contribute nothing.
func ShoppingNeeds(p *MealPlan, recipes map[string]*recipe.Recipe) []Need {
	needs := []Need{}
	index := map[needKey]int{}

	add := func(ingredientID string, quantity float64, unit string) {
		k := needKey{ingredientID, unit}
		if i, ok := index[k]; ok {
			needs[i].Quantity += quantity
			return
		}
		index[k] = len(needs)
		needs = append(needs, Need{IngredientID: ingredientID, Quantity: quantity, Unit: unit})
	}

	for _, d := range p.Days {
		for _, m := range d.Meals {
			rec, ok := recipes[m.RecipeID]
			if m.RecipeID == "" || !ok {
				continue
			}
			for _, ing := range rec.Ingredients {
				add(ing.IngredientID, ing.Quantity, ing.Unit)
			}
		}
		for _, item := range d.MiscItems {
			add(item.IngredientID, item.Quantity, item.Unit)
		}
	}
	return needs
}

// RecipeIDs returns the distinct recipe IDs planned in p.
func (p *MealPlan) RecipeIDs() []string {
	seen := map[string]bool{}
	ids := []string{}
	for _, d := range p.Days {
		for _, m := range d.Meals {
			if m.RecipeID != "" && !seen[m.RecipeID] {
				seen[m.RecipeID] = true
				ids = append(ids, m.RecipeID)
			}
		}
	}
	return ids
}
