package planner

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

const productID = "-//grocery-planner//meal plan//EN"

var mealOrder = map[MealType]int{
	MealTypeBreakfast: 0,
	MealTypeLunch:     1,
	MealTypeSnack:     2,
	MealTypeDinner:    3,
}

// EncodeCalendar renders a plan as an iCalendar feed with one all-day
// event per planned meal. recipeTitles names meals that point at a recipe.
func EncodeCalendar(p *MealPlan, recipeTitles map[string]string, now time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	if p.Title != "" {
		setExtensionText(cal.Props, "X-WR-CALNAME", p.Title)
	}

	for _, d := range p.Days {
		for _, m := range d.OrderedMeals() {
			event := ical.NewEvent()
			event.Props.SetText(ical.PropUID, m.ID+"@grocery-planner")
			event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
			event.Props.SetText(ical.PropSummary, MealSummary(m, recipeTitles))

			start := ical.NewProp(ical.PropDateTimeStart)
			start.SetDate(d.Date)
			event.Props.Set(start)
			end := ical.NewProp(ical.PropDateTimeEnd)
			end.SetDate(d.Date.AddDate(0, 0, 1))
			event.Props.Set(end)

			event.Props.SetText(ical.PropTransparency, "TRANSPARENT")
			cal.Children = append(cal.Children, event.Component)
		}
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("failed to encode iCalendar: %w", err)
	}
	return buf.Bytes(), nil
}

// setExtensionText sets a text property without a VALUE parameter, which
// go-ical adds for properties it does not know to be text.
func setExtensionText(props ical.Props, name, value string) {
	prop := ical.NewProp(name)
	prop.SetText(value)
	prop.Params.Del(ical.ParamValue)
	props.Set(prop)
}

// OrderedMeals returns a copy of the day's meals from breakfast to dinner.
func (d DayRecord) OrderedMeals() []MealEntry {
	meals := make([]MealEntry, len(d.Meals))
	copy(meals, d.Meals)
	sort.SliceStable(meals, func(i, j int) bool {
		return mealOrder[meals[i].MealType] < mealOrder[meals[j].MealType]
	})
	return meals
}

// MealSummary labels a meal as "Lunch: Bread", preferring the recipe title.
func MealSummary(m MealEntry, recipeTitles map[string]string) string {
	name := m.MealName
	if title, ok := recipeTitles[m.RecipeID]; ok && title != "" {
		name = title
	}
	if name == "" {
		name = "Meal"
	}
	mealType := string(m.MealType)
	if mealType == "" {
		return name
	}
	return strings.ToUpper(mealType[:1]) + mealType[1:] + ": " + name
}
