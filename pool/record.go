package pool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"mealplanner/scheduler"
)

// rawRecord is one upstream meal record before coercion. Upstream producers
// disagree on field names and shapes, so every field is looked up through an
// alias list and decoded leniently.
type rawRecord map[string]json.RawMessage

// first returns the first present, non-null alias.
func (r rawRecord) first(keys ...string) json.RawMessage {
	for _, k := range keys {
		if v, ok := r[k]; ok && !isNull(v) {
			return v
		}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	s := bytes.TrimSpace(raw)
	return len(s) == 0 || bytes.Equal(s, []byte("null"))
}

var slotTypeAliases = map[string]scheduler.SlotType{
	"breakfast":     scheduler.SlotTypeBreakfast,
	"lunch":         scheduler.SlotTypeLunch,
	"snack":         scheduler.SlotTypeSnack,
	"snacks":        scheduler.SlotTypeSnack,
	"dinner":        scheduler.SlotTypeDinner,
	"lunchordinner": scheduler.SlotTypeLunchOrDinner,
	"main":          scheduler.SlotTypeLunchOrDinner,
	"entree":        scheduler.SlotTypeLunchOrDinner,
}

var nonLetters = regexp.MustCompile(`[^a-z]+`)

// ParseSlotType maps the spellings seen upstream ("lunch_or_dinner",
// "Lunch/Dinner", "SNACKS", ...) onto a SlotType.
func ParseSlotType(s string) (scheduler.SlotType, bool) {
	st, ok := slotTypeAliases[nonLetters.ReplaceAllString(strings.ToLower(s), "")]
	return st, ok
}

// toCandidate coerces r into a MealCandidate.
func (r rawRecord) toCandidate(requireID bool) (scheduler.MealCandidate, error) {
	c := scheduler.MealCandidate{
		ID:          decodeString(r.first("id", "meal_id", "mealId")),
		Name:        decodeString(r.first("name", "title")),
		Description: decodeString(r.first("description", "summary")),
		Origin:      scheduler.OriginPool,
	}
	if c.ID == "" && requireID {
		return c, fmt.Errorf("record %q has no id", c.Name)
	}

	rawType := decodeString(r.first("slot_type", "slotType", "meal_type", "mealType", "category"))
	st, ok := ParseSlotType(rawType)
	if !ok {
		return c, fmt.Errorf("record %q has unrecognized slot type %q", c.ID, rawType)
	}
	c.SlotType = st

	if o := decodeString(r.first("origin")); o == string(scheduler.OriginGenerated) {
		c.Origin = scheduler.OriginGenerated
	}

	c.Tags = decodeStrings(r.first("tags", "labels"))
	c.HasMedia = decodeBool(r.first("has_media", "hasMedia"))
	if !c.HasMedia {
		for _, k := range []string{"image_url", "imageUrl", "media_key", "image_key", "mediaKey"} {
			if decodeString(r.first(k)) != "" {
				c.HasMedia = true
				break
			}
		}
	}

	c.Nutrition = decodeNutrition(r)
	c.Ingredients = decodeIngredients(r.first("ingredients"))
	c.Instructions = decodeLines(r.first("instructions", "steps"))
	return c, nil
}

func decodeString(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// decodeStrings accepts a JSON array of strings or one comma-separated string.
func decodeStrings(raw json.RawMessage) []string {
	if raw == nil {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		list = strings.Split(decodeString(raw), ",")
	}
	var out []string
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func decodeBool(raw json.RawMessage) bool {
	if raw == nil {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	b, _ = strconv.ParseBool(decodeString(raw))
	return b
}

var leadingNumber = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)`)

// decodeNumber accepts a JSON number or a string such as "450 kcal" or "1/2"
// whose leading token is numeric.
func decodeNumber(raw json.RawMessage) float64 {
	if raw == nil {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	return parseNumber(decodeString(raw))
}

func parseNumber(s string) float64 {
	if fields := strings.Fields(s); len(fields) > 0 {
		if num, den, ok := strings.Cut(fields[0], "/"); ok {
			n, err1 := strconv.ParseFloat(num, 64)
			d, err2 := strconv.ParseFloat(den, 64)
			if err1 == nil && err2 == nil && d != 0 {
				return n / d
			}
		}
	}
	m := leadingNumber.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	f, _ := strconv.ParseFloat(m[1], 64)
	return f
}

// decodeNutrition reads a nested nutrition object, falling back to the same
// keys at the top level of the record.
func decodeNutrition(r rawRecord) scheduler.Nutrition {
	src := r
	if raw := r.first("nutrition", "macros"); raw != nil {
		var nested rawRecord
		if err := json.Unmarshal(raw, &nested); err == nil {
			src = nested
		}
	}
	return scheduler.Nutrition{
		Calories: decodeNumber(src.first("calories", "kcal", "energy")),
		ProteinG: decodeNumber(src.first("protein_g", "protein")),
		CarbsG:   decodeNumber(src.first("carbs_g", "carbs", "carbohydrates")),
		FatG:     decodeNumber(src.first("fat_g", "fat")),
		FiberG:   decodeNumber(src.first("fiber_g", "fiber")),
	}
}

// decodeIngredients accepts an array of strings, an array of objects, an
// object mapping name to amount, or one delimited string.
func decodeIngredients(raw json.RawMessage) []scheduler.Ingredient {
	if raw == nil {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		var out []scheduler.Ingredient
		for _, item := range items {
			if ing, ok := decodeIngredient(item); ok {
				out = append(out, ing)
			}
		}
		return out
	}

	var byName map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byName); err == nil {
		out := make([]scheduler.Ingredient, 0, len(byName))
		for name, amount := range byName {
			out = append(out, amountIngredient(name, amount))
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out
	}

	var out []scheduler.Ingredient
	for _, part := range splitList(decodeString(raw)) {
		out = append(out, scheduler.Ingredient{Name: part})
	}
	return out
}

func decodeIngredient(raw json.RawMessage) (scheduler.Ingredient, bool) {
	var obj rawRecord
	if err := json.Unmarshal(raw, &obj); err == nil {
		ing := scheduler.Ingredient{
			Name: decodeString(obj.first("name", "ingredient", "item")),
			Qty:  decodeNumber(obj.first("qty", "quantity", "amount")),
			Unit: decodeString(obj.first("unit", "units")),
		}
		return ing, ing.Name != ""
	}
	name := decodeString(raw)
	return scheduler.Ingredient{Name: name}, name != ""
}

// amountIngredient handles the {"oats": "1 cup"} and {"eggs": 2} shapes.
func amountIngredient(name string, amount json.RawMessage) scheduler.Ingredient {
	ing := scheduler.Ingredient{Name: strings.TrimSpace(name)}
	var f float64
	if err := json.Unmarshal(amount, &f); err == nil {
		ing.Qty = f
		return ing
	}
	s := decodeString(amount)
	ing.Qty = parseNumber(s)
	if fields := strings.Fields(s); len(fields) > 1 && ing.Qty != 0 {
		ing.Unit = strings.Join(fields[1:], " ")
	}
	return ing
}

// decodeLines accepts an array of strings or one newline-delimited string.
func decodeLines(raw json.RawMessage) []string {
	if raw == nil {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		list = strings.Split(decodeString(raw), "\n")
	}
	var out []string
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// splitList splits on newlines, then semicolons, then commas, using the
// first delimiter present.
func splitList(s string) []string {
	sep := ","
	for _, d := range []string{"\n", ";"} {
		if strings.Contains(s, d) {
			sep = d
			break
		}
	}
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
