package gapfill

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"mealplanner/scheduler"
)

// ToolName is the tool a model must call to hand back synthesized meals.
const ToolName = "submit_meals"

// ToolDescription accompanies ToolName in tool-use capable backends.
const ToolDescription = "Submit the synthesized meals that cover the requested nutritional needs."

// MealSchema describes one synthesized meal in the shape the pool adapter
// reads.
func MealSchema() *jsonschema.Schema {
	zero := 0.0
	slotTypes := make([]any, 0, len(scheduler.SlotTypes))
	for _, st := range scheduler.SlotTypes {
		slotTypes = append(slotTypes, string(st))
	}

	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name":        {Type: "string"},
			"description": {Type: "string"},
			"slot_type":   {Type: "string", Enum: slotTypes},
			"tags": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string"},
			},
			"nutrition": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"calories":  {Type: "number", Minimum: &zero},
					"protein_g": {Type: "number", Minimum: &zero},
					"carbs_g":   {Type: "number", Minimum: &zero},
					"fat_g":     {Type: "number", Minimum: &zero},
					"fiber_g":   {Type: "number", Minimum: &zero},
				},
				Required: []string{"calories", "protein_g", "carbs_g", "fat_g"},
			},
			"ingredients": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"name": {Type: "string"},
						"qty":  {Type: "number", Minimum: &zero},
						"unit": {Type: "string"},
					},
					Required: []string{"name"},
				},
			},
			"instructions": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string"},
			},
		},
		Required: []string{"name", "slot_type", "tags", "nutrition", "ingredients", "instructions"},
	}
}

// ResponseSchema wraps MealSchema in the {"meals": [...]} envelope every
// backend returns.
func ResponseSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"meals": {
				Type:  "array",
				Items: MealSchema(),
			},
		},
		Required: []string{"meals"},
	}
}

// SchemaMap renders s as a plain map. Backends that embed the schema in
// their own document types need it in this form.
func SchemaMap(s *jsonschema.Schema) (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	return m, nil
}
