package adapter_test

import (
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/gt"
	"github.com/mifdirfan/PocketCoach/pkg/adapter"
	"google.golang.org/genai"
)

func TestGenaiSchema(t *testing.T) {
	seven := 7
	schema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"calories": {Types: []string{"null", "number"}, Description: "kcal"},
			"days": {
				Type:     "array",
				MinItems: &seven,
				Items: &jsonschema.Schema{
					Type:       "object",
					Properties: map[string]*jsonschema.Schema{"day": {Type: "string"}},
					Required:   []string{"day"},
				},
			},
			"goal": {Type: "string", Enum: []any{"weight_loss", "muscle_gain"}},
		},
		Required: []string{"days"},
	}

	out, err := adapter.GenaiSchema(schema)
	gt.NoError(t, err)
	gt.V(t, out.Type).Equal(genai.TypeObject)
	gt.V(t, out.Properties["calories"].Type).Equal(genai.TypeNumber)
	gt.V(t, out.Properties["calories"].Description).Equal("kcal")
	gt.V(t, out.Properties["days"].Type).Equal(genai.TypeArray)
	gt.V(t, *out.Properties["days"].MinItems).Equal(int64(7))
	gt.V(t, out.Properties["days"].Items.Required).Equal([]string{"day"})
	gt.V(t, out.Properties["goal"].Enum).Equal([]string{"weight_loss", "muscle_gain"})
	gt.V(t, out.Required).Equal([]string{"days"})
}

func TestGenaiSchemaRejectsUnknownType(t *testing.T) {
	_, err := adapter.GenaiSchema(&jsonschema.Schema{Type: "tuple"})
	gt.Error(t, err)

	out, err := adapter.GenaiSchema(nil)
	gt.NoError(t, err)
	gt.Nil(t, out)
}
