package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestFacets_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		json  string
		shape Shape
	}{
		{
			name:  "list of objects",
			json:  `[{"name": "Action"}, {"name": "Drama"}]`,
			shape: ShapeListOfObjects,
		},
		{
			name:  "wrapped list",
			json:  `{"genre": [{"name": "Action"}, {"name": "Drama"}]}`,
			shape: ShapeWrappedList,
		},
		{
			name:  "wrapped list of data wrappers",
			json:  `{"genre": [{"data": {"name": "Action"}}, {"data": {"name": "Drama"}}]}`,
			shape: ShapeWrappedList,
		},
		{
			name:  "data wrapped list",
			json:  `{"data": [{"name": "Action"}, {"name": "Drama"}]}`,
			shape: ShapeDataWrapped,
		},
		{
			name:  "list of data wrappers",
			json:  `[{"data": {"id": "1", "name": "Action"}}, {"data": {"id": "2", "name": "Drama"}}]`,
			shape: ShapeListOfDataWrapped,
		},
		{
			name:  "list of nested data wrappers",
			json:  `[{"data": {"data": {"name": "Action"}}}, {"data": {"data": {"name": "Drama"}}}]`,
			shape: ShapeListOfDataWrapped,
		},
		{
			name:  "list of data wrapped lists",
			json:  `[{"data": [{"name": "Action"}, {"name": "Drama"}]}]`,
			shape: ShapeListOfDataWrapped,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape, names := Facets(decode(t, tt.json), "genre")
			assert.Equal(t, tt.shape, shape)
			assert.Equal(t, []string{"Action", "Drama"}, names)
		})
	}
}

func TestFacets_SingleDataWrapped(t *testing.T) {
	shape, names := Facets(decode(t, `{"data": {"name": " Action "}}`), "genre")
	assert.Equal(t, ShapeDataWrapped, shape)
	assert.Equal(t, []string{"Action"}, names)
}

func TestFacets_Absent(t *testing.T) {
	tests := []struct {
		name string
		node any
	}{
		{"nil", nil},
		{"empty list", []any{}},
		{"string", "Action"},
		{"list of strings", []any{"Action", "Drama"}},
		{"mixed list", []any{map[string]any{"name": "Action"}, "Drama"}},
		{"object without known keys", map[string]any{"foo": []any{}}},
		{"data scalar", map[string]any{"data": "Action"}},
		{"inner key not a list", map[string]any{"genre": map[string]any{"name": "Action"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape, names := Facets(tt.node, "genre")
			assert.Equal(t, ShapeAbsent, shape)
			assert.Empty(t, names)
		})
	}
}

func TestFacets_TrimsAndDedupes(t *testing.T) {
	_, names := Facets(decode(t, `[
		{"name": "Action"},
		{"name": " Action"},
		{"name": ""},
		{"name": null},
		{"title": "Drama"},
		{"name": "Comedy"}
	]`), "genre")
	assert.Equal(t, []string{"Action", "Comedy"}, names)
}

func TestFacets_WrappedListNeedsInnerKey(t *testing.T) {
	node := decode(t, `{"actress": [{"name": "Hanako"}]}`)

	shape, names := Facets(node, "actress")
	assert.Equal(t, ShapeWrappedList, shape)
	assert.Equal(t, []string{"Hanako"}, names)

	shape, names = Facets(node, "genre")
	assert.Equal(t, ShapeAbsent, shape)
	assert.Empty(t, names)

	shape, _ = Facets(node, "")
	assert.Equal(t, ShapeAbsent, shape)
}

func TestSeriesNames(t *testing.T) {
	tests := []struct {
		name string
		json string
		want []string
	}{
		{"single object", `{"name": "Saga"}`, []string{"Saga"}},
		{"blank name", `{"name": "  "}`, nil},
		{"list of objects", `[{"id": "1", "name": "Saga"}]`, []string{"Saga"}},
		{"data wrapped", `{"data": {"name": "Saga"}}`, []string{"Saga"}},
		{"null", `null`, nil},
		{"string", `"Saga"`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SeriesNames(decode(t, tt.json)))
		})
	}
}

func TestShape_String(t *testing.T) {
	assert.Equal(t, "absent", ShapeAbsent.String())
	assert.Equal(t, "list_of_objects", ShapeListOfObjects.String())
	assert.Equal(t, "wrapped_list", ShapeWrappedList.String())
	assert.Equal(t, "data_wrapped", ShapeDataWrapped.String())
	assert.Equal(t, "list_of_data_wrapped", ShapeListOfDataWrapped.String())
}
