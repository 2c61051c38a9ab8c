// Package normalize resolves the known shape variants of upstream product payloads
// into one internal form.
package normalize

import (
	"github.com/tiperlive/reconciler/internal/extract"
)

// Shape identifies which structural variant a facet collection was encoded in
type Shape int

const (
	ShapeAbsent Shape = iota
	// ShapeListOfDataWrapped is [{"data": {"name": ...}}], possibly {"data": {"data": {...}}}
	ShapeListOfDataWrapped
	// ShapeListOfObjects is [{"name": ...}]
	ShapeListOfObjects
	// ShapeDataWrapped is {"data": [...]} or {"data": {"name": ...}}
	ShapeDataWrapped
	// ShapeWrappedList is {"<inner>": [...]}, e.g. {"genre": [...]}
	ShapeWrappedList
)

func (s Shape) String() string {
	switch s {
	case ShapeListOfDataWrapped:
		return "list_of_data_wrapped"
	case ShapeListOfObjects:
		return "list_of_objects"
	case ShapeDataWrapped:
		return "data_wrapped"
	case ShapeWrappedList:
		return "wrapped_list"
	default:
		return "absent"
	}
}

// maxDataDepth bounds how many nested "data" wrappers are peeled
const maxDataDepth = 2

type shapeVariant struct {
	shape   Shape
	matches func(node any, inner string) bool
	names   func(node any, inner string) []string
}

// facetVariants is ordered from most to least specific
var facetVariants = []shapeVariant{
	{ShapeListOfDataWrapped, isListOfDataWrapped, listOfDataWrappedNames},
	{ShapeListOfObjects, isListOfObjects, listOfObjectsNames},
	{ShapeDataWrapped, isDataWrapped, dataWrappedNames},
	{ShapeWrappedList, isWrappedList, wrappedListNames},
}

// Facets resolves a facet collection node into trimmed, deduplicated names.
// innerKey is the secondary key used by the wrapped-list variant.
// Unknown shapes resolve to ShapeAbsent with no names.
func Facets(node any, innerKey string) (Shape, []string) {
	for _, v := range facetVariants {
		if v.matches(node, innerKey) {
			return v.shape, dedupe(v.names(node, innerKey))
		}
	}
	return ShapeAbsent, nil
}

// SeriesNames resolves the series node, normally a single {"name": ...} object
func SeriesNames(node any) []string {
	if m, ok := node.(map[string]any); ok {
		if _, has := m["name"]; has {
			return dedupe(objectNames(m))
		}
	}
	_, names := Facets(node, "series")
	return names
}

func isListOfDataWrapped(node any, _ string) bool {
	list, ok := node.([]any)
	if !ok || len(list) == 0 {
		return false
	}
	for _, elem := range list {
		m, ok := elem.(map[string]any)
		if !ok {
			return false
		}
		if _, has := m["data"]; !has {
			return false
		}
	}
	return true
}

func isListOfObjects(node any, _ string) bool {
	list, ok := node.([]any)
	if !ok || len(list) == 0 {
		return false
	}
	for _, elem := range list {
		if _, ok := elem.(map[string]any); !ok {
			return false
		}
	}
	return true
}

func isDataWrapped(node any, _ string) bool {
	m, ok := node.(map[string]any)
	if !ok {
		return false
	}
	switch m["data"].(type) {
	case []any, map[string]any:
		return true
	default:
		return false
	}
}

func isWrappedList(node any, inner string) bool {
	if inner == "" {
		return false
	}
	_, ok := extract.Get(node, inner).([]any)
	return ok
}

func listOfObjectsNames(node any, _ string) []string {
	var names []string
	for _, elem := range node.([]any) {
		names = append(names, objectNames(elem)...)
	}
	return names
}

func listOfDataWrappedNames(node any, _ string) []string {
	var names []string
	for _, elem := range node.([]any) {
		names = append(names, objectNames(unwrapData(elem))...)
	}
	return names
}

func dataWrappedNames(node any, _ string) []string {
	return objectNames(unwrapData(node))
}

func wrappedListNames(node any, inner string) []string {
	list := extract.Get(node, inner)
	// the wrapped list itself may use either list variant
	switch {
	case isListOfDataWrapped(list, inner):
		return listOfDataWrappedNames(list, inner)
	case isListOfObjects(list, inner):
		return listOfObjectsNames(list, inner)
	default:
		return nil
	}
}

// unwrapData peels up to maxDataDepth nested "data" wrappers
func unwrapData(node any) any {
	cur := node
	for range maxDataDepth {
		m, ok := cur.(map[string]any)
		if !ok {
			return cur
		}
		inner, has := m["data"]
		if !has {
			return cur
		}
		cur = inner
	}
	return cur
}

// objectNames reads "name" from an object, or from each object of a list
func objectNames(node any) []string {
	switch v := node.(type) {
	case map[string]any:
		if name := extract.CleanString(v["name"]); name != nil {
			return []string{*name}
		}
	case []any:
		var names []string
		for _, elem := range v {
			if m, ok := elem.(map[string]any); ok {
				if name := extract.CleanString(m["name"]); name != nil {
					names = append(names, *name)
				}
			}
		}
		return names
	}
	return nil
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
