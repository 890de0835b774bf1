package mapx

import (
	"reflect"
	"testing"
)

func TestSortedKeys(t *testing.T) {
	got := SortedKeys(map[string]int{"b": 1, "a": 2, "c": 3})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("SortedKeys = %v", got)
	}
}

func TestMerge(t *testing.T) {
	got := Merge(map[string]int{"a": 1, "b": 1}, map[string]int{"b": 2}, nil)
	if !reflect.DeepEqual(got, map[string]int{"a": 1, "b": 2}) {
		t.Errorf("Merge = %v", got)
	}
}

func TestDeepCopyIsIndependent(t *testing.T) {
	src := map[string]interface{}{
		"nested": map[string]interface{}{"id": 1},
		"list":   []interface{}{"x"},
	}
	cp := DeepCopy(src).(map[string]interface{})
	cp["nested"].(map[string]interface{})["id"] = 2
	cp["list"].([]interface{})[0] = "y"

	if src["nested"].(map[string]interface{})["id"] != 1 || src["list"].([]interface{})[0] != "x" {
		t.Error("DeepCopy shares state with the source")
	}
}

func TestLookup(t *testing.T) {
	doc := map[string]interface{}{
		"a": map[string]interface{}{"b": map[string]interface{}{"c": 42}},
		"s": "text",
	}
	tests := []struct {
		path string
		want interface{}
		ok   bool
	}{
		{"a.b.c", 42, true},
		{"s", "text", true},
		{"a.x", nil, false},
		{"s.length", nil, false},
		{"", doc, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := Lookup(doc, tt.path)
			if ok != tt.ok || !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Lookup(%q) = %v, %v", tt.path, got, ok)
			}
		})
	}
}
