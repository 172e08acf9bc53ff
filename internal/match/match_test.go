package match

import (
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/docset/internal/domain/document"
	"github.com/kailas-cloud/docset/internal/domain/selector"
)

func testDoc() *document.Document {
	return document.Reconstruct("doc-1", map[string]any{
		"status":  "active",
		"age":     30.0,
		"tags":    []any{"go", "db"},
		"address": map[string]any{"city": "Oslo"},
		"deleted": false,
		"seen":    time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	})
}

func TestCompile_Matches(t *testing.T) {
	tests := []struct {
		name string
		sel  selector.Selector
		want bool
	}{
		{"empty selector", selector.Selector{}, true},
		{"literal eq", selector.Selector{"status": "active"}, true},
		{"literal mismatch", selector.Selector{"status": "inactive"}, false},
		{"int vs float", selector.Selector{"age": 30}, true},
		{"explicit eq", selector.Selector{"age": map[string]any{"$eq": 30}}, true},
		{"ne", selector.Selector{"status": map[string]any{"$ne": "active"}}, false},
		{"gt", selector.Selector{"age": map[string]any{"$gt": 5}}, true},
		{"gt and lt", selector.Selector{"age": map[string]any{"$gt": 5, "$lt": 10}}, false},
		{"gte boundary", selector.Selector{"age": map[string]any{"$gte": 30}}, true},
		{"lte boundary", selector.Selector{"age": map[string]any{"$lte": 29.9}}, false},
		{"gt on string field", selector.Selector{"status": map[string]any{"$gt": 1}}, false},
		{"string ordering", selector.Selector{"status": map[string]any{"$gt": "a"}}, true},
		{"time ordering", selector.Selector{"seen": map[string]any{"$lt": time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)}}, true},
		{"in", selector.Selector{"status": map[string]any{"$in": []any{"x", "active"}}}, true},
		{"in strings", selector.Selector{"status": map[string]any{"$in": []string{"x"}}}, false},
		{"nin", selector.Selector{"status": map[string]any{"$nin": []any{"active"}}}, false},
		{"array contains", selector.Selector{"tags": "go"}, true},
		{"array in", selector.Selector{"tags": map[string]any{"$in": []any{"db"}}}, true},
		{"exists true", selector.Selector{"age": map[string]any{"$exists": true}}, true},
		{"exists false", selector.Selector{"missing": map[string]any{"$exists": false}}, true},
		{"null matches missing", selector.Selector{"missing": nil}, true},
		{"dotted path", selector.Selector{"address.city": "Oslo"}, true},
		{"embedded doc eq", selector.Selector{"address": map[string]any{"city": "Oslo"}}, true},
		{"regex", selector.Selector{"status": map[string]any{"$regex": "^act"}}, true},
		{"bool literal", selector.Selector{"deleted": false}, true},
		{"or", selector.Selector{"$or": []any{
			map[string]any{"status": "x"},
			map[string]any{"age": 30},
		}}, true},
		{"and", selector.Selector{"$and": []any{
			map[string]any{"status": "active"},
			map[string]any{"age": 1},
		}}, false},
		{"nor", selector.Selector{"$nor": []any{map[string]any{"status": "x"}}}, true},
		{"id", selector.Selector{"_id": "doc-1"}, true},
	}

	doc := testDoc()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Compile(tt.sel)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			if got := m.Matches(doc); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		sel  selector.Selector
	}{
		{"unknown field operator", selector.Selector{"a": map[string]any{"$near": 1}}},
		{"unknown logical operator", selector.Selector{"$where": "x"}},
		{"in without list", selector.Selector{"a": map[string]any{"$in": 1}}},
		{"exists non bool", selector.Selector{"a": map[string]any{"$exists": "yes"}}},
		{"bad regex", selector.Selector{"a": map[string]any{"$regex": "("}}},
		{"or non list", selector.Selector{"$or": map[string]any{"a": 1}}},
		{"or non document", selector.Selector{"$or": []any{1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.sel)
			if !errors.Is(err, ErrUnsupported) {
				t.Errorf("error = %v, want ErrUnsupported", err)
			}
		})
	}
}

func TestSort_MultiKeyStable(t *testing.T) {
	docs := []*document.Document{
		document.Reconstruct("a", map[string]any{"g": 1, "n": "x"}),
		document.Reconstruct("b", map[string]any{"g": 2, "n": "y"}),
		document.Reconstruct("c", map[string]any{"g": 1, "n": "z"}),
		document.Reconstruct("d", map[string]any{"n": "w"}),
	}
	Sort(docs, []selector.SortField{
		{Field: "g", Direction: selector.Descending},
		{Field: "n", Direction: selector.Ascending},
	})

	var ids []string
	for _, d := range docs {
		ids = append(ids, d.ID())
	}
	want := []string{"b", "a", "c", "d"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order = %v, want %v", ids, want)
		}
	}
}

func TestProject(t *testing.T) {
	doc := testDoc()

	inc := Project(doc, map[string]bool{"status": true, "address.city": true})
	if _, ok := inc.Get("age"); ok {
		t.Error("age must be projected out")
	}
	if _, ok := inc.Get("address.city"); !ok {
		t.Error("address must be kept for a dotted include")
	}
	if inc.ID() != "doc-1" {
		t.Error("id must be kept")
	}

	exc := Project(doc, map[string]bool{"age": false})
	if _, ok := exc.Get("age"); ok {
		t.Error("age must be excluded")
	}
	if _, ok := doc.Get("age"); !ok {
		t.Error("projection must not mutate the source document")
	}

	if Project(doc, nil) != doc {
		t.Error("empty projection must return the same document")
	}
}

func TestSortCompare_Ranks(t *testing.T) {
	if SortCompare(nil, 1) >= 0 {
		t.Error("nil must sort before numbers")
	}
	if SortCompare(1, "a") >= 0 {
		t.Error("numbers must sort before strings")
	}
	if SortCompare(2, 2.0) != 0 {
		t.Error("equal numbers across types must compare equal")
	}
}

type money struct{ cents int64 }

func TestEqual_OpaqueValues(t *testing.T) {
	if !Equal(money{5}, money{5}) {
		t.Error("equal struct values must match")
	}
	if Equal(money{5}, money{6}) {
		t.Error("different struct values must not match")
	}
}
