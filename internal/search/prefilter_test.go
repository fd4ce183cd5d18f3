package search_test

import (
	"testing"

	"github.com/alex-user-go/stayscout/internal/search"
	"github.com/alex-user-go/stayscout/internal/search/types"
)

func TestPrefilter(t *testing.T) {
	tests := []struct {
		name       string
		properties []types.NormalizedProperty
		criteria   types.SearchCriteria
		wantNames  []string
	}{
		{
			name: "drops over max budget",
			properties: []types.NormalizedProperty{
				{Name: "A", Price: 120},
				{Name: "B", Price: 180},
				{Name: "C", Price: 450},
			},
			criteria:  types.SearchCriteria{Budget: types.BudgetRange{Max: 200}},
			wantNames: []string{"A", "B"},
		},
		{
			name: "drops under min budget",
			properties: []types.NormalizedProperty{
				{Name: "A", Price: 50},
				{Name: "B", Price: 150},
			},
			criteria:  types.SearchCriteria{Budget: types.BudgetRange{Min: 100}},
			wantNames: []string{"B"},
		},
		{
			name: "absent bounds are unbounded",
			properties: []types.NormalizedProperty{
				{Name: "A", Price: 1},
				{Name: "B", Price: 99999},
			},
			criteria:  types.SearchCriteria{},
			wantNames: []string{"A", "B"},
		},
		{
			name: "drops low rating but keeps unrated",
			properties: []types.NormalizedProperty{
				{Name: "A", Price: 100, Rating: 2.9},
				{Name: "B", Price: 100, Rating: 3.0},
				{Name: "C", Price: 100},
			},
			criteria:  types.SearchCriteria{},
			wantNames: []string{"B", "C"},
		},
		{
			name: "drops invalid records",
			properties: []types.NormalizedProperty{
				{Name: "", Price: 100},
				{Name: "B", Price: 0},
				{Name: "C", Price: 100},
			},
			criteria:  types.SearchCriteria{},
			wantNames: []string{"C"},
		},
		{
			name: "preserves order",
			properties: []types.NormalizedProperty{
				{Name: "C", Price: 300},
				{Name: "A", Price: 100},
				{Name: "B", Price: 200},
			},
			criteria:  types.SearchCriteria{},
			wantNames: []string{"C", "A", "B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := search.Prefilter(tt.properties, tt.criteria)
			if len(got) != len(tt.wantNames) {
				t.Fatalf("got %d properties, want %d", len(got), len(tt.wantNames))
			}
			for i, name := range tt.wantNames {
				if got[i].Name != name {
					t.Errorf("position %d: got %q, want %q", i, got[i].Name, name)
				}
			}
		})
	}
}

func TestPrefilter_Pure(t *testing.T) {
	properties := []types.NormalizedProperty{
		{Name: "A", Price: 120},
		{Name: "B", Price: 450},
	}
	criteria := types.SearchCriteria{Budget: types.BudgetRange{Max: 200}}

	search.Prefilter(properties, criteria)
	if properties[1].Name != "B" || properties[1].Price != 450 {
		t.Error("input slice was mutated")
	}
}
