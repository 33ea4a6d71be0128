package dietary

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		text string
		want []Restriction
	}{
		{"I'm vegan and gluten free", []Restriction{Vegan, GlutenFree}},
		{"I'm vegetarian and also dairy free", []Restriction{Vegetarian, DairyFree}},
		{"I have a gluten intolerance", []Restriction{GlutenFree}},
		{"severe PEANUT allergy", []Restriction{NutFree}},
		{"plant-based please", []Restriction{Vegan}},
		{"we eat halal, one guest keeps kosher", []Restriction{Halal, Kosher}},
		{"table by the window", nil},
		{"nutrition facts?", nil},
		{"", nil},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			require.Equal(t, tc.want, Detect(tc.text))
		})
	}
}

func TestFilterAndSemantics(t *testing.T) {
	menu := []Item{
		{Name: "Salad", Tags: []Restriction{Vegan}},
		{Name: "Tofu", Tags: []Restriction{Vegan, GlutenFree}},
		{Name: "Steak", Tags: []Restriction{GlutenFree}},
	}

	got := Filter(menu, []Restriction{Vegan, GlutenFree})
	require.Len(t, got, 1)
	require.Equal(t, "Tofu", got[0].Name)

	require.Equal(t, menu, Filter(menu, nil))
}

func TestFilterProperties(t *testing.T) {
	menu := []Item{
		{Name: "a", Tags: []Restriction{Vegan, Vegetarian, GlutenFree}},
		{Name: "b", Tags: []Restriction{Vegetarian}},
		{Name: "c", Tags: []Restriction{GlutenFree, DairyFree, NutFree}},
		{Name: "d"},
		{Name: "e", Tags: []Restriction{Vegetarian, GlutenFree, DairyFree}},
	}
	requests := [][]Restriction{
		{Vegetarian},
		{GlutenFree},
		{Vegetarian, GlutenFree},
		{DairyFree, GlutenFree},
		{Halal},
	}
	for _, req := range requests {
		once := Filter(menu, req)
		for _, it := range once {
			for _, r := range req {
				require.True(t, it.HasTag(r), "%s missing %s", it.Name, r)
			}
		}
		require.Equal(t, once, Filter(once, req), "filter must be idempotent")

		// order preserved
		last := -1
		for _, it := range once {
			idx := indexOf(menu, it.Name)
			require.Greater(t, idx, last)
			last = idx
		}
	}
}

func indexOf(items []Item, name string) int {
	for i, it := range items {
		if it.Name == name {
			return i
		}
	}
	return -1
}

func TestParse(t *testing.T) {
	for in, want := range map[string]Restriction{
		"vegan":       Vegan,
		"GF":          GlutenFree,
		"gluten-free": GlutenFree,
		"Dairy_Free":  DairyFree,
		"kosher":      Kosher,
	} {
		got, err := Parse(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := Parse("paleo")
	require.Error(t, err)

	list, err := ParseList("vegan, ,gluten_free")
	require.NoError(t, err)
	require.Equal(t, []Restriction{Vegan, GlutenFree}, list)
}

func TestJoinLabels(t *testing.T) {
	require.Equal(t, "Vegan & Gluten-free", JoinLabels([]Restriction{Vegan, GlutenFree}))
}
