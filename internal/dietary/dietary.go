// Package dietary detects dietary restrictions in guest text and filters menus by them.
package dietary

import (
	"fmt"
	"regexp"
	"strings"
)

type Restriction string

const (
	Vegan      Restriction = "vegan"
	Vegetarian Restriction = "vegetarian"
	GlutenFree Restriction = "gluten_free"
	DairyFree  Restriction = "dairy_free"
	NutFree    Restriction = "nut_free"
	Halal      Restriction = "halal"
	Kosher     Restriction = "kosher"
)

// Item is a single menu entry. Tags lists every restriction the dish satisfies.
type Item struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Price       int           `json:"price"`
	Category    string        `json:"category"`
	Tags        []Restriction `json:"tags"`
}

func (it Item) HasTag(r Restriction) bool {
	for _, t := range it.Tags {
		if t == r {
			return true
		}
	}
	return false
}

type rule struct {
	restriction Restriction
	label       string
	aliases     []string
	pattern     *regexp.Regexp
}

// vocabulary is ordered; Detect returns restrictions in this order.
var vocabulary = []rule{
	{Vegan, "Vegan", []string{"vg"},
		regexp.MustCompile(`\bvegan\b|\bplant[- ]based\b`)},
	{Vegetarian, "Vegetarian", []string{"v", "veg"},
		regexp.MustCompile(`\bvegetarian\b|\bveggie\b|\bno meat\b|\bmeat[- ]free\b`)},
	{GlutenFree, "Gluten-free", []string{"gf", "gluten-free", "gluten free"},
		regexp.MustCompile(`\bgluten\b|\bceliac\b|\bcoeliac\b`)},
	{DairyFree, "Dairy-free", []string{"df", "dairy-free", "dairy free"},
		regexp.MustCompile(`\bdairy\b|\blactose\b|\bmilk allerg|\bcheese allerg`)},
	{NutFree, "Nut-free", []string{"nf", "nut-free", "nut free"},
		regexp.MustCompile(`\bnut[- ]free\b|\bnuts?\b|\bpeanuts?\b|\btree[- ]nuts?\b|\balmonds?\b|\bcashews?\b|\bnut allerg`)},
	{Halal, "Halal", []string{"h"},
		regexp.MustCompile(`\bhalal\b`)},
	{Kosher, "Kosher", []string{"k"},
		regexp.MustCompile(`\bkosher\b`)},
}

// All returns the vocabulary in canonical order.
func All() []Restriction {
	out := make([]Restriction, 0, len(vocabulary))
	for _, r := range vocabulary {
		out = append(out, r.restriction)
	}
	return out
}

// Detect returns every restriction mentioned in text, in canonical order.
// Nothing matching yields an empty (nil) slice.
func Detect(text string) []Restriction {
	norm := strings.ToLower(strings.TrimSpace(text))
	if norm == "" {
		return nil
	}
	var out []Restriction
	for _, r := range vocabulary {
		if r.pattern.MatchString(norm) {
			out = append(out, r.restriction)
		}
	}
	return out
}

// Filter keeps the items whose tags include every requested restriction.
// Menu order is preserved and an empty request returns items unchanged.
func Filter(items []Item, restrictions []Restriction) []Item {
	if len(restrictions) == 0 {
		return items
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if satisfies(it, restrictions) {
			out = append(out, it)
		}
	}
	return out
}

func satisfies(it Item, restrictions []Restriction) bool {
	for _, r := range restrictions {
		if !it.HasTag(r) {
			return false
		}
	}
	return true
}

// Parse resolves an identifier, label or menu code ("gluten-free", "GF", "gluten_free").
func Parse(s string) (Restriction, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, r := range vocabulary {
		if key == string(r.restriction) || key == strings.ToLower(r.label) {
			return r.restriction, nil
		}
		for _, a := range r.aliases {
			if key == a {
				return r.restriction, nil
			}
		}
	}
	return "", fmt.Errorf("unknown dietary restriction %q", s)
}

// ParseList parses a comma-separated list, skipping blanks.
func ParseList(s string) ([]Restriction, error) {
	var out []Restriction
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		r, err := Parse(part)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Label is the guest-facing name, e.g. "Gluten-free".
func Label(r Restriction) string {
	for _, v := range vocabulary {
		if v.restriction == r {
			return v.label
		}
	}
	return string(r)
}

// JoinLabels renders restrictions as "Vegan & Gluten-free".
func JoinLabels(rs []Restriction) string {
	labels := make([]string, len(rs))
	for i, r := range rs {
		labels[i] = Label(r)
	}
	return strings.Join(labels, " & ")
}
