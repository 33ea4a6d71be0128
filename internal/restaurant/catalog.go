package restaurant

import (
	"github.com/example/tablemate/internal/dietary"
	"github.com/example/tablemate/internal/domain/reservation"
	"github.com/example/tablemate/internal/tables"
	"github.com/example/tablemate/internal/waitlist"
)

const (
	MaisonDoree   = "maison-doree"
	SakuraGarden  = "sakura-garden"
	TrattoriaRoma = "trattoria-roma"
)

var (
	vegan = []dietary.Restriction{dietary.Vegan, dietary.Vegetarian}
	veg   = dietary.Vegetarian
	gf    = dietary.GlutenFree
	df    = dietary.DairyFree
)

func tags(rs ...dietary.Restriction) []dietary.Restriction { return rs }

// Catalog returns the configuration of the bundled venues.
func Catalog(policy waitlist.Policy, maxPartySize int) []Config {
	return []Config{
		{
			Info: Info{
				ID:         MaisonDoree,
				Name:       "Maison Dorée",
				Cuisine:    "French",
				Policy:     "48-hour cancellation required. Smart dress code. Groups 6+ require deposit.",
				CodePrefix: "MD",
				Opens:      reservation.TimeOfDay{Hour: 17},
				Closes:     reservation.TimeOfDay{Hour: 23},
			},
			Tables: tables.Inventory(map[int]int{2: 6, 4: 6, 6: 3, 8: 2}),
			Menu: []dietary.Item{
				{Name: "Foie Gras Torchon", Description: "Fig compote, brioche", Price: 28, Category: "starter", Tags: tags(gf)},
				{Name: "Salade Lyonnaise", Description: "Frisée, lardons, poached egg", Price: 18, Category: "starter"},
				{Name: "Bouillabaisse", Description: "Saffron broth, rouille", Price: 42, Category: "main"},
				{Name: "Wagyu Tenderloin", Description: "Truffle jus, pomme purée", Price: 68, Category: "main", Tags: tags(gf)},
				{Name: "Crème Brûlée", Description: "Vanilla bean, berries", Price: 16, Category: "dessert", Tags: tags(veg, gf)},
				{Name: "Tarte Tatin", Description: "Caramelized apple, crème fraîche", Price: 14, Category: "dessert", Tags: tags(veg)},
			},
			Waitlist:     policy,
			MaxPartySize: maxPartySize,
		},
		{
			Info: Info{
				ID:         SakuraGarden,
				Name:       "Sakura Garden",
				Cuisine:    "Japanese",
				Policy:     "24-hour cancellation. Walk-ins welcome when available.",
				CodePrefix: "SG",
				Opens:      reservation.TimeOfDay{Hour: 17, Minute: 30},
				Closes:     reservation.TimeOfDay{Hour: 22, Minute: 30},
			},
			Tables: tables.Inventory(map[int]int{2: 4, 4: 5, 6: 2}),
			Menu: []dietary.Item{
				{Name: "Wagyu Gyoza", Description: "Pan-fried, ponzu dipping", Price: 18, Category: "starter"},
				{Name: "Agedashi Tofu", Description: "Dashi broth, grated daikon", Price: 14, Category: "starter", Tags: append(tags(gf, df), vegan...)},
				{Name: "Omakase Sashimi", Description: "12-piece chef selection", Price: 85, Category: "main", Tags: tags(gf)},
				{Name: "Sakura Ramen", Description: "Tonkotsu broth, chashu pork", Price: 24, Category: "main"},
				{Name: "Mochi Ice Cream", Description: "Matcha, mango, sesame", Price: 12, Category: "dessert", Tags: tags(veg, gf, df)},
			},
			Waitlist:     policy,
			MaxPartySize: maxPartySize,
		},
		{
			Info: Info{
				ID:         TrattoriaRoma,
				Name:       "Trattoria Roma",
				Cuisine:    "Italian",
				Policy:     "24-hour cancellation. Groups 6+ require deposit.",
				CodePrefix: "TR",
				Opens:      reservation.TimeOfDay{Hour: 17},
				Closes:     reservation.TimeOfDay{Hour: 22},
			},
			Tables: tables.Inventory(map[int]int{2: 5, 4: 6, 6: 3, 8: 1}),
			Menu: []dietary.Item{
				{Name: "Burrata Caprese", Description: "Heirloom tomato, balsamic", Price: 19, Category: "starter", Tags: tags(veg, gf)},
				{Name: "Handmade Tagliatelle", Description: "Wild boar ragù, pecorino", Price: 32, Category: "main"},
				{Name: "Branzino al Sale", Description: "Salt-crusted, herb butter", Price: 44, Category: "main", Tags: tags(gf)},
				{Name: "Risotto ai Funghi", Description: "Mixed wild mushrooms, truffle oil", Price: 28, Category: "main", Tags: tags(veg, gf)},
				{Name: "Tiramisu", Description: "Classic mascarpone, espresso", Price: 14, Category: "dessert", Tags: tags(veg)},
			},
			Waitlist:     policy,
			MaxPartySize: maxPartySize,
		},
	}
}

// Seed builds the bundled venues with shared options.
func Seed(policy waitlist.Policy, maxPartySize int, opts ...Option) (*Directory, error) {
	var rs []*Restaurant
	for _, cfg := range Catalog(policy, maxPartySize) {
		r, err := New(cfg, opts...)
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	return NewDirectory(rs...)
}
