package localstore

import "github.com/nutrihelper/backend/internal/domain"

// builtinFoods is the seed table, calories in kcal and protein in g per 100g
var builtinFoods = map[string][2]float64{
	"apple":   {52, 0.3},
	"banana":  {89, 1.1},
	"chapati": {105, 2.4},
	"chicken": {165, 31.0},
	"egg":     {78, 6.3},
	"milk":    {103, 8.1},
	"rice":    {130, 2.7},
	"quinoa":  {111, 4.4},
	"wheat":   {138, 5.7},
	"grapes":  {69, 0.7},
	"orange":  {62, 1.3},
	"spinach": {24, 2.9},
}

func seed() map[string]domain.FoodRecord {
	foods := make(map[string]domain.FoodRecord, len(builtinFoods))
	for name, v := range builtinFoods {
		foods[name] = domain.FoodRecord{
			Name:     name,
			Calories: domain.Float(v[0]),
			Protein:  domain.Float(v[1]),
		}
	}
	return foods
}
