// Package nutrition aggregates per-item nutrient breakdowns into totals.
package nutrition

import "github.com/phenylab/pheno-engine/internal/models"

// TotalNutrition sums the nutrient vectors of the given items. An empty
// item list yields the all-zero vector. Items without a Phe figure simply
// contribute zero to the Phe total.
func TotalNutrition(items []models.FoodItem) models.NutritionVector {
	var total models.NutritionVector
	for _, item := range items {
		total = total.Add(models.NutritionVector{
			Calories: item.Calories,
			ProteinG: item.ProteinG,
			CarbsG:   item.CarbsG,
			FatG:     item.FatG,
			PheMg:    item.PheMg,
		})
	}
	return total
}
