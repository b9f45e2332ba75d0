package models

// SeedCategories returns the rows inserted while the category table is empty.
func SeedCategories() []Category {
	return []Category{
		{ID: 1, Name: "Animals"},
		{ID: 2, Name: "Sunsets"},
		{ID: 3, Name: "Insects"},
		{ID: 4, Name: "Sky"},
		{ID: 5, Name: "Randoms"},
	}
}
