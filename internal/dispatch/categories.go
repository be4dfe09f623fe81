package dispatch

// Fixed category-id to display-name table used when composing booking
// notification bodies.
var serviceCategoryNames = map[int]string{
	1: "Plumbing",
	2: "Electrical",
	3: "Home Cleaning",
	4: "Carpentry",
	5: "Painting",
	6: "Appliance Repair",
	7: "Pest Control",
	8: "Gardening",
}

// ServiceCategoryName resolves a category id to its display name, with a
// generic fallback for ids outside the table.
func ServiceCategoryName(id int) string {
	if name, ok := serviceCategoryNames[id]; ok {
		return name
	}
	return "Home Service"
}
