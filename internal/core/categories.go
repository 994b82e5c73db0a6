package core

// DefaultCategories is the set every new user starts with.
func DefaultCategories() []Category {
	defaults := []Category{
		{Name: "Salario", Kind: CategoryIncome, Icon: "fas fa-briefcase", Color: "#28a745"},
		{Name: "Freelance", Kind: CategoryIncome, Icon: "fas fa-laptop-code", Color: "#17a2b8"},
		{Name: "Inversiones", Kind: CategoryIncome, Icon: "fas fa-chart-line", Color: "#ffc107"},
		{Name: "Otros Ingresos", Kind: CategoryIncome, Icon: "fas fa-money-bill-wave", Color: "#6c757d"},
		{Name: "Alimentación", Kind: CategoryExpense, Icon: "fas fa-utensils", Color: "#dc3545"},
		{Name: "Transporte", Kind: CategoryExpense, Icon: "fas fa-car", Color: "#007bff"},
		{Name: "Vivienda", Kind: CategoryExpense, Icon: "fas fa-home", Color: "#6610f2"},
		{Name: "Servicios", Kind: CategoryExpense, Icon: "fas fa-bolt", Color: "#fd7e14"},
		{Name: "Entretenimiento", Kind: CategoryExpense, Icon: "fas fa-film", Color: "#e83e8c"},
		{Name: "Salud", Kind: CategoryExpense, Icon: "fas fa-heartbeat", Color: "#dc3545"},
		{Name: "Educación", Kind: CategoryExpense, Icon: "fas fa-graduation-cap", Color: "#20c997"},
		{Name: "Ropa", Kind: CategoryExpense, Icon: "fas fa-tshirt", Color: "#6f42c1"},
		{Name: "Otros Gastos", Kind: CategoryExpense, Icon: "fas fa-shopping-cart", Color: "#6c757d"},
	}
	for i := range defaults {
		defaults[i].IsDefault = true
	}
	return defaults
}
