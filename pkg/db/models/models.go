package models

// All lists every persisted model, in dependency order, for sqlite
// bootstrapping in tests and local runs.
func All() []any {
	return []any{
		&Category{},
		&Product{},
		&Review{},
		&PaymentMethod{},
		&Order{},
		&OrderItem{},
	}
}
