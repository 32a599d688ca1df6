package domain

// ProductGroup orders products into dashboard sections.
type ProductGroup struct {
	ID       string
	Name     string
	Position int
}

type Product struct {
	ID             string
	ProductGroupID string
	Name           string
	Position       int
}

type SizeGroup struct {
	ID       string
	Name     string
	Position int
}

type Size struct {
	ID          string
	SizeGroupID string
	Name        string
	Position    int
}

// StoreSettings is a singleton row of operator toggles.
type StoreSettings struct {
	CountingEnabled bool
}
