package enums

// CatalogStatus tracks the lifecycle of a city catalog fetch inside a step.
type CatalogStatus string

const (
	CatalogStatusIdle    CatalogStatus = "idle"
	CatalogStatusLoading CatalogStatus = "loading"
	CatalogStatusLoaded  CatalogStatus = "loaded"
	CatalogStatusError   CatalogStatus = "error"
)

// String implements fmt.Stringer.
func (c CatalogStatus) String() string {
	return string(c)
}

// Ready reports whether cities can be selected.
func (c CatalogStatus) Ready() bool {
	return c == CatalogStatusLoaded
}
