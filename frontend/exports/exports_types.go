package exports

// PageData is the exports landing page.
type PageData struct {
	Total        int
	FilterActive bool
	Status       string
	ErrorMessage string
}
