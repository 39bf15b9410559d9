package sources

// Descriptor documents a syncable source for the sources listing.
type Descriptor struct {
	Name             string   `json:"name" yaml:"name"`
	Description      string   `json:"description" yaml:"description"`
	Parameters       []string `json:"parameters" yaml:"parameters"`
	ExampleEndpoints []string `json:"example_endpoints" yaml:"example_endpoints"`
}

// Catalogue returns the descriptions served by the sources endpoint, keyed
// by source name. "bulk" describes the multi-postcode workflow.
func Catalogue() map[string]Descriptor {
	return map[string]Descriptor{
		"nsw": {
			Name:        "NSW Fair Trading Association Register",
			Description: "NSW incorporated associations and cooperatives",
			Parameters:  []string{"organisation_name", "organisation_number", "organisation_type", "suburb", "postcode", "status"},
			ExampleEndpoints: []string{
				"/sync/nsw",
				"/sync/nsw/NSW/2000",
			},
		},
		"acnc": {
			Name:        "Australian Charities and Not-for-profits Commission",
			Description: "Registered Australian charities",
			Parameters:  []string{"town_city", "state", "postcode"},
			ExampleEndpoints: []string{
				"/sync/acnc",
				"/sync/acnc/NSW",
				"/sync/acnc/NSW/2000",
			},
		},
		"abn": {
			Name:        "Australian Business Register",
			Description: "Australian businesses and charities with ABNs",
			Parameters:  []string{"state", "postcode", "max_abns"},
			ExampleEndpoints: []string{
				"/sync/abn",
				"/sync/abn/NSW",
				"/sync/abn/NSW/2000",
				"/lookup/abn/12345678901",
			},
		},
		"bulk": {
			Name:        "Bulk Processing",
			Description: "Process multiple postcodes and merge data from all sources",
			Parameters:  []string{"state"},
			ExampleEndpoints: []string{
				"/upload/postcodes/NSW",
				"/sync/all/NSW",
				"/postcodes/NSW",
			},
		},
	}
}
