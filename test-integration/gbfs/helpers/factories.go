package helpers

// DefaultOperators returns a small registry: a bilingual Montréal system, a
// Toronto system and a Paris system whose station_status feed is broken
func DefaultOperators() []FakeOperator {
	return []FakeOperator{
		{
			SystemID:    "Bixi_MTL",
			Name:        "BIXI Montréal",
			Location:    "Montréal, QC",
			CountryCode: "CA",
			Versions:    []string{"1.0", "2.2"},
			Languages:   []string{"en", "fr"},
			TTL:         10,
			Stations: []FakeStation{
				{ID: "1", Name: "Métro Mont-Royal", Capacity: 31, Bikes: 7, Docks: 24, Renting: true},
				{ID: "2", Name: "Berri / Cherrier", Capacity: 19, Bikes: 0, Docks: 19, Renting: false},
			},
		},
		{
			SystemID:    "bike_share_toronto",
			Name:        "Bike Share Toronto",
			Location:    "Toronto, ON",
			CountryCode: "CA",
			Versions:    []string{"1.1", "2.3"},
			Languages:   []string{"en"},
			Stations: []FakeStation{
				{ID: "7000", Name: "Fort York Blvd / Capreol Ct", Capacity: 35, Bikes: 12, Docks: 23, Renting: true},
			},
		},
		{
			SystemID:    "Paris",
			Name:        "Vélib' Métropole",
			Location:    "Paris, FR",
			CountryCode: "FR",
			Versions:    []string{"1.0"},
			Languages:   []string{"fr"},
			BrokenFeeds: []string{"station_status"},
			Stations: []FakeStation{
				{ID: "16107", Name: "Benjamin Godard - Victor Hugo", Capacity: 35, Bikes: 3, Docks: 32, Renting: true},
			},
		},
	}
}
