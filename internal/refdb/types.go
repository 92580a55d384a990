package refdb

// State is one US state.
type State struct {
	Name string `json:"state"`
	Code string `json:"state_code"`
}

// Airport is one US airport. StateName is filled only by lookups that join states.
type Airport struct {
	Code      string `json:"airport_code"`
	Name      string `json:"airport_name"`
	City      string `json:"airport_city"`
	StateCode string `json:"airport_state_code"`
	StateName string `json:"-"`
}

// CityArea is the land area of one US city.
type CityArea struct {
	Name  string `json:"city_name"`
	State string `json:"city_state"`
	Area  int64  `json:"city_area"`
}

// Reference is the full content of the three reference tables.
type Reference struct {
	States    []State
	Airports  []Airport
	CityAreas []CityArea
}
