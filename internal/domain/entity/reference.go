package entity

import "github.com/shopspring/decimal"

// Reference records are owned by the admin catalog and read-only here.

// Country carries the per-diem rate for trips into it
type Country struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	PerDiemRate *decimal.Decimal `json:"per_diem_rate,omitempty"`
}

// City is a trip origin or destination
type City struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CountryID string `json:"country_id"`
}

// Route is a bookable transport connection, priced one way
type Route struct {
	ID          string          `json:"id"`
	Provider    string          `json:"provider"`
	Kind        string          `json:"kind"`
	OneWayPrice decimal.Decimal `json:"one_way_price"`
}

// Hotel is a bookable hotel
type Hotel struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	CityID       string          `json:"city_id"`
	NightlyPrice decimal.Decimal `json:"nightly_price"`
}
