package gbfs

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Well-known feed names advertised in discovery documents
const (
	FeedGBFS               = "gbfs"
	FeedGBFSVersions       = "gbfs_versions"
	FeedSystemInformation  = "system_information"
	FeedStationInformation = "station_information"
	FeedStationStatus      = "station_status"
	FeedFreeBikeStatus     = "free_bike_status"
	FeedVehicleTypes       = "vehicle_types"
	FeedSystemHours        = "system_hours"
	FeedSystemCalendar     = "system_calendar"
	FeedSystemRegions      = "system_regions"
	FeedSystemPricingPlans = "system_pricing_plans"
	FeedSystemAlerts       = "system_alerts"
	FeedGeofencingZones    = "geofencing_zones"
)

// Feed is one entry of a language's feed list
type Feed struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Header holds the fields every GBFS document carries next to its data
type Header struct {
	LastUpdated Timestamp `json:"last_updated"`
	TTL         int       `json:"ttl"`
	Version     string    `json:"version,omitempty"`
}

// Flag is a boolean that also accepts the 0/1 integers published by GBFS 1.x feeds
type Flag bool

// UnmarshalJSON implements json.Unmarshaler
func (f *Flag) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case "true", "1", `"true"`, `"1"`:
		*f = true
	case "false", "0", `"false"`, `"0"`, "null":
		*f = false
	default:
		return fmt.Errorf("invalid boolean value %s", b)
	}
	return nil
}

// Timestamp is a point in time published either as POSIX seconds (GBFS 1.x and 2.x)
// or as an RFC 3339 string (GBFS 3.x)
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		t.Time = parsed
		return nil
	}
	secs, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", b, err)
	}
	t.Time = time.Unix(int64(secs), 0).UTC()
	return nil
}

// MarshalYAML encodes the timestamp as a YAML timestamp
func (t Timestamp) MarshalYAML() (any, error) {
	return t.Time, nil
}

// Text is a string that some operators publish as a JSON number, e.g. phone numbers
type Text string

// UnmarshalJSON implements json.Unmarshaler
func (t *Text) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid text value %s: %w", b, err)
	}
	*t = Text(n.String())
	return nil
}

// RentalURIs are deep links into an operator's rental apps
type RentalURIs struct {
	Android string `json:"android,omitempty"`
	IOS     string `json:"ios,omitempty"`
	Web     string `json:"web,omitempty"`
}

// StationInformation describes a station's fixed attributes
type StationInformation struct {
	StationID           string          `json:"station_id"`
	Name                string          `json:"name"`
	ShortName           string          `json:"short_name,omitempty"`
	Lat                 float64         `json:"lat"`
	Lon                 float64         `json:"lon"`
	Address             string          `json:"address,omitempty"`
	CrossStreet         string          `json:"cross_street,omitempty"`
	RegionID            string          `json:"region_id,omitempty"`
	PostCode            string          `json:"post_code,omitempty"`
	RentalMethods       []string        `json:"rental_methods,omitempty"`
	IsVirtualStation    Flag            `json:"is_virtual_station,omitempty"`
	StationArea         json.RawMessage `json:"station_area,omitempty"`
	ParkingType         string          `json:"parking_type,omitempty"`
	ParkingHoop         Flag            `json:"parking_hoop,omitempty"`
	ContactPhone        Text            `json:"contact_phone,omitempty"`
	Capacity            int             `json:"capacity,omitempty"`
	VehicleCapacity     map[string]int  `json:"vehicle_capacity,omitempty"`
	VehicleTypeCapacity map[string]int  `json:"vehicle_type_capacity,omitempty"`
	IsValetStation      Flag            `json:"is_valet_station,omitempty"`
	IsChargingStation   Flag            `json:"is_charging_station,omitempty"`
	RentalURIs          *RentalURIs     `json:"rental_uris,omitempty"`
}

// VehicleTypeCount is the number of available vehicles of one type at a station
type VehicleTypeCount struct {
	VehicleTypeID string `json:"vehicle_type_id"`
	Count         int    `json:"count"`
}

// VehicleDockCount is the number of docks accepting the listed vehicle types
type VehicleDockCount struct {
	VehicleTypeIDs []string `json:"vehicle_type_ids"`
	Count          int      `json:"count"`
}

// StationStatus describes a station's current availability
type StationStatus struct {
	StationID             string             `json:"station_id"`
	NumBikesAvailable     int                `json:"num_bikes_available"`
	NumEBikesAvailable    int                `json:"num_ebikes_available,omitempty"`
	NumVehiclesAvailable  int                `json:"num_vehicles_available,omitempty"`
	NumBikesDisabled      int                `json:"num_bikes_disabled,omitempty"`
	NumVehiclesDisabled   int                `json:"num_vehicles_disabled,omitempty"`
	NumDocksAvailable     int                `json:"num_docks_available,omitempty"`
	NumDocksDisabled      int                `json:"num_docks_disabled,omitempty"`
	VehicleTypesAvailable []VehicleTypeCount `json:"vehicle_types_available,omitempty"`
	VehicleDocksAvailable []VehicleDockCount `json:"vehicle_docks_available,omitempty"`
	IsInstalled           Flag               `json:"is_installed"`
	IsRenting             Flag               `json:"is_renting"`
	IsReturning           Flag               `json:"is_returning"`
	IsChargingStation     Flag               `json:"is_charging,omitempty"`
	LastReported          Timestamp          `json:"last_reported"`
}

// RentalApp locates an operator's app in one store
type RentalApp struct {
	StoreURI     string `json:"store_uri,omitempty"`
	DiscoveryURI string `json:"discovery_uri,omitempty"`
}

// RentalApps lists an operator's apps per platform
type RentalApps struct {
	Android *RentalApp `json:"android,omitempty"`
	IOS     *RentalApp `json:"ios,omitempty"`
}

// BrandAssets are an operator's published logos and colors
type BrandAssets struct {
	BrandLastModified string `json:"brand_last_modified,omitempty"`
	BrandTermsURL     string `json:"brand_terms_url,omitempty"`
	BrandImageURL     string `json:"brand_image_url,omitempty"`
	BrandImageURLDark string `json:"brand_image_url_dark,omitempty"`
	Color             string `json:"color,omitempty"`
}

// SystemInformation describes the operator and the system as a whole
type SystemInformation struct {
	SystemID                    string       `json:"system_id"`
	Language                    string       `json:"language,omitempty"`
	Languages                   []string     `json:"languages,omitempty"`
	Name                        string       `json:"name"`
	ShortName                   string       `json:"short_name,omitempty"`
	Operator                    string       `json:"operator,omitempty"`
	URL                         string       `json:"url,omitempty"`
	PurchaseURL                 string       `json:"purchase_url,omitempty"`
	StartDate                   string       `json:"start_date,omitempty"`
	PhoneNumber                 Text         `json:"phone_number,omitempty"`
	Email                       string       `json:"email,omitempty"`
	FeedContactEmail            string       `json:"feed_contact_email,omitempty"`
	Timezone                    string       `json:"timezone"`
	LicenseID                   string       `json:"license_id,omitempty"`
	LicenseURL                  string       `json:"license_url,omitempty"`
	AttributionOrganizationName string       `json:"attribution_organization_name,omitempty"`
	AttributionURL              string       `json:"attribution_url,omitempty"`
	TermsURL                    string       `json:"terms_url,omitempty"`
	TermsLastUpdated            string       `json:"terms_last_updated,omitempty"`
	PrivacyURL                  string       `json:"privacy_url,omitempty"`
	PrivacyLastUpdated          string       `json:"privacy_last_updated,omitempty"`
	RentalApps                  *RentalApps  `json:"rental_apps,omitempty"`
	BrandAssets                 *BrandAssets `json:"brand_assets,omitempty"`
}

type stationInformationPayload struct {
	Header
	Data struct {
		Stations []StationInformation `json:"stations"`
	} `json:"data"`
}

type stationStatusPayload struct {
	Header
	Data struct {
		Stations []StationStatus `json:"stations"`
	} `json:"data"`
}

type systemInformationPayload struct {
	Header
	Data SystemInformation `json:"data"`
}
