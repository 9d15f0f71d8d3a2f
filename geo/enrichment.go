package geo

// Address sources.
const (
	SourceLocal  = "local"
	SourceRemote = "ip-api"
	SourceGeoIP  = "geoip"
)

// Device is the parsed user-agent. Unknown fields are nil.
type Device struct {
	Browser *string `json:"browser"`
	OS      *string `json:"os"`
	Model   *string `json:"model"`
	Type    *string `json:"type"`
	CPU     *string `json:"cpu"`
}

// Address is a coarse location for a client IP.
type Address struct {
	City    string   `json:"city"`
	Region  string   `json:"region"`
	Country string   `json:"country"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	Source  string   `json:"source"`
}

// Point is a GeoJSON point, coordinates are [lon, lat].
type Point struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// Point returns the address position, or nil without coordinates.
func (a *Address) Point() *Point {
	if a == nil || a.Lat == nil || a.Lon == nil {
		return nil
	}
	return &Point{Type: "Point", Coordinates: [2]float64{*a.Lon, *a.Lat}}
}

// Enrichment is what a session records about the client.
type Enrichment struct {
	Device  Device   `json:"device"`
	Address *Address `json:"address"`
}

var localAddress = Address{
	City:    "Local",
	Region:  "Local",
	Country: "Local",
	Source:  SourceLocal,
}
