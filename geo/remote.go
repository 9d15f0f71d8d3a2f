package geo

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Lookup resolves an IP to an address.
type Lookup interface {
	Lookup(ctx context.Context, ip net.IP) (*Address, error)
}

// IPAPILookup queries an ip-api.com compatible JSON endpoint.
type IPAPILookup struct {
	baseURL string
	client  *http.Client
}

var _ Lookup = (*IPAPILookup)(nil)

func NewIPAPILookup(baseURL string, timeout time.Duration) *IPAPILookup {
	return &IPAPILookup{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type ipAPIResponse struct {
	Status     string   `json:"status"`
	Message    string   `json:"message"`
	Country    string   `json:"country"`
	RegionName string   `json:"regionName"`
	City       string   `json:"city"`
	Lat        *float64 `json:"lat"`
	Lon        *float64 `json:"lon"`
}

func (l *IPAPILookup) Lookup(ctx context.Context, ip net.IP) (*Address, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/"+ip.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "[IPAPILookup.Lookup] request")
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "[IPAPILookup.Lookup] do")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("[IPAPILookup.Lookup] status %d", resp.StatusCode)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "[IPAPILookup.Lookup] decode")
	}
	if body.Status != "success" {
		return nil, errors.Errorf("[IPAPILookup.Lookup] lookup failed: %s", body.Message)
	}
	if body.Lat == nil || body.Lon == nil {
		return nil, errors.New("[IPAPILookup.Lookup] missing coordinates")
	}

	return &Address{
		City:    body.City,
		Region:  body.RegionName,
		Country: body.Country,
		Lat:     body.Lat,
		Lon:     body.Lon,
		Source:  SourceRemote,
	}, nil
}
