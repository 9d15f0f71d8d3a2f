package geo

import (
	"context"
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"
	"github.com/pkg/errors"
)

var ErrNoDatabase = errors.New("geo database not loaded")

// GeoIPDatabase answers lookups from a MaxMind City database on disk.
type GeoIPDatabase struct {
	path   string
	reader *geoip2.Reader
	lock   sync.RWMutex
}

var _ Lookup = (*GeoIPDatabase)(nil)

func NewGeoIPDatabase(path string) *GeoIPDatabase {
	return &GeoIPDatabase{path: path}
}

func (g *GeoIPDatabase) Open() error {
	reader, err := geoip2.Open(g.path)
	if err != nil {
		return errors.Wrapf(err, "[GeoIPDatabase.Open] %s", g.path)
	}
	g.lock.Lock()
	g.reader = reader
	g.lock.Unlock()
	return nil
}

func (g *GeoIPDatabase) Close() error {
	g.lock.Lock()
	defer g.lock.Unlock()
	if g.reader == nil {
		return nil
	}
	err := g.reader.Close()
	g.reader = nil
	return err
}

func (g *GeoIPDatabase) Lookup(_ context.Context, ip net.IP) (*Address, error) {
	g.lock.RLock()
	defer g.lock.RUnlock()
	if g.reader == nil {
		return nil, ErrNoDatabase
	}

	record, err := g.reader.City(ip)
	if err != nil {
		return nil, errors.Wrap(err, "[GeoIPDatabase.Lookup] city")
	}
	if record.Country.IsoCode == "" && record.City.GeoNameID == 0 {
		return nil, nil
	}

	addr := &Address{
		City:    record.City.Names["en"],
		Country: record.Country.Names["en"],
		Source:  SourceGeoIP,
	}
	if len(record.Subdivisions) > 0 {
		addr.Region = record.Subdivisions[0].Names["en"]
	}
	if record.Location.Latitude != 0 || record.Location.Longitude != 0 {
		lat, lon := record.Location.Latitude, record.Location.Longitude
		addr.Lat, addr.Lon = &lat, &lon
	}
	return addr, nil
}
