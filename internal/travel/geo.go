package travel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maypok86/otter"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"
)

const (
	geocodeCacheSize = 1000
	geocodeCacheTTL  = 24 * time.Hour
)

var ErrNoResults = errors.New("no results found")

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Place struct {
	Name        string      `json:"name"`
	DisplayName string      `json:"display_name,omitempty"`
	Coordinates Coordinates `json:"coordinates"`
}

// Geocoder resolves place names through a Nominatim-compatible endpoint.
// Results, including misses, are cached and concurrent lookups of the same
// name share one request.
type Geocoder struct {
	endpoint string
	fetch    *fetcher
	cache    otter.Cache[string, *Place]
	group    singleflight.Group
}

func NewGeocoder(endpoint, userAgent string, client *http.Client) (*Geocoder, error) {
	cache, err := otter.MustBuilder[string, *Place](geocodeCacheSize).
		WithTTL(geocodeCacheTTL).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build geocode cache: %w", err)
	}
	return &Geocoder{
		endpoint: endpoint,
		fetch:    newFetcher(client, userAgent),
		cache:    cache,
	}, nil
}

// Geocode returns ErrNoResults when the name does not resolve.
func (g *Geocoder) Geocode(ctx context.Context, name string) (*Place, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, errors.New("empty location")
	}
	if p, ok := g.cache.Get(key); ok {
		if p == nil {
			return nil, ErrNoResults
		}
		return p, nil
	}

	// The shared lookup outlives any single caller so one cancellation does
	// not fail everyone waiting on the same name.
	ch := g.group.DoChan(key, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.fetch.budget())
		defer cancel()
		p, err := g.lookup(lookupCtx, name)
		if err != nil {
			return nil, err
		}
		g.cache.Set(key, p)
		return p, nil
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	p := res.Val.(*Place)
	if p == nil {
		return nil, ErrNoResults
	}
	return p, nil
}

func (g *Geocoder) lookup(ctx context.Context, name string) (*Place, error) {
	if g.endpoint == "" {
		return nil, errors.New("geocoding disabled")
	}
	body, err := g.fetch.getJSON(ctx, g.endpoint, url.Values{
		"q":      {name},
		"format": {"json"},
		"limit":  {"1"},
	})
	if err != nil {
		log.Printf("[travel] geocode %q failed: %v", name, err)
		return nil, fmt.Errorf("geocode %q: %w", name, err)
	}

	first := gjson.GetBytes(body, "0")
	if !first.Exists() {
		return nil, nil
	}
	// Nominatim encodes coordinates as strings.
	lat := first.Get("lat").Float()
	lon := first.Get("lon").Float()
	return &Place{
		Name:        strings.TrimSpace(name),
		DisplayName: first.Get("display_name").String(),
		Coordinates: Coordinates{Lat: lat, Lon: lon},
	}, nil
}
