package flow

import (
	"net/url"
	"strconv"

	"github.com/joeblew999/plat-door/internal/geo"
)

// Params encodes the draft as navigation query parameters: lat, lng,
// doors, language, address and address1..addressN.
func (d Draft) Params() url.Values {
	v := url.Values{}
	if d.Position != nil {
		v.Set("lat", strconv.FormatFloat(d.Position.Lat, 'f', -1, 64))
		v.Set("lng", strconv.FormatFloat(d.Position.Lng, 'f', -1, 64))
	}
	if d.Language != "" {
		v.Set("language", d.Language)
	}
	if d.Doors > 0 {
		v.Set("doors", strconv.Itoa(d.Doors))
	}
	if d.Info != "" {
		v.Set("address", d.Info)
	}
	for i, a := range d.Addresses {
		if a != "" {
			v.Set("address"+strconv.Itoa(i+1), a)
		}
	}
	return v
}

// URL returns path with the draft's params.
func (d Draft) URL(path string) string {
	q := d.Params().Encode()
	if q == "" {
		return path
	}
	return path + "?" + q
}

// ParseParams rebuilds a draft from query parameters. A bad or missing
// lat/lng leaves Position nil; a bad door count is treated as zero and a
// large one is cut to MaxDoors.
func ParseParams(v url.Values) Draft {
	d := NewDraft()
	if c, err := geo.ParsePair(v.Get("lat"), v.Get("lng")); err == nil {
		d.Position = &c
	}
	if l := v.Get("language"); l != "" {
		d.Language = l
	}
	d.Info = v.Get("address")

	n, _ := strconv.Atoi(v.Get("doors"))
	d.Doors = clampDoors(n)
	d.Addresses = make([]string, d.Doors)
	for i := range d.Addresses {
		d.Addresses[i] = v.Get("address" + strconv.Itoa(i+1))
	}
	return d
}
