package flow

import (
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/joeblew999/plat-door/internal/geo"
	"github.com/joeblew999/plat-door/pkg/doorclient"
)

// DefaultLanguage preselected on the details form.
const DefaultLanguage = "English"

// MaxDoors bounds the door count of one building. The validate tag on
// Draft.Doors repeats it.
const MaxDoors = 200

// Draft accumulates the building as the user moves through the steps.
// It is a value: every With method returns a modified copy.
type Draft struct {
	Position *geo.Coordinate `validate:"required"`
	Language string          `validate:"required"`
	Doors    int             `validate:"gte=0,lte=200"`
	// Info is the building-level address line.
	Info string
	// Addresses has exactly Doors entries, one per door.
	Addresses []string
}

// NewDraft returns an empty draft with the default language.
func NewDraft() Draft {
	return Draft{Language: DefaultLanguage, Addresses: []string{}}
}

func (d Draft) clone() Draft {
	if d.Position != nil {
		p := *d.Position
		d.Position = &p
	}
	d.Addresses = slices.Clone(d.Addresses)
	if d.Addresses == nil {
		d.Addresses = []string{}
	}
	return d
}

// WithPosition sets the pin.
func (d Draft) WithPosition(c geo.Coordinate) Draft {
	d = d.clone()
	d.Position = &c
	return d
}

// WithLanguage sets the door language.
func (d Draft) WithLanguage(l string) Draft {
	d = d.clone()
	d.Language = l
	return d
}

// WithInfo sets the building-level address line.
func (d Draft) WithInfo(info string) Draft {
	d = d.clone()
	d.Info = info
	return d
}

// WithDoors sets the door count, clamped to [0, MaxDoors], and resizes
// Addresses to match: growing appends empty entries, shrinking drops from
// the end.
func (d Draft) WithDoors(n int) Draft {
	n = clampDoors(n)
	d = d.clone()
	d.Doors = n
	switch {
	case len(d.Addresses) < n:
		d.Addresses = append(d.Addresses, make([]string, n-len(d.Addresses))...)
	case len(d.Addresses) > n:
		d.Addresses = d.Addresses[:n]
	}
	return d
}

func clampDoors(n int) int {
	return min(max(n, 0), MaxDoors)
}

// WithAddress sets the address of door i (0-based). Out-of-range indices
// leave the draft unchanged.
func (d Draft) WithAddress(i int, addr string) Draft {
	if i < 0 || i >= len(d.Addresses) {
		return d
	}
	d = d.clone()
	d.Addresses[i] = addr
	return d
}

// Address is the line stored on the building: Info if set, otherwise the
// first non-empty door address.
func (d Draft) Address() string {
	if d.Info != "" {
		return d.Info
	}
	for _, a := range d.Addresses {
		if a != "" {
			return a
		}
	}
	return ""
}

var validate = validator.New()

// Validate is the presence check run before submitting.
func (d Draft) Validate() error {
	if err := validate.Struct(d); err != nil {
		if d.Position == nil {
			return ErrPositionRequired
		}
		return err
	}
	return nil
}

// Request converts the draft to the API payload.
func (d Draft) Request() doorclient.CreateRequest {
	req := doorclient.CreateRequest{
		Info:          d.Address(),
		Language:      d.Language,
		NumberOfDoors: d.Doors,
	}
	if d.Position != nil {
		req.Lat = d.Position.Lat
		req.Long = d.Position.Lng
	}
	if slices.ContainsFunc(d.Addresses, func(a string) bool { return a != "" }) {
		req.Addresses = slices.Clone(d.Addresses)
	}
	return req
}
