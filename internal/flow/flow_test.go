package flow

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-door/internal/geo"
)

var pin = geo.Coordinate{Lat: 13.08, Lng: 80.27}

func TestHappyPath(t *testing.T) {
	f := New()
	assert.Equal(t, PickingPin, f.State())
	assert.Equal(t, 2, f.State().Step())

	require.NoError(t, f.ConfirmPin(pin))
	assert.Equal(t, ConfirmingPin, f.State())
	assert.Equal(t, "/map/confirm", f.State().Path())

	require.NoError(t, f.AcceptPin())
	assert.Equal(t, EditingDetails, f.State())

	require.NoError(t, f.Update(func(d Draft) Draft {
		return d.WithLanguage("Tamil").WithInfo("Near temple").WithDoors(3)
	}))

	d, err := f.Save()
	require.NoError(t, err)
	assert.Equal(t, Submitted, f.State())
	assert.Equal(t, pin, *d.Position)

	req := d.Request()
	assert.Equal(t, 13.08, req.Lat)
	assert.Equal(t, 80.27, req.Long)
	assert.Equal(t, "Near temple", req.Info)
	assert.Equal(t, "Tamil", req.Language)
	assert.Equal(t, 3, req.NumberOfDoors)
	assert.Nil(t, req.Addresses)

	assert.Error(t, f.Update(func(d Draft) Draft { return d.WithDoors(1) }))
}

func TestCancelStepsBack(t *testing.T) {
	f := Resume(EditingDetails, NewDraft().WithPosition(pin))

	s, ok := f.Cancel()
	assert.True(t, ok)
	assert.Equal(t, ConfirmingPin, s)

	s, ok = f.Cancel()
	assert.True(t, ok)
	assert.Equal(t, PickingPin, s)

	s, ok = f.Cancel()
	assert.False(t, ok, "cancel from the first step leaves the flow")
	assert.Equal(t, PickingPin, s)

	assert.Equal(t, pin, *f.Draft().Position, "cancel keeps the draft")
}

func TestInvalidTransitions(t *testing.T) {
	f := New()
	assert.True(t, errors.Is(f.AcceptPin(), ErrInvalidTransition))
	_, err := f.Save()
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.True(t, errors.Is(f.Reopen(), ErrInvalidTransition))

	require.NoError(t, f.ConfirmPin(pin))
	assert.True(t, errors.Is(f.ConfirmPin(pin), ErrInvalidTransition))
}

func TestSaveRequiresPosition(t *testing.T) {
	f := Resume(EditingDetails, NewDraft())
	_, err := f.Save()
	assert.True(t, errors.Is(err, ErrPositionRequired))
	assert.Equal(t, EditingDetails, f.State())

	f = Resume(EditingDetails, NewDraft().WithPosition(pin).WithLanguage(""))
	_, err = f.Save()
	assert.Error(t, err)
}

func TestReopenAfterFailedSubmit(t *testing.T) {
	f := Resume(EditingDetails, NewDraft().WithPosition(pin).WithDoors(2))
	_, err := f.Save()
	require.NoError(t, err)

	require.NoError(t, f.Reopen())
	assert.Equal(t, EditingDetails, f.State())
	assert.Equal(t, 2, f.Draft().Doors)
}

func TestWithDoorsResizesAddresses(t *testing.T) {
	d := NewDraft().WithDoors(2).WithAddress(0, "A").WithAddress(1, "B")

	grown := d.WithDoors(5)
	assert.Equal(t, []string{"A", "B", "", "", ""}, grown.Addresses)

	shrunk := grown.WithAddress(4, "E").WithDoors(1)
	assert.Equal(t, []string{"A"}, shrunk.Addresses)

	assert.Equal(t, []string{"A", "B"}, d.Addresses, "earlier draft untouched")
	assert.Empty(t, d.WithDoors(-3).Addresses)
}

func TestWithDoorsGrowthProperty(t *testing.T) {
	for k := 0; k < 6; k++ {
		d := NewDraft().WithDoors(k)
		for i := range d.Addresses {
			d = d.WithAddress(i, string(rune('a'+i)))
		}
		grown := d.WithDoors(k + 3)
		require.Len(t, grown.Addresses, k+3)
		assert.Equal(t, d.Addresses, grown.Addresses[:k])
		assert.Equal(t, []string{"", "", ""}, grown.Addresses[k:])
	}
}

func TestWithAddressOutOfRange(t *testing.T) {
	d := NewDraft().WithDoors(1)
	assert.Equal(t, d, d.WithAddress(3, "x"))
	assert.Equal(t, d, d.WithAddress(-1, "x"))
}

func TestRequestCarriesPerDoorAddresses(t *testing.T) {
	d := NewDraft().WithPosition(pin).WithDoors(2).WithAddress(1, "Flat 2")
	req := d.Request()
	assert.Equal(t, "Flat 2", req.Info)
	assert.Equal(t, []string{"", "Flat 2"}, req.Addresses)
}

func TestParams(t *testing.T) {
	d := NewDraft().
		WithPosition(pin).
		WithLanguage("Hindi").
		WithInfo("Near temple").
		WithDoors(3).
		WithAddress(0, "Door 1").
		WithAddress(2, "Door 3")

	v := d.Params()
	assert.Equal(t, "13.08", v.Get("lat"))
	assert.Equal(t, "80.27", v.Get("lng"))
	assert.Equal(t, "3", v.Get("doors"))
	assert.Equal(t, "Near temple", v.Get("address"))
	assert.Equal(t, "Door 3", v.Get("address3"))
	assert.False(t, v.Has("address2"))

	back := ParseParams(v)
	assert.Equal(t, d, back)
}

func TestParseParamsTolerant(t *testing.T) {
	d := ParseParams(url.Values{"lat": {"abc"}, "lng": {"80"}, "doors": {"many"}})
	assert.Nil(t, d.Position)
	assert.Equal(t, 0, d.Doors)
	assert.Equal(t, DefaultLanguage, d.Language)
	assert.Equal(t, "/building/new?language=English", d.URL("/building/new"))
}

func TestDoorCountIsCapped(t *testing.T) {
	d := ParseParams(url.Values{"doors": {"20000000"}, "address200": {"Last"}, "address201": {"Gone"}})
	assert.Equal(t, MaxDoors, d.Doors)
	require.Len(t, d.Addresses, MaxDoors)
	assert.Equal(t, "Last", d.Addresses[MaxDoors-1])

	assert.Len(t, NewDraft().WithDoors(MaxDoors+1).Addresses, MaxDoors)

	over := NewDraft().WithPosition(pin)
	over.Doors = MaxDoors + 1
	assert.Error(t, over.Validate())
}
