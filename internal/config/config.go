// Package config loads the YAML settings file that carries the deployment
// constants (foreign keys, default location, tile providers, zoom levels).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-door/internal/geo"
	"github.com/joeblew999/plat-door/internal/mapview"
)

// Settings is the full settings document.
type Settings struct {
	// Foreign keys written with every building and door.
	TerritoryID        int64 `yaml:"territoryId" validate:"gt=0"`
	CongregationAppID  int64 `yaml:"congregationAppId" validate:"gt=0"`
	CongregationLangID int64 `yaml:"congregationLangId" validate:"gt=0"`

	DefaultLocation geo.Coordinate  `yaml:"defaultLocation"`
	Zoom            Zoom            `yaml:"zoom"`
	Tiles           mapview.TileSet `yaml:"tiles"`
	Languages       []string        `yaml:"languages" validate:"min=1,dive,required"`
	Pins            Pins            `yaml:"pins"`

	LocateTimeout time.Duration `yaml:"locateTimeout" validate:"gt=0"`
	SubmitTimeout time.Duration `yaml:"submitTimeout" validate:"gt=0"`
	SessionTTL    time.Duration `yaml:"sessionTTL" validate:"gt=0"`
}

// Zoom holds the initial zoom of each picker screen.
type Zoom struct {
	Home    int `yaml:"home" validate:"gte=1,lte=25"`
	PickPin int `yaml:"pickPin" validate:"gte=1,lte=25"`
	Confirm int `yaml:"confirm" validate:"gte=1,lte=25"`
	Details int `yaml:"details" validate:"gte=1,lte=25"`
}

// Pins bounds the static pins shown on the home map.
type Pins struct {
	Limit int `yaml:"limit" validate:"gte=0,lte=500"`
}

// Defaults returns the settings used when no file is present.
func Defaults() Settings {
	return Settings{
		TerritoryID:        1,
		CongregationAppID:  1,
		CongregationLangID: 1,
		DefaultLocation:    geo.DefaultLocation,
		Zoom:               Zoom{Home: 16, PickPin: 12, Confirm: 25, Details: 13},
		Tiles:              mapview.DefaultTiles,
		Languages:          []string{"English", "Tamil", "Hindi", "Telugu", "Malayalam"},
		Pins:               Pins{Limit: 50},
		LocateTimeout:      10 * time.Second,
		SubmitTimeout:      15 * time.Second,
		SessionTTL:         30 * time.Minute,
	}
}

var validate = validator.New()

// Load reads path over the defaults. A missing file is not an error; the
// returned bool reports whether the file was found.
func Load(path string) (Settings, bool, error) {
	s := Defaults()
	if path == "" {
		return s, false, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, false, nil
	}
	if err != nil {
		return Settings{}, false, fmt.Errorf("read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, true, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, true, fmt.Errorf("settings %s: %w", path, err)
	}
	return s, true, nil
}

// Validate checks presence and ranges.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return err
	}
	if !s.DefaultLocation.Valid() {
		return fmt.Errorf("defaultLocation: %w", geo.ErrOutOfRange)
	}
	return nil
}
