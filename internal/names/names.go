// Package names resolves item and location identifiers to display names from
// static reference-data files. The catalogs are loaded once at startup and
// treated as immutable afterwards; a missing mapping echoes the raw
// identifier so output decoration can never fail a computation.
package names

import (
	"encoding/json"
	"fmt"
	"os"
)

// itemRecord matches one entry of the items reference file.
type itemRecord struct {
	UniqueName     string            `json:"UniqueName"`
	LocalizedNames map[string]string `json:"LocalizedNames"`
}

// locationRecord matches one entry of the world reference file.
type locationRecord struct {
	Index      string `json:"Index"`
	UniqueName string `json:"UniqueName"`
}

// Catalog holds the loaded display-name mappings.
type Catalog struct {
	items     map[string]string
	locations map[string]string
}

// Empty returns a catalog with no mappings; every lookup echoes its input.
func Empty() *Catalog {
	return &Catalog{
		items:     map[string]string{},
		locations: map[string]string{},
	}
}

// Load reads the item and world reference files. Either path may be empty,
// leaving that mapping unpopulated. locale selects which localized item name
// to index, e.g. "EN-US".
func Load(itemsPath, worldPath, locale string) (*Catalog, error) {
	c := Empty()

	if itemsPath != "" {
		data, err := os.ReadFile(itemsPath)
		if err != nil {
			return nil, fmt.Errorf("read items file: %w", err)
		}
		var records []itemRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parse items file: %w", err)
		}
		for _, r := range records {
			if r.UniqueName == "" {
				continue
			}
			if name := r.LocalizedNames[locale]; name != "" {
				c.items[r.UniqueName] = name
			}
		}
	}

	if worldPath != "" {
		data, err := os.ReadFile(worldPath)
		if err != nil {
			return nil, fmt.Errorf("read world file: %w", err)
		}
		var records []locationRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parse world file: %w", err)
		}
		for _, r := range records {
			if r.Index != "" && r.UniqueName != "" {
				c.locations[r.Index] = r.UniqueName
			}
		}
	}

	return c, nil
}

// ItemName returns the display name for an item, or the identifier itself.
func (c *Catalog) ItemName(itemTypeID string) string {
	if name, ok := c.items[itemTypeID]; ok {
		return name
	}
	return itemTypeID
}

// LocationName returns the display name for a location, or the identifier.
func (c *Catalog) LocationName(locationID string) string {
	if name, ok := c.locations[locationID]; ok {
		return name
	}
	return locationID
}

// Items returns a copy of the item-name mapping for the reference endpoint.
func (c *Catalog) Items() map[string]string {
	out := make(map[string]string, len(c.items))
	for k, v := range c.items {
		out[k] = v
	}
	return out
}

// Locations returns a copy of the location-name mapping.
func (c *Catalog) Locations() map[string]string {
	out := make(map[string]string, len(c.locations))
	for k, v := range c.locations {
		out[k] = v
	}
	return out
}
