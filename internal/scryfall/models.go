package scryfall

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Card is the subset of a Scryfall card object the buylist consumes.
type Card struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Layout    string     `json:"layout"`
	ImageURIs *ImageURIs `json:"image_uris,omitempty"`
	ManaCost  *string    `json:"mana_cost,omitempty"`
	CMC       *float64   `json:"cmc,omitempty"`
	CardFaces []CardFace `json:"card_faces,omitempty"`
	Prices    Prices     `json:"prices"`
}

// CardFace represents one face of a multi-faced card.
type CardFace struct {
	Name      string     `json:"name"`
	ManaCost  string     `json:"mana_cost,omitempty"`
	ImageURIs *ImageURIs `json:"image_uris,omitempty"`
}

// ImageURIs contains URLs for card images in various sizes.
type ImageURIs struct {
	Small  string `json:"small"`
	Normal string `json:"normal"`
	Large  string `json:"large"`
	PNG    string `json:"png"`
}

// Prices represents the prices of a card in various currencies.
type Prices struct {
	USD     *string `json:"usd,omitempty"`
	USDFoil *string `json:"usd_foil,omitempty"`
	EUR     *string `json:"eur,omitempty"`
}

// Face is one printed face of a looked-up card.
type Face struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

// CardLookup is the outcome of a successful exact-name lookup.
// Price, ManaCost and ConvertedManaCost are nil when Scryfall has no value.
type CardLookup struct {
	Name              string           `json:"name"`
	Price             *decimal.Decimal `json:"price,omitempty"`
	ManaCost          *string          `json:"manaCost,omitempty"`
	ConvertedManaCost *float64         `json:"convertedManaCost,omitempty"`
	Faces             []Face           `json:"faces"`
}

// HasImage reports whether at least one face carries an image URL.
func (l *CardLookup) HasImage() bool {
	for _, f := range l.Faces {
		if f.ImageURL != "" {
			return true
		}
	}
	return false
}

// ImageURL returns the first face image, or "" when there is none.
func (l *CardLookup) ImageURL() string {
	for _, f := range l.Faces {
		if f.ImageURL != "" {
			return f.ImageURL
		}
	}
	return ""
}

// ToLookup converts a raw card into a CardLookup.
// An unparseable price is treated as missing.
func (c *Card) ToLookup() *CardLookup {
	lookup := &CardLookup{
		Name:              c.Name,
		ConvertedManaCost: c.CMC,
	}

	if c.Prices.USD != nil && *c.Prices.USD != "" {
		if price, err := decimal.NewFromString(*c.Prices.USD); err == nil {
			lookup.Price = &price
		}
	}

	switch {
	case c.ManaCost != nil && *c.ManaCost != "":
		cost := *c.ManaCost
		lookup.ManaCost = &cost
	case len(c.CardFaces) > 0:
		var costs []string
		for _, f := range c.CardFaces {
			if f.ManaCost != "" {
				costs = append(costs, f.ManaCost)
			}
		}
		if len(costs) > 0 {
			joined := strings.Join(costs, " // ")
			lookup.ManaCost = &joined
		}
	}

	// Two-faced cards carry images per face; split and adventure cards
	// share one top-level image.
	if c.ImageURIs != nil && c.ImageURIs.Normal != "" {
		lookup.Faces = []Face{{Name: c.Name, ImageURL: c.ImageURIs.Normal}}
	} else {
		for _, f := range c.CardFaces {
			if f.ImageURIs == nil || f.ImageURIs.Normal == "" {
				continue
			}
			lookup.Faces = append(lookup.Faces, Face{Name: f.Name, ImageURL: f.ImageURIs.Normal})
		}
	}

	return lookup
}

// APIError represents an error response from the Scryfall API.
type APIError struct {
	Object   string   `json:"object"`
	Code     string   `json:"code"`
	Status   int      `json:"status"`
	Details  string   `json:"details"`
	Type     string   `json:"type,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("Scryfall API error (HTTP %d): %s", e.Status, e.Details)
	}
	return fmt.Sprintf("Scryfall API error (HTTP %d): %s", e.Status, e.Code)
}

// NotFoundError represents a 404 error from the API.
type NotFoundError struct {
	Name string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("card not found: %s", e.Name)
}

// IsNotFound returns true if err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
