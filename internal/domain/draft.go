package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Visibility controls where a product is listed on the storefront
type Visibility string

const (
	VisibilityVisible   Visibility = "visible"
	VisibilityInvisible Visibility = "invisible"
	VisibilityUnlisted  Visibility = "unlisted"
)

// MaxCoverImages is the number of cover images a product can carry
const MaxCoverImages = 9

// ProductDraft is a product that has not been submitted yet, together with
// every binary that must be uploaded once the record exists.
//
// swagger:model
type ProductDraft struct {
	// The product title
	//
	// required: true
	// example: F-16 Fighting Falcon
	Title string `json:"title" validate:"required"`

	// The price in USD
	//
	// required: true
	// example: 5.00
	PriceUSD decimal.Decimal `json:"price_usd" validate:"gte=0"`

	// The price in Robux, if the product can be bought with Robux
	//
	// required: false
	// example: 400
	PriceRobux *int64 `json:"price_robux,omitempty" validate:"omitempty,gte=0"`

	// The category the product is listed under
	//
	// required: true
	// example: 3
	CategoryID int64 `json:"category_id" validate:"required,gt=0"`

	// The revenue-share partner credited for the product
	//
	// required: false
	DeveloperID *int64 `json:"developer_id,omitempty" validate:"omitempty,gt=0"`

	// Free-form description
	//
	// required: false
	Description string `json:"description,omitempty"`

	// Storefront visibility
	//
	// required: false
	// enum: visible,invisible,unlisted
	Visibility Visibility `json:"visibility" validate:"visibility"`

	// Tags for the product, deduplicated by the store
	//
	// required: false
	Tags []string `json:"tags"`

	// The first cover image is the main image
	CoverImages []Blob `json:"-" validate:"max=9"`

	Video *Blob `json:"-" validate:"omitempty"`

	// Deliverables sent to the customer after purchase
	ProductFiles []Blob `json:"-" validate:"min=1"`
}

// ParseTags splits comma-separated tag input, dropping blanks
func ParseTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// ParseVisibility returns the visibility for s, defaulting to visible when s is blank
func ParseVisibility(s string) Visibility {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return VisibilityVisible
	}
	return Visibility(s)
}

// Valid reports whether v is one of the known visibilities
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityVisible, VisibilityInvisible, VisibilityUnlisted:
		return true
	}
	return false
}
