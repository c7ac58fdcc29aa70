package storeapi

import (
	"context"
	"errors"
	"net/http"
)

// Category is a storefront category
type Category struct {
	ID           int64  `json:"id"`
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	ProductCount int    `json:"product_count"`
}

// Developer is a revenue-share partner
type Developer struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	RevenuePercent float64 `json:"revenue_percent"`
}

// ListCategories returns every category known to the store
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.getJSON(ctx, "list categories", "/categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// ListDevelopers returns every revenue-share partner
func (c *Client) ListDevelopers(ctx context.Context) ([]Developer, error) {
	var developers []Developer
	if err := c.getJSON(ctx, "list developers", "/developers", &developers); err != nil {
		return nil, err
	}
	return developers, nil
}

// ErrInvalidPassword is returned when the store rejects the admin password
var ErrInvalidPassword = errors.New("invalid password")

// VerifyAdminPassword checks the admin password against the store
func (c *Client) VerifyAdminPassword(ctx context.Context, password string) error {
	var out struct {
		Success bool `json:"success"`
	}

	err := c.postJSON(ctx, "verify admin password", "/auth/admin/verify", map[string]string{"password": password}, &out)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) &&
			(apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
			return ErrInvalidPassword
		}
		return err
	}

	if !out.Success {
		return ErrInvalidPassword
	}
	return nil
}
