package storeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/kahvecikaan/storefront-admin/internal/domain"
)

// CreateProductRequest carries the scalar fields of a new product
type CreateProductRequest struct {
	Name        string      `json:"name"`
	Price       json.Number `json:"price"`
	RobuxPrice  *int64      `json:"robux_price"`
	CategoryID  int64       `json:"category_id"`
	Description string      `json:"description,omitempty"`
	Visibility  string      `json:"visibility"`
	Tags        []string    `json:"tags"`
	DeveloperID *int64      `json:"developer_id"`
}

// NewCreateProductRequest builds the create payload from a draft
func NewCreateProductRequest(d *domain.ProductDraft) CreateProductRequest {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return CreateProductRequest{
		Name:        d.Title,
		Price:       json.Number(d.PriceUSD.StringFixed(2)),
		RobuxPrice:  d.PriceRobux,
		CategoryID:  d.CategoryID,
		Description: d.Description,
		Visibility:  string(d.Visibility),
		Tags:        tags,
		DeveloperID: d.DeveloperID,
	}
}

// CreatedProduct is the identity assigned by the store to a new product
type CreatedProduct struct {
	ID int64 `json:"id"`
}

// UploadResult is the stored asset reference returned by an upload
type UploadResult struct {
	URL      string `json:"url"`
	Attempts int    `json:"-"`
}

// CreateProduct creates the product record. It is not retried: a retry after
// an ambiguous failure could create a duplicate product.
func (c *Client) CreateProduct(ctx context.Context, req CreateProductRequest) (*CreatedProduct, error) {
	c.log.Debug("Creating product", "name", req.Name, "category_id", req.CategoryID)

	var created CreatedProduct
	if err := c.postJSON(ctx, "create product", "/products", req, &created); err != nil {
		return nil, err
	}
	if created.ID == 0 {
		return nil, &Error{Op: "create product", Kind: domain.FailureServer, Message: "store did not return a product id", Attempts: 1}
	}

	c.log.Info("Created product", "id", created.ID, "name", req.Name)
	return &created, nil
}

// UploadCoverImage uploads one cover image for the product
func (c *Client) UploadCoverImage(ctx context.Context, productID int64, blob domain.Blob) (*UploadResult, error) {
	return c.upload(ctx, "upload cover image", productID, "image", blob)
}

// UploadVideo uploads the product video
func (c *Client) UploadVideo(ctx context.Context, productID int64, blob domain.Blob) (*UploadResult, error) {
	return c.upload(ctx, "upload video", productID, "video", blob)
}

// UploadProductFile uploads one downloadable product file
func (c *Client) UploadProductFile(ctx context.Context, productID int64, blob domain.Blob) (*UploadResult, error) {
	return c.upload(ctx, "upload product file", productID, "file", blob)
}

func (c *Client) upload(ctx context.Context, op string, productID int64, target string, blob domain.Blob) (*UploadResult, error) {
	path := fmt.Sprintf("/upload/%d/%s", productID, target)
	c.log.Debug("Uploading", "op", op, "product_id", productID, "name", blob.Name, "size", blob.Size)

	var result UploadResult
	_, attempts, err := c.send(ctx, op, http.MethodPost, path, c.cfg.StepTimeout, c.cfg.MaxRetries,
		func() (*resty.Request, func(), error) {
			body, err := blob.Open()
			if err != nil {
				return nil, nil, err
			}
			result = UploadResult{}
			req := c.http.R().
				SetMultipartField("file", blob.Name, blob.ContentType, body).
				SetResult(&result)
			return req, func() { body.Close() }, nil
		})
	if err != nil {
		return nil, err
	}

	result.Attempts = attempts
	return &result, nil
}
