package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kahvecikaan/storefront-admin/internal/domain"
	"github.com/kahvecikaan/storefront-admin/internal/files"
	"github.com/shopspring/decimal"
)

// Multipart field names of the product form
const (
	fieldTitle        = "title"
	fieldPriceUSD     = "price_usd"
	fieldPriceRobux   = "price_robux"
	fieldCategoryID   = "category_id"
	fieldDeveloperID  = "developer_id"
	fieldDescription  = "description"
	fieldVisibility   = "visibility"
	fieldTags         = "tags"
	fieldCoverImages  = "cover_images"
	fieldVideo        = "video"
	fieldProductFiles = "product_files"
)

// maxFieldSize bounds a single non-file form value
const maxFieldSize = 64 << 10

// readDraft streams the multipart product form. Files are written to the
// staging store under key as they arrive, so large uploads never sit in memory.
func readDraft(r *http.Request, staging files.Storage, key string) (*domain.ProductDraft, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}

	draft := &domain.ProductDraft{Visibility: domain.VisibilityVisible, Tags: []string{}}
	var verrs domain.ValidationErrors
	pricedUSD := false

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to read form: %w", err)
		}

		if part.FileName() != "" {
			err = stagePart(draft, part, staging, key)
			part.Close()
			if err != nil {
				return nil, err
			}
			continue
		}

		value, err := io.ReadAll(io.LimitReader(part, maxFieldSize+1))
		part.Close()
		if err != nil {
			return nil, fmt.Errorf("unable to read field %q: %w", part.FormName(), err)
		}
		if len(value) > maxFieldSize {
			verrs = append(verrs, domain.ValidationError{
				Field:   part.FormName(),
				Message: fmt.Sprintf("must be at most %d bytes", maxFieldSize),
			})
			continue
		}
		if part.FormName() == fieldPriceUSD {
			pricedUSD = true
		}
		if ve := setField(draft, part.FormName(), strings.TrimSpace(string(value))); ve != nil {
			verrs = append(verrs, *ve)
		}
	}

	if !pricedUSD {
		verrs = append(verrs, domain.ValidationError{Field: "PriceUSD", Message: "is required"})
	}
	if len(verrs) > 0 {
		return nil, verrs
	}
	return draft, nil
}

// setField applies one scalar form value to the draft
func setField(d *domain.ProductDraft, name, value string) *domain.ValidationError {
	switch name {
	case fieldTitle:
		d.Title = value
	case fieldDescription:
		d.Description = value
	case fieldVisibility:
		d.Visibility = domain.ParseVisibility(value)
	case fieldTags:
		d.Tags = domain.ParseTags(value)
	case fieldPriceUSD:
		price, err := decimal.NewFromString(value)
		if err != nil {
			return &domain.ValidationError{Field: "PriceUSD", Message: "must be a decimal number"}
		}
		d.PriceUSD = price
	case fieldPriceRobux:
		if value == "" {
			return nil
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return &domain.ValidationError{Field: "PriceRobux", Message: "must be a whole number"}
		}
		d.PriceRobux = &n
	case fieldCategoryID:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return &domain.ValidationError{Field: "CategoryID", Message: "must be a whole number"}
		}
		d.CategoryID = n
	case fieldDeveloperID:
		if value == "" {
			return nil
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return &domain.ValidationError{Field: "DeveloperID", Message: "must be a whole number"}
		}
		d.DeveloperID = &n
	}
	return nil
}

// stagePart writes one uploaded file to staging and attaches it to the draft
func stagePart(d *domain.ProductDraft, part *multipart.Part, staging files.Storage, key string) error {
	field := part.FormName()

	var index int
	switch field {
	case fieldCoverImages:
		if len(d.CoverImages) >= domain.MaxCoverImages {
			return domain.ErrTooManyCoverImages
		}
		index = len(d.CoverImages)
	case fieldVideo:
		if d.Video != nil {
			return domain.ValidationErrors{{Field: "Video", Message: "only one video is allowed"}}
		}
	case fieldProductFiles:
		index = len(d.ProductFiles)
	default:
		return domain.ValidationErrors{{Field: field, Message: "unexpected file field"}}
	}

	name := filepath.Base(filepath.Clean("/" + part.FileName()))
	if name == "/" || name == "." {
		return domain.ValidationErrors{{Field: field, Message: "file name is required"}}
	}

	stagedPath := path.Join(key, field, strconv.Itoa(index), name)
	size, err := staging.Save(stagedPath, part)
	if err != nil {
		if errors.Is(err, files.ErrFileTooLarge) {
			return fmt.Errorf("%s: %w", name, err)
		}
		return fmt.Errorf("unable to stage %s: %w", name, err)
	}

	blob := files.Blob(staging, stagedPath, name, part.Header.Get("Content-Type"), size)
	switch field {
	case fieldCoverImages:
		d.CoverImages = append(d.CoverImages, blob)
	case fieldVideo:
		d.Video = &blob
	case fieldProductFiles:
		d.ProductFiles = append(d.ProductFiles, blob)
	}
	return nil
}
