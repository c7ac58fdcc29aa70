package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/hashicorp/go-hclog"
	"github.com/kahvecikaan/storefront-admin/internal/crop"
	"github.com/kahvecikaan/storefront-admin/internal/domain"
)

// maxCropMemory is the part of a crop upload kept in memory before spilling to disk
const maxCropMemory = 32 << 20

type ImageHandler struct {
	logger   hclog.Logger
	maxBytes int64
}

func NewImageHandler(log hclog.Logger, maxBytes int64) *ImageHandler {
	return &ImageHandler{logger: log, maxBytes: maxBytes}
}

// Crop handles POST /images/crop
//
// swagger:route POST /images/crop images cropImage
//
// Crops a cover image to the 16:10 product card frame and returns it as JPEG.
// Without a region the centered default is used. With skip=1 the file is
// returned unchanged.
//
// Consumes:
// - multipart/form-data
//
// Produces:
// - image/jpeg
//
// Responses:
//
//	200: imageResponse
//	400: errorResponse
//	401: errorResponse
//	413: errorResponse
func (h *ImageHandler) Crop(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(maxCropMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Image is too large")
			return
		}
		h.logger.Error("Unable to parse multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Unable to parse form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.logger.Error("Unable to get file from form data", "error", err)
		writeError(w, http.StatusBadRequest, "Unable to get file from form data")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Unable to read uploaded image", "error", err)
		writeError(w, http.StatusBadRequest, "Unable to read image")
		return
	}
	src := domain.BytesBlob(header.Filename, header.Header.Get("Content-Type"), data)

	if r.FormValue("skip") == "1" {
		h.logger.Debug("Crop skipped", "filename", src.Name)
		h.writeBlob(w, crop.Skip(src), false)
		return
	}

	width, height, err := crop.Bounds(src)
	if err != nil {
		h.logger.Error("Unable to read image", "filename", src.Name, "error", err)
		writeError(w, http.StatusBadRequest, "File is not a supported image")
		return
	}

	region, err := regionFromForm(r, width, height)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, cropped := crop.ApplyOrOriginal(src, region)
	if !cropped {
		h.logger.Warn("Crop produced no region, returning original", "filename", src.Name)
	}
	h.writeBlob(w, out, cropped)
}

func (h *ImageHandler) writeBlob(w http.ResponseWriter, b domain.Blob, cropped bool) {
	data, err := b.Bytes()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Unable to write image")
		return
	}

	w.Header().Set("Content-Type", b.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", b.Name))
	w.Header().Set("X-Crop-Applied", strconv.FormatBool(cropped))
	w.Write(data)
}

// regionFromForm reads x, y, width and height, scaled from the preview size
// when display_width and display_height are given. The result is always
// fitted to the product card aspect.
func regionFromForm(r *http.Request, naturalW, naturalH int) (crop.Region, error) {
	if r.FormValue("width") == "" {
		return crop.CenterAspectCrop(naturalW, naturalH, crop.Aspect), nil
	}

	var (
		region crop.Region
		err    error
	)
	fields := []struct {
		name string
		dst  *float64
	}{
		{"x", &region.X},
		{"y", &region.Y},
		{"width", &region.Width},
		{"height", &region.Height},
	}
	for _, f := range fields {
		if *f.dst, err = strconv.ParseFloat(r.FormValue(f.name), 64); err != nil {
			return crop.Region{}, fmt.Errorf("%s must be a number", f.name)
		}
	}

	dw, _ := strconv.Atoi(r.FormValue("display_width"))
	dh, _ := strconv.Atoi(r.FormValue("display_height"))
	region = crop.ScaleRegion(region, dw, dh, naturalW, naturalH)
	return crop.FitAspect(region, crop.Aspect), nil
}
