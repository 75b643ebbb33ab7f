package handler

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/venkat-sld/shoplive/internal/media"
	"github.com/venkat-sld/shoplive/pkg/logger"
	"github.com/venkat-sld/shoplive/prometheus"
	"go.uber.org/zap"
)

// multipart framing allowance on top of the image limit
const multipartOverhead = 64 << 10

// ImageFormField is the multipart field carrying the upload
const ImageFormField = "image"

// UploadHandler stores and removes product images
type UploadHandler struct {
	images *media.LocalStore
}

func NewUploadHandler(images *media.LocalStore) *UploadHandler {
	return &UploadHandler{images: images}
}

// UploadImage handles POST /api/upload/image
func (h *UploadHandler) UploadImage(c echo.Context) error {
	log := logger.FromEcho(c)

	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, h.images.MaxBytes()+multipartOverhead)

	file, err := c.FormFile(ImageFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			prometheus.RecordImageOperation("upload", false)
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "File too large"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "No image file provided"})
	}
	if file.Size > h.images.MaxBytes() {
		prometheus.RecordImageOperation("upload", false)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "File too large"})
	}

	src, err := file.Open()
	if err != nil {
		log.Error("Failed to open uploaded file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to upload image"})
	}
	defer src.Close()

	stored, err := h.images.Save(src, file.Filename, file.Header.Get(echo.HeaderContentType))
	prometheus.RecordImageOperation("upload", err == nil)
	switch {
	case errors.Is(err, media.ErrNotImage):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Only image files are allowed"})
	case errors.Is(err, media.ErrTooLarge):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "File too large"})
	case err != nil:
		log.Error("Failed to store image", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to upload image"})
	}

	log.Info("Image uploaded", zap.String("filename", stored.Filename), zap.Int64("size", stored.Size))
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"imagePath": stored.Path,
		"filename":  stored.Filename,
	})
}

// DeleteImage handles DELETE /api/upload/image/:filename
func (h *UploadHandler) DeleteImage(c echo.Context) error {
	log := logger.FromEcho(c)
	filename := c.Param("filename")

	err := h.images.Delete(filename)
	prometheus.RecordImageOperation("delete", err == nil)
	switch {
	case errors.Is(err, media.ErrInvalidFilename):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid filename"})
	case errors.Is(err, fs.ErrNotExist):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Image not found"})
	case err != nil:
		log.Error("Failed to delete image", zap.String("filename", filename), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete image"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
