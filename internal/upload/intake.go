package upload

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/plantpal-service/pkg/util"
)

const (
	// DefaultField is the multipart field holding the image.
	DefaultField = "image"
	// DefaultMaxBytes bounds a single upload.
	DefaultMaxBytes int64 = 8 << 20
	// MaxInMemoryBytes is the largest limit that keeps fasthttp from spilling parts to temp files.
	MaxInMemoryBytes int64 = 15 << 20
	// multipartOverhead leaves room for boundaries, part headers and form fields.
	multipartOverhead int64 = 1 << 20

	assetKey = "upload_asset"
)

// Config describes the upload accepted by a route.
type Config struct {
	Field    string
	Required bool
	MaxBytes int64
}

// Normalized fills defaults and clamps MaxBytes to MaxInMemoryBytes.
func (cfg Config) Normalized() Config {
	if cfg.Field == "" {
		cfg.Field = DefaultField
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.MaxBytes > MaxInMemoryBytes {
		cfg.MaxBytes = MaxInMemoryBytes
	}
	return cfg
}

// BodyLimit is the request body limit matching the normalized file cap. It
// never exceeds fasthttp's in-memory multipart threshold of 16 MiB.
func (cfg Config) BodyLimit() int {
	return int(cfg.Normalized().MaxBytes + multipartOverhead)
}

// Single accepts at most one file per request, buffered in memory, and exposes it
// through AssetFromContext. The asset reference is dropped once the chain returns.
func Single(cfg Config) fiber.Handler {
	cfg = cfg.Normalized()

	return func(c *fiber.Ctx) error {
		asset, err := readSingle(c, cfg)
		if err != nil {
			return err
		}
		if asset == nil {
			if cfg.Required {
				return apperrors.NewMissingFile(cfg.Field)
			}
			return c.Next()
		}

		c.Locals(assetKey, asset)
		err = c.Next()
		c.Locals(assetKey, nil)
		return err
	}
}

// AssetFromContext returns the asset accepted by Single, if any.
func AssetFromContext(c *fiber.Ctx) (*Asset, bool) {
	asset, ok := c.Locals(assetKey).(*Asset)
	return asset, ok && asset != nil
}

func readSingle(c *fiber.Ctx, cfg Config) (*Asset, error) {
	if !strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.NewValidationError("malformed multipart body", nil)
	}

	total := 0
	for _, headers := range form.File {
		total += len(headers)
	}
	if total > 1 {
		return nil, apperrors.NewTooManyFiles(cfg.Field)
	}

	headers := form.File[cfg.Field]
	if len(headers) == 0 {
		return nil, nil
	}
	header := headers[0]
	if header.Size > cfg.MaxBytes {
		return nil, apperrors.NewFileTooLarge(cfg.MaxBytes)
	}

	file, err := header.Open()
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("open upload: %w", err))
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, cfg.MaxBytes+1))
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("read upload: %w", err))
	}
	if int64(len(data)) > cfg.MaxBytes {
		return nil, apperrors.NewFileTooLarge(cfg.MaxBytes)
	}
	if len(data) == 0 {
		return nil, nil
	}

	return NewAsset(cfg.Field, header.Filename, mimeTypeOf(header.Header.Get(fiber.HeaderContentType), data), data), nil
}

func mimeTypeOf(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != fiber.MIMEOctetStream {
		return declared
	}
	return http.DetectContentType(data)
}
