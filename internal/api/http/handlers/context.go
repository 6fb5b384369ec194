package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/plantpal-service/internal/auth"
	"github.com/spec-kit/plantpal-service/internal/upload"
	apperrors "github.com/spec-kit/plantpal-service/pkg/util"
)

func requireIdentity(c *fiber.Ctx) (auth.Identity, error) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return auth.Identity{}, apperrors.NewNoToken()
	}
	return identity, nil
}

func requireAsset(c *fiber.Ctx) (*upload.Asset, error) {
	asset, ok := upload.AssetFromContext(c)
	if !ok {
		return nil, apperrors.NewMissingFile(upload.DefaultField)
	}
	return asset, nil
}
