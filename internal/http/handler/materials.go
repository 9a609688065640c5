package handler

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"trainingportal/internal/service"
)

// ListMaterials returns the names of the available training materials.
//
// @Summary List training materials
// @Tags materials
// @Produce json
// @Success 200 {object} service.MaterialListResult
// @Failure 500 {object} errorPayload
// @Router /api/materials [get]
func ListMaterials(svc service.MaterialService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.List(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, codeInternal, msgInternal)
		}
		return c.JSON(res)
	}
}

// DownloadMaterial streams a material as an attachment.
//
// @Summary Download a training material
// @Tags materials
// @Produce octet-stream
// @Param name path string true "Material file name"
// @Success 200 {file} binary
// @Failure 404 {object} errorPayload
// @Router /api/materials/{name}/download [get]
func DownloadMaterial(svc service.MaterialService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name, err := url.PathUnescape(c.Params("name"))
		if err != nil {
			return writeError(c, fiber.StatusNotFound, codeMaterialNotFound, msgMaterialNotFound)
		}

		rc, m, err := svc.Open(c.UserContext(), name)
		if err != nil {
			if errors.Is(err, service.ErrMaterialNotFound) || errors.Is(err, service.ErrMaterialRequired) {
				return writeError(c, fiber.StatusNotFound, codeMaterialNotFound, msgMaterialNotFound)
			}
			return writeError(c, fiber.StatusInternalServerError, codeInternal, msgInternal)
		}

		c.Attachment(m.Name)
		// Materials are always offered as opaque downloads.
		c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)

		size := -1
		if m.Size >= 0 {
			size = int(m.Size)
		}
		// fasthttp closes rc once the body has been written.
		return c.SendStream(rc, size)
	}
}

// downloadURL is the route a client follows to fetch a material.
func downloadURL(name string) string {
	return "/api/materials/" + url.PathEscape(name) + "/download"
}
