package handler

import (
	"bytes"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"trainingportal/internal/service"
)

// SpreadsheetContentType is served with the access log download.
const SpreadsheetContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type recordAccessRequest struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Material string `json:"material" form:"material"`
}

type recordAccessResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	Material          string `json:"material"`
	MaterialAvailable bool   `json:"material_available"`
	DownloadURL       string `json:"download_url,omitempty"`
}

// RecordAccess logs who accessed which material and hands back the download link.
//
// @Summary Record material access
// @Tags access
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param body body recordAccessRequest true "Employee and material"
// @Success 201 {object} recordAccessResponse
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/access [post]
func RecordAccess(accessSvc service.AccessService, materialSvc service.MaterialService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req recordAccessRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, codeBadRequest, msgInvalidBody)
		}

		material := req.Material
		if strings.TrimSpace(material) == "" {
			return writeError(c, fiber.StatusBadRequest, codeMaterialRequired, msgMaterialRequired)
		}

		res, err := accessSvc.Record(c.UserContext(), req.Name, req.Email, material)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, codeInternal, msgInternal)
		}
		if !res.Success {
			return writeError(c, fiber.StatusBadRequest, codeValidation, res.Message)
		}

		// The record stands even if the material disappeared after it was listed.
		available, err := materialSvc.Exists(c.UserContext(), material)
		if err != nil {
			available = false
		}

		out := recordAccessResponse{
			Success:           true,
			Message:           res.Message,
			Material:          material,
			MaterialAvailable: available,
		}
		if available {
			out.DownloadURL = downloadURL(material)
		}
		return c.Status(fiber.StatusCreated).JSON(out)
	}
}

// ListAccessLog returns every access record in insertion order.
//
// @Summary View the access log
// @Tags admin
// @Produce json
// @Success 200 {object} service.AccessLogResult
// @Failure 500 {object} errorPayload
// @Router /api/admin/access-log [get]
func ListAccessLog(svc service.AccessService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Log(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, codeInternal, msgInternal)
		}
		return c.JSON(res)
	}
}

// DownloadAccessLog serves the access log as a spreadsheet attachment.
//
// @Summary Download the access log
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 404 {object} errorPayload
// @Router /api/admin/access-log/download [get]
func DownloadAccessLog(svc service.AccessService, filename string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Buffered so a missing log can still be answered with a JSON 404.
		var buf bytes.Buffer
		if err := svc.ExportLog(c.UserContext(), &buf); err != nil {
			if errors.Is(err, service.ErrLogNotFound) {
				return writeError(c, fiber.StatusNotFound, codeLogNotFound, msgLogNotFound)
			}
			return writeError(c, fiber.StatusInternalServerError, codeInternal, msgInternal)
		}

		c.Attachment(filename)
		c.Set(fiber.HeaderContentType, SpreadsheetContentType)
		return c.Send(buf.Bytes())
	}
}
