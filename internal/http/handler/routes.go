package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"trainingportal/internal/http/middleware"
	"trainingportal/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// db may be nil when no database backs the access log.
// logFilename is the attachment name used for the access log download.
func RegisterRoutes(app *fiber.App, db *sql.DB, materialSvc service.MaterialService, accessSvc service.AccessService, logFilename string) {
	app.Get("/", Index())

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")
	api.Get("/materials", ListMaterials(materialSvc))
	api.Get("/materials/:name/download", DownloadMaterial(materialSvc))
	api.Post("/access", RecordAccess(accessSvc, materialSvc))

	admin := api.Group("/admin", middleware.NoStore())
	admin.Get("/access-log", ListAccessLog(accessSvc))
	admin.Get("/access-log/download", DownloadAccessLog(accessSvc, logFilename))
}
