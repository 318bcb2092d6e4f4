package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"wara/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin; all business logic lives in the services.
func RegisterRoutes(
	app *fiber.App,
	db *sql.DB,
	docSvc service.DocumentService,
	cmpSvc service.ComparisonService,
	repSvc service.ReportService,
	llmClient LLMStatusProvider,
) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Post("/documents", UploadDocument(docSvc))
	app.Get("/documents", ListDocuments(docSvc))
	app.Get("/documents/:id", GetDocument(docSvc))
	app.Post("/documents/:id/versions", UploadDocumentVersion(docSvc))
	app.Get("/documents/:id/versions", ListDocumentVersions(docSvc))
	app.Get("/documents/:id/content", GetDocumentContent(docSvc))
	app.Get("/documents/:id/download", DownloadDocument(docSvc))
	app.Get("/documents/:id/key-points", DocumentKeyPoints(docSvc))
	app.Get("/documents/:id/sentiment", DocumentSentiment(docSvc))
	app.Delete("/documents/:id", DeleteDocument(docSvc))

	app.Post("/comparisons", CreateComparison(cmpSvc))
	app.Get("/comparisons", ListComparisons(cmpSvc))
	app.Get("/comparisons/:id", GetComparison(cmpSvc))
	app.Get("/comparisons/:id/changes", ListComparisonChanges(cmpSvc))
	app.Delete("/comparisons/:id", DeleteComparison(cmpSvc))

	app.Post("/reports", CreateReport(repSvc))
	app.Get("/reports", ListReports(repSvc))
	app.Get("/reports/:id", GetReport(repSvc))
	app.Get("/reports/:id/download", DownloadReport(repSvc))
	app.Delete("/reports/:id", DeleteReport(repSvc))

	app.Get("/llm/health", LLMHealth(llmClient))
	app.Get("/llm/models", ListLLMModels(llmClient))
}
