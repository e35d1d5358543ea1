package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"supplierportal/internal/http/middleware"
	"supplierportal/internal/model"
	"supplierportal/internal/service"
)

// Deps is what the routes need.
type Deps struct {
	DB           *sql.DB
	Applications service.ApplicationService
	Documents    service.DocumentService
	Contracts    service.ContractService
	Verifier     middleware.TokenVerifier
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Everything
// but the probes requires a bearer token.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())

	// Auth is attached per route so unknown paths still answer 404.
	auth := middleware.Auth(d.Verifier)

	// Fixed paths before /applications/:id.
	app.Get("/applications/mine", auth, ListMyApplications(d.Applications))
	app.Get("/applications/tasks", auth, ListTasks(d.Applications))

	app.Post("/applications", auth, CreateApplication(d.Applications))
	app.Get("/applications/:id", auth, GetApplication(d.Applications))
	app.Put("/applications/:id", auth, UpdateApplication(d.Applications))
	app.Post("/applications/:id/submit", auth, SubmitApplication(d.Applications))
	app.Post("/applications/:id/approve", auth, TransitionApplication(d.Applications, model.ActionApprove))
	app.Post("/applications/:id/reject", auth, TransitionApplication(d.Applications, model.ActionReject))
	app.Post("/applications/:id/request-info", auth, TransitionApplication(d.Applications, model.ActionRequestInfo))
	app.Post("/applications/:id/vendor-number", auth, TransitionApplication(d.Applications, model.ActionAssignVendorNumber))

	app.Post("/applications/:id/files/:slot", auth, UploadFile(d.Documents))
	app.Get("/applications/:id/documents", auth, ListDocuments(d.Documents))
	app.Get("/documents/:id", auth, GetDocument(d.Documents))
	app.Get("/documents/:id/content", auth, DownloadDocument(d.Documents))
	app.Delete("/documents/:id", auth, DeleteDocument(d.Documents))

	app.Get("/applications/:id/contracts", auth, ListContracts(d.Contracts))
	app.Post("/contracts", auth, CreateContract(d.Contracts))
	app.Get("/contracts/:id", auth, GetContract(d.Contracts))
	app.Post("/contracts/:id/activate", auth, TransitionContract(d.Contracts, model.ActionActivate))
	app.Post("/contracts/:id/expire", auth, TransitionContract(d.Contracts, model.ActionExpire))
	app.Post("/contracts/:id/terminate", auth, TransitionContract(d.Contracts, model.ActionTerminate))
	app.Post("/contracts/:id/renew", auth, TransitionContract(d.Contracts, model.ActionRenew))
}
