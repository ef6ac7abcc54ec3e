package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/risetutor-api/internal/config"
	"github.com/noah-isme/risetutor-api/internal/handler"
	"github.com/noah-isme/risetutor-api/internal/middleware"
	"github.com/noah-isme/risetutor-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AdmissionHandler    *handler.AdmissionHandler
	AuthHandler         *handler.AuthHandler
	TestHandler         *handler.TestHandler
	AdminTestHandler    *handler.AdminTestHandler
	LiveClassHandler    *handler.LiveClassHandler
	AdminStudentHandler *handler.AdminStudentHandler
	ActivityHandler     *handler.AdminActivityHandler
	HealthProbes        map[string]handler.HealthProbe
	SessionMiddleware   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	session := deps.SessionMiddleware
	if session == nil {
		session = middleware.SessionAuth(cfg.JWTSecret)
	}

	if deps.AdmissionHandler != nil {
		admissions := api.Group("/admissions")
		deps.AdmissionHandler.Register(admissions)
		deps.AdmissionHandler.RegisterOTP(admissions, middleware.RateLimit("admission-otp", cfg.OTPRateLimit, time.Minute))
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		deps.AuthHandler.Register(auth)
		deps.AuthHandler.RegisterSession(auth, session)
	}

	student := api.Group("/student", session, middleware.RequireRole(middleware.AuthRoleStudent))
	if deps.TestHandler != nil {
		deps.TestHandler.Register(student.Group("/tests"))
	}
	if deps.LiveClassHandler != nil {
		deps.LiveClassHandler.RegisterStudent(student.Group("/live-classes"))
	}

	admin := api.Group("/admin", session, middleware.RequireRole(middleware.AuthRoleAdmin))
	if deps.AdminTestHandler != nil {
		deps.AdminTestHandler.Register(admin.Group("/tests"))
	}
	if deps.LiveClassHandler != nil {
		deps.LiveClassHandler.RegisterAdmin(admin.Group("/live-classes"))
	}
	if deps.AdminStudentHandler != nil {
		deps.AdminStudentHandler.Register(admin.Group("/students"))
		deps.AdminStudentHandler.RegisterAdmissions(admin.Group("/admissions"))
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(admin.Group("/activity"))
	}
}
