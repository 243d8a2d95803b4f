package routes

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"nexus/config"
	controller "nexus/controllers"
	"nexus/middleware"
	"nexus/models"
	"nexus/session"
	"nexus/utils"
	"nexus/workflow"
)

// Dependencies is everything the HTTP layer needs
type Dependencies struct {
	Config    *config.Config
	DB        *gorm.DB
	Engine    *workflow.Engine
	Sessions  *session.Registry
	Tokens    *utils.TokenIssuer
	Files     utils.FileStore
	Extractor utils.StoryExtractor
	// LimiterStorage backs the login rate limiter; nil keeps counters in memory
	LimiterStorage fiber.Storage
	Logger         *logrus.Logger
}

func (d *Dependencies) component(name string) *logrus.Entry {
	return d.Logger.WithField("component", name)
}

// NewApp builds the Fiber application with every route mounted
func NewApp(deps *Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "nexus",
		BodyLimit:    deps.Config.MaxUploadBytes + 1<<20,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(middleware.CORS(deps.Config.CORSOrigins))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupAuthRoutes(app, deps)
	SetupAPIRoutes(app, deps)
	SetupWebsocketRoutes(app, deps)

	return app
}

// errorHandler renders errors returned by handlers as JSON
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		utils.LogError("unhandled_error", err, map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
		})
	}
	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}

func requestLogger() fiber.Handler {
	return logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	})
}

func SetupAuthRoutes(app *fiber.App, deps *Dependencies) {
	authLogger := deps.component("AUTH")
	authController := controller.NewAuthController(deps.DB, deps.Tokens, deps.Sessions, authLogger)

	auth := app.Group("/auth", requestLogger())

	// Public auth endpoints
	auth.Post("/login", middleware.LoginRateLimiter(deps.Config.LoginRateLimit, deps.LimiterStorage), authController.Login)

	// Protected auth endpoints
	protectedAuth := auth.Group("", middleware.Protected(deps.DB, deps.Tokens, deps.Sessions))
	protectedAuth.Post("/logout", authController.Logout)
	protectedAuth.Get("/me", authController.GetCurrentUser)

	authLogger.Info("Authentication routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, deps *Dependencies) {
	leaderOnly := middleware.RequireRole(models.RoleLeader)
	managerOnly := middleware.RequireRole(models.RoleManager)

	userController := controller.NewUserController(deps.DB, deps.component("USERS"))
	userController.CheckEmailHost = deps.Config.IsProduction()
	companyController := controller.NewCompanyController(deps.DB, deps.component("COMPANIES"))
	projectController := controller.NewProjectController(deps.DB, deps.Engine, deps.Extractor, deps.Config.MaxUploadBytes, deps.component("PROJECTS"))
	approvalController := controller.NewApprovalController(deps.DB, deps.Engine, deps.component("APPROVAL"))
	trackingController := controller.NewTrackingController(deps.DB, deps.Engine, deps.Files, deps.Config.MaxUploadBytes, deps.component("TRACKING"))
	historyController := controller.NewHistoryController(deps.DB, deps.component("HISTORY"))
	notificationController := controller.NewNotificationController(deps.component("NOTIFICATIONS"))

	api := app.Group("/api/v1", middleware.Protected(deps.DB, deps.Tokens, deps.Sessions), requestLogger())

	// User administration
	users := api.Group("/users", managerOnly)
	users.Get("/", userController.GetUsers)
	users.Post("/", userController.CreateUser)
	users.Put("/:id", userController.UpdateUser)
	users.Delete("/:id", userController.DeleteUser)

	// Companies
	companies := api.Group("/companies")
	companies.Get("/", companyController.GetCompanies)
	companies.Get("/:id", companyController.GetCompany)
	companies.Post("/", managerOnly, companyController.CreateCompany)

	// Leader projects
	projects := api.Group("/projects", leaderOnly)
	projects.Get("/", projectController.GetProjects)
	projects.Post("/", projectController.CreateProject)
	projects.Post("/extract-stories", projectController.ExtractStories)
	projects.Get("/:id", projectController.GetProject)
	projects.Put("/:id", projectController.UpdateProject)
	projects.Post("/:id/cancel", projectController.CancelProject)

	// Manager approval queue
	approvals := api.Group("/approvals", managerOnly)
	approvals.Get("/", approvalController.GetQueue)
	approvals.Post("/:id/open", approvalController.OpenProject)
	approvals.Post("/:id/approve", approvalController.ApproveProject)
	approvals.Post("/:id/return", approvalController.ReturnProject)
	approvals.Post("/:id/reject", approvalController.RejectProject)

	// Progress tracking
	tracking := api.Group("/tracking")
	tracking.Get("/", trackingController.GetTrackedProjects)
	tracking.Get("/:id", trackingController.GetTrackedProject)
	tracking.Post("/:id/progress", leaderOnly, trackingController.SubmitProgress)
	tracking.Post("/:id/approve", managerOnly, trackingController.ApproveProgress)
	tracking.Post("/:id/reject", managerOnly, trackingController.RejectProgress)

	// History report
	history := api.Group("/history")
	history.Get("/", historyController.GetHistory)
	history.Get("/:id/cancellation", historyController.GetCancellation)

	// Notifications
	notifications := api.Group("/notifications")
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Post("/read-all", notificationController.MarkAllRead)
	notifications.Post("/:id/open", notificationController.OpenNotification)
}

func SetupWebsocketRoutes(app *fiber.App, deps *Dependencies) {
	notificationController := controller.NewNotificationController(deps.component("NOTIFICATIONS"))

	ws := app.Group("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	ws.Get("/notifications", middleware.Protected(deps.DB, deps.Tokens, deps.Sessions), websocket.New(notificationController.Stream))
}
