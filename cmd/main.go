package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/joho/godotenv"

	"github.com/autoparc/autoparc-api/internal/config"
	"github.com/autoparc/autoparc-api/internal/db"
	"github.com/autoparc/autoparc-api/internal/handlers"
	"github.com/autoparc/autoparc-api/internal/httpx"
	"github.com/autoparc/autoparc-api/internal/logger"
	"github.com/autoparc/autoparc-api/internal/mailer"
	"github.com/autoparc/autoparc-api/internal/middleware"
	"github.com/autoparc/autoparc-api/internal/models"
	"github.com/autoparc/autoparc-api/internal/repo"
	"github.com/autoparc/autoparc-api/internal/services"
	"github.com/autoparc/autoparc-api/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}
	logger.Init()
	cfg := config.Load()

	mongo, err := db.Connect(cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		slog.Error("mongodb connection failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewMinioStore(cfg.Minio.Endpoint, cfg.Minio.AccessKey,
		cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL)
	if err != nil {
		slog.Error("minio connection failed", "error", err)
		os.Exit(1)
	}

	smtp := mailer.NewSMTPMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort,
		cfg.Email.From, cfg.Email.SMTPUser, cfg.Email.SMTPPass, cfg.Email.UseTLS)
	dispatcher := mailer.NewDispatcher(4)
	notifier := mailer.NewNotifier(smtp, dispatcher, cfg.Email.StaffAddr, cfg.Email.FrontendURL)

	userRepo := repo.NewUserRepository(mongo.Database)
	vehicleRepo := repo.NewVehicleRepository(mongo.Database)
	contactRepo := repo.NewContactRepository(mongo.Database)

	authService := services.NewAuthService(userRepo, notifier, cfg.Auth.JWTSecret,
		cfg.Auth.TokenTTL, cfg.Auth.ResetTTL)
	userService := services.NewUserService(userRepo)
	vehicleService := services.NewVehicleService(vehicleRepo, userRepo)
	contactService := services.NewContactService(contactRepo, notifier)
	uploadService := services.NewUploadService(store, vehicleRepo)

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	vehicleHandler := handlers.NewVehicleHandler(vehicleService)
	contactHandler := handlers.NewContactHandler(contactService)
	uploadHandler := handlers.NewUploadHandler(uploadService)

	app := fiber.New(fiber.Config{
		ErrorHandler: httpx.ErrorHandler(cfg.Production),
		BodyLimit:    12 << 20,
	})

	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowedOrigin,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/api/health", func(c *fiber.Ctx) error {
		return httpx.Success(c, fiber.StatusOK, "API opérationnelle", fiber.Map{
			"status": "ok",
		})
	})

	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        cfg.RateLimit.Max,
		Expiration: cfg.RateLimit.Window,
	}))

	authn := middleware.Auth(userRepo, cfg.Auth.JWTSecret)
	manager := middleware.RequireRole(models.RoleManager)
	admin := middleware.RequireRole(models.RoleAdmin)

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/forgot-password", authHandler.ForgotPassword)
	auth.Post("/reset-password/:token", authHandler.ResetPassword)
	auth.Get("/me", authn, authHandler.Me)
	auth.Put("/change-password", authn, authHandler.ChangePassword)
	auth.Put("/profile", authn, authHandler.UpdateProfile)
	auth.Post("/logout", authn, authHandler.Logout)

	vehicles := api.Group("/vehicles")
	vehicles.Get("/stats/overview", authn, manager, vehicleHandler.Stats)
	vehicles.Get("/search", vehicleHandler.Search)
	vehicles.Get("/", vehicleHandler.List)
	vehicles.Post("/", authn, manager, vehicleHandler.Create)
	vehicles.Post("/public", vehicleHandler.CreatePublic)
	vehicles.Get("/:id", vehicleHandler.Get)
	vehicles.Put("/:id", authn, manager, vehicleHandler.Update)
	vehicles.Delete("/:id", authn, manager, vehicleHandler.Delete)
	vehicles.Put("/:id/status", authn, manager, vehicleHandler.ChangeStatus)
	vehicles.Post("/:id/history", authn, manager, vehicleHandler.AddHistory)
	vehicles.Post("/:id/maintenance", authn, manager, vehicleHandler.AddMaintenance)

	contact := api.Group("/contact")
	contact.Get("/stats/overview", authn, manager, contactHandler.Stats)
	contact.Get("/assigned/:userId", authn, manager, contactHandler.Assigned)
	contact.Post("/", contactHandler.Create)
	contact.Get("/", authn, manager, contactHandler.List)
	contact.Get("/:id", authn, manager, contactHandler.Get)
	contact.Put("/:id", authn, manager, contactHandler.Update)
	contact.Put("/:id/status", authn, manager, contactHandler.UpdateStatus)
	contact.Put("/:id/assign", authn, manager, contactHandler.Assign)
	contact.Put("/:id/tags", authn, manager, contactHandler.UpdateTags)
	contact.Put("/:id/follow-up", authn, manager, contactHandler.ScheduleFollowUp)
	contact.Post("/:id/response", authn, manager, contactHandler.AddResponse)

	users := api.Group("/users", authn)
	users.Get("/stats/overview", admin, userHandler.Stats)
	users.Get("/search", admin, userHandler.Search)
	users.Get("/", admin, userHandler.List)
	users.Post("/", admin, userHandler.Create)
	users.Get("/:id", userHandler.Get)
	users.Put("/:id", userHandler.Update)
	users.Delete("/:id", admin, userHandler.Deactivate)
	users.Put("/:id/activate", admin, userHandler.Activate)
	users.Put("/:id/role", admin, userHandler.ChangeRole)

	upload := api.Group("/upload", authn, manager)
	upload.Post("/image", uploadHandler.UploadImage)
	upload.Post("/images", uploadHandler.UploadImages)
	upload.Post("/document", uploadHandler.UploadDocument)
	upload.Delete("/:mediaId", uploadHandler.Delete)
	upload.Post("/vehicle-images/:vehicleId", uploadHandler.AttachVehicleImages)
	upload.Put("/vehicle-images/:vehicleId/primary", uploadHandler.SetPrimaryImage)
	upload.Delete("/vehicle-images/:vehicleId/:imageId", uploadHandler.DeleteVehicleImage)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		slog.Error("server stopped", "error", err)
	}

	// Drain pending notification emails before closing connections.
	dispatcher.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := mongo.Close(ctx); err != nil {
		slog.Error("mongodb close failed", "error", err)
	}
}
