package main

import (
	"context"
	"fmt"
	"log"

	_ "backend/api/swagger" // swagger docs
	"backend/internal/config"
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/mailer"
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/storage"
	"backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Evolvia Portal API
// @version         1.0
// @description     Multi-tenant CRM backend for the Evolvia reseller network.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	db, err := database.NewConnection(cfg.DBPath)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}
	log.Printf("Database ready at %s", cfg.DBPath)

	// Storage: S3 when fully configured, local uploads/ otherwise
	s3Store, err := storage.NewS3Store(cfg.AWS)
	if err != nil {
		log.Fatalf("S3 configuration failed: %v", err)
	}
	if s3Store != nil {
		log.Printf("S3 storage enabled (bucket %s)", cfg.AWS.BucketName)
	}
	store := storage.NewRouter(s3Store, storage.NewLocalStore(cfg.UploadDir))

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	mail := mailer.New(cfg.SMTP)
	jwtSecret := []byte(cfg.JWTSecret)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	contrattoRepo := repository.NewContrattoRepository(db)
	fatturaRepo := repository.NewFatturaRepository(db)
	documentoRepo := repository.NewDocumentoRepository(db)
	notificaRepo := repository.NewNotificaRepository(db)

	userService := service.NewUserService(userRepo, jwtSecret, mail)
	notificaService := service.NewNotificaService(notificaRepo, wsHub)
	documentoService := service.NewDocumentoService(db, documentoRepo, clienteRepo, contrattoRepo, store)
	contrattoService := service.NewContrattoService(db, contrattoRepo, clienteRepo)
	clienteService := service.NewClienteService(
		db, clienteRepo, contrattoRepo, fatturaRepo, documentoService, userRepo, txManager,
		func(cliente *model.Cliente, nuovoAgenteID uuid.UUID) {
			notificaService.CreateAndPush(context.Background(), nuovoAgenteID,
				"Nuovo cliente assegnato",
				fmt.Sprintf("Ti è stato assegnato il cliente %s %s", cliente.Nome, cliente.Cognome),
				model.NotificaRiassegnazione)
		},
	)
	dashboardService := service.NewDashboardService(db)
	exportService := service.NewExportService(db)
	simulatoreService := service.NewSimulatoreService()

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(userService, db, jwtSecret)
	clienteHandler := handler.NewClienteHandler(clienteService, documentoService)
	contrattoHandler := handler.NewContrattoHandler(contrattoService, documentoService)
	documentoHandler := handler.NewDocumentoHandler(documentoService)
	agenteHandler := handler.NewAgenteHandler(userService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	storageHandler := handler.NewStorageHandler(documentoService)
	exportHandler := handler.NewExportHandler(exportService)
	simulatoreHandler := handler.NewSimulatoreHandler(simulatoreService)
	notificaHandler := handler.NewNotificaHandler(notificaService)
	settingsHandler := handler.NewSettingsHandler(userService)
	emailHandler := handler.NewEmailHandler(mail)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.CookieName, jwtSecret)
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))

	api := router.Group("", middleware.RequireAuth(db, jwtSecret))
	clienteHandler.RegisterRoutes(api)
	contrattoHandler.RegisterRoutes(api)
	documentoHandler.RegisterRoutes(api)
	agenteHandler.RegisterRoutes(api)
	dashboardHandler.RegisterRoutes(api)
	storageHandler.RegisterRoutes(api)
	exportHandler.RegisterRoutes(api)
	simulatoreHandler.RegisterRoutes(api)
	notificaHandler.RegisterRoutes(api)
	settingsHandler.RegisterRoutes(api)
	emailHandler.RegisterRoutes(api)

	log.Printf("Server listening on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
