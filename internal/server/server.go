package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kanbanflow/internal/auth"
	"kanbanflow/internal/config"
	"kanbanflow/internal/handler"
	"kanbanflow/internal/middleware"
	"kanbanflow/internal/migrations"
	"kanbanflow/internal/realtime"
	"kanbanflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Server struct {
	Engine  *gin.Engine
	Handler http.Handler
	DB      *gorm.DB
	Hub     *realtime.Hub
	Config  *config.Config
	Logger  *slog.Logger
}

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Users       *handler.UserHandler
	Boards      *handler.BoardHandler
	Shares      *handler.BoardShareHandler
	Columns     *handler.ColumnHandler
	Tasks       *handler.TaskHandler
	Comments    *handler.CommentHandler
	Attachments *handler.AttachmentHandler
	Events      *handler.EventsHandler
}

func Init(cfg *config.Config) (*Server, error) {
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if cfg.MigrateOnStart {
		if err := migrations.Up(cfg.DatabaseURL()); err != nil {
			return nil, fmt.Errorf("❌ failed to migrate DB: %w", err)
		}
		log.Println("✅ Database schema is up to date")
	}
	if version, dirty, err := migrations.Version(cfg.DatabaseURL()); err != nil {
		slogger.Warn("read schema version", "error", err)
	} else {
		slogger.Info("schema version", "version", version, "dirty", dirty)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	log.Println("✅ Connected to database")

	hub := realtime.NewHub(slogger, cfg.CORSOrigins)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	boardShareRepo := repository.NewBoardShareRepository(db)
	columnRepo := repository.NewColumnRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)

	// Initialize handlers
	h := Handlers{
		Users:       handler.NewUserHandler(userRepo, tokens),
		Boards:      handler.NewBoardHandler(boardRepo, boardShareRepo),
		Shares:      handler.NewBoardShareHandler(boardRepo, userRepo, boardShareRepo),
		Columns:     handler.NewColumnHandler(columnRepo, boardRepo, boardShareRepo, hub),
		Tasks:       handler.NewTaskHandler(taskRepo, columnRepo, boardRepo, boardShareRepo, userRepo, commentRepo, attachmentRepo, hub),
		Comments:    handler.NewCommentHandler(commentRepo, taskRepo, columnRepo, boardRepo, boardShareRepo, hub),
		Attachments: handler.NewAttachmentHandler(attachmentRepo, taskRepo, columnRepo, boardRepo, boardShareRepo),
		Events:      handler.NewEventsHandler(hub, boardRepo, boardShareRepo, slogger),
	}

	r := NewRouter(h, tokens, slogger)

	return &Server{
		Engine:  r,
		Handler: withCORS(r, cfg.CORSOrigins),
		DB:      db,
		Hub:     hub,
		Config:  cfg,
		Logger:  slogger,
	}, nil
}

// NewRouter registers every route on a fresh engine.
func NewRouter(h Handlers, tokens middleware.TokenParser, slogger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(slogger))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes
	r.POST("/register", h.Users.Register)
	r.POST("/login", h.Users.Login)

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(tokens))
	{
		// Board routes
		authorized.POST("/boards", h.Boards.Create)
		authorized.GET("/boards", h.Boards.GetAll)
		authorized.GET("/boards/:id", h.Boards.GetByID)
		authorized.PUT("/boards/:id", h.Boards.Update)
		authorized.DELETE("/boards/:id", h.Boards.Delete)
		authorized.GET("/boards/:id/events", h.Events.Subscribe)

		// Board sharing routes
		authorized.POST("/boards/:id/share", h.Shares.ShareBoard)
		authorized.DELETE("/boards/:id/share/:user_id", h.Shares.RemoveShare)
		authorized.GET("/boards/:id/share", h.Shares.GetBoardShares)
		authorized.GET("/shared-boards", h.Shares.GetSharedBoards)

		// Column routes
		authorized.POST("/columns", h.Columns.Create)
		authorized.GET("/boards/:id/columns", h.Columns.GetAll)
		authorized.GET("/columns/:id", h.Columns.GetByID)
		authorized.PUT("/columns/:id", h.Columns.Update)
		authorized.DELETE("/columns/:id", h.Columns.Delete)
		authorized.POST("/boards/:id/columns/reorder", h.Columns.ReorderColumns)

		// Task routes
		authorized.POST("/tasks", h.Tasks.Create)
		authorized.POST("/tasks/bulk/reorder", h.Tasks.BulkReorder)
		authorized.GET("/tasks/:id", h.Tasks.GetByID)
		authorized.GET("/columns/:id/tasks", h.Tasks.GetByColumnID)
		authorized.PUT("/tasks/:id", h.Tasks.Update)
		authorized.DELETE("/tasks/:id", h.Tasks.Delete)
		authorized.POST("/tasks/:id/move", h.Tasks.MoveTask)
		authorized.POST("/tasks/:id/assign", h.Tasks.AssignUser)
		authorized.DELETE("/tasks/:id/assign", h.Tasks.UnassignUser)
		authorized.POST("/tasks/:id/due-date", h.Tasks.SetDueDate)

		// Comment and attachment routes
		authorized.POST("/tasks/:id/comments", h.Comments.Create)
		authorized.GET("/tasks/:id/comments", h.Comments.GetByTask)
		authorized.DELETE("/comments/:id", h.Comments.Delete)
		authorized.POST("/tasks/:id/attachments", h.Attachments.Create)
		authorized.GET("/tasks/:id/attachments", h.Attachments.GetByTask)
		authorized.DELETE("/attachments/:id", h.Attachments.Delete)
	}
	return r
}

func withCORS(next http.Handler, origins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler(next)
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:              ":" + s.Config.ServerPort,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server running on port %s\n", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	// Hijacked websocket connections are not tracked by Shutdown.
	s.Hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	if sqlDB, err := s.DB.DB(); err == nil {
		sqlDB.Close()
	}
	log.Println("✅ Server exited properly")
}
