package server

import (
	"log"
	"net/http"
	"strings"
	"time"

	"anoa.com/skorprestasi/internal/config"
	"anoa.com/skorprestasi/internal/entity"
	"anoa.com/skorprestasi/internal/jobs"
	"anoa.com/skorprestasi/internal/middleware"
	"anoa.com/skorprestasi/pkg/response"
	"anoa.com/skorprestasi/pkg/storage"

	achievementHttp "anoa.com/skorprestasi/internal/modules/achievement/delivery/http"
	achievementRepo "anoa.com/skorprestasi/internal/modules/achievement/repository"
	achievementService "anoa.com/skorprestasi/internal/modules/achievement/service"

	adminHttp "anoa.com/skorprestasi/internal/modules/admin/delivery/http"
	adminService "anoa.com/skorprestasi/internal/modules/admin/service"

	attachmentHttp "anoa.com/skorprestasi/internal/modules/attachment/delivery/http"
	attachmentRepo "anoa.com/skorprestasi/internal/modules/attachment/repository"
	attachmentService "anoa.com/skorprestasi/internal/modules/attachment/service"

	notiHttp "anoa.com/skorprestasi/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/skorprestasi/internal/modules/notification/repository"
	notifService "anoa.com/skorprestasi/internal/modules/notification/service"

	profileHttp "anoa.com/skorprestasi/internal/modules/profile/delivery/http"
	profileService "anoa.com/skorprestasi/internal/modules/profile/service"

	searchService "anoa.com/skorprestasi/internal/modules/search/service"

	statHttp "anoa.com/skorprestasi/internal/modules/stat/delivery/http"
	statService "anoa.com/skorprestasi/internal/modules/stat/service"

	targetHttp "anoa.com/skorprestasi/internal/modules/target/delivery/http"
	targetRepo "anoa.com/skorprestasi/internal/modules/target/repository"
	targetService "anoa.com/skorprestasi/internal/modules/target/service"

	userHttp "anoa.com/skorprestasi/internal/modules/user/delivery/http"
	userRepo "anoa.com/skorprestasi/internal/modules/user/repository"
	userService "anoa.com/skorprestasi/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	scheduler   *jobs.Scheduler
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	users := userRepo.NewUserRepository(db)

	fileStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		log.Fatalf("failed to initialize cloudinary storage: %v", err)
	}

	meiliHost := cfg.MeiliSearchHost
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}
	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	searchSvc := searchService.NewSearchService(meiliClient)

	authSvc := userService.NewAuthService(users, redisClient, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authHandler := userHttp.NewAuthHandler(authSvc)

	adminSvc := adminService.NewAdminService(users)
	adminHandler := adminHttp.NewAdminHandler(adminSvc)

	achievements := achievementRepo.NewAchievementRepository(db)

	profileSvc := profileService.NewProfileService(users, achievements)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	attachments := attachmentRepo.NewAttachmentRepository(db)
	attachmentSvc := attachmentService.NewAttachmentService(attachments, fileStorage, cfg.FileBaseURL)
	attachmentHandler := attachmentHttp.NewAttachmentHandler(attachmentSvc)

	notifications := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notifications, redisClient)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient)

	achievementSvc := achievementService.NewService(achievements, attachments, users, notificationSvc, searchSvc, redisClient, cfg.RateLimitSubmit)
	achievementHandler := achievementHttp.NewAchievementHandler(achievementSvc)

	targets := targetRepo.NewTargetRepository(db)
	targetSvc := targetService.NewTargetService(targets, achievements, users, notificationSvc, redisClient)
	targetHandler := targetHttp.NewTargetHandler(targetSvc)

	statSvc := statService.NewStatService(users, achievements, redisClient)
	statHandler := statHttp.NewStatHandler(statSvc)

	scheduler := jobs.NewScheduler()
	scheduler.Register(&jobs.OrphanAttachmentCleanup{Attachments: attachmentSvc})
	scheduler.Register(&jobs.CertificationExpiryReminder{
		Achievements:  achievements,
		Notifications: notificationSvc,
		Redis:         redisClient,
	})
	scheduler.Register(&jobs.TargetClaimableNotifier{Targets: targetSvc})
	scheduler.Start()

	router := gin.New()

	setupCORS(router, cfg)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(users)

	api := router.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Display-only values the dashboard renders in its shell.
	api.GET("/meta", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"app_name":     cfg.AppName,
			"footer_text":  cfg.FooterText,
			"social_links": cfg.SocialLinks,
		})
	})

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/auth/me", authHandler.Me)

		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.GET("/users", adminHandler.ListUsers)
			adminGroup.POST("/users", adminHandler.CreateUser)
			adminGroup.PUT("/users/:id", adminHandler.UpdateUser)
			adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
			adminGroup.PUT("/users/:id/advisor", adminHandler.AssignAdvisor)

			adminGroup.GET("/targets", targetHandler.ListAll)
			adminGroup.POST("/targets", targetHandler.Create)
			adminGroup.PUT("/targets/:id", targetHandler.Update)
			adminGroup.DELETE("/targets/:id", targetHandler.Delete)

			adminGroup.GET("/stats", statHandler.GetDashboardStats)
		}

		// Achievement workflow
		protected.GET("/achievements", achievementHandler.List)
		protected.GET("/achievements/:id", achievementHandler.Get)

		studentGroup := protected.Group("")
		studentGroup.Use(authMiddleware.RequireRole(entity.RoleStudent))
		{
			studentGroup.POST("/achievements", achievementHandler.Create)
			studentGroup.PUT("/achievements/:id", achievementHandler.Update)
			studentGroup.DELETE("/achievements/:id", achievementHandler.Delete)
			studentGroup.POST("/achievements/:id/submit", achievementHandler.Submit)
		}

		advisorGroup := protected.Group("")
		advisorGroup.Use(authMiddleware.RequireRole(entity.RoleAdvisor))
		{
			advisorGroup.POST("/achievements/:id/verify", achievementHandler.Verify)
			advisorGroup.POST("/achievements/:id/reject", achievementHandler.Reject)
			advisorGroup.GET("/advisees", profileHandler.Advisees)
		}

		// Profile routes
		protected.GET("/profile/me", profileHandler.Me)
		protected.GET("/profile/:username", profileHandler.GetByUsername)
		protected.PUT("/profile", profileHandler.Update)

		// Target routes
		protected.GET("/targets", targetHandler.List)
		protected.POST("/targets/:id/claim", targetHandler.Claim)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		// Uploads
		protected.POST("/upload", attachmentHandler.UploadAttachments)

		// Scoped search token for the dashboard's direct Meilisearch queries.
		protected.GET("/search/token", func(c *gin.Context) {
			userID, err := response.GetUserID(c)
			if err != nil {
				response.ResponseError(c, err)
				return
			}
			token, err := searchSvc.GenerateSearchToken(userID.String(), response.GetUserRole(c))
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is not available"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"token": token})
		})
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		scheduler:   scheduler,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) Shutdown() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func setupCORS(router *gin.Engine, cfg *config.Config) {
	origins := strings.Split(cfg.AllowedOrigins, ",")

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
