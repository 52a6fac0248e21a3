package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/playtube/playtube-backend/auth"
	"github.com/playtube/playtube-backend/config"
	"github.com/playtube/playtube-backend/controllers"
	"github.com/playtube/playtube-backend/database"
	"github.com/playtube/playtube-backend/middleware"
	"github.com/playtube/playtube-backend/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := database.Connect(ctx, cfg.Mongo); err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := database.Disconnect(context.Background()); err != nil {
			log.Println("mongo disconnect:", err)
		}
	}()
	if err := database.EnsureIndexes(ctx); err != nil {
		log.Fatal(err)
	}

	media, err := utils.NewMediaStorage(ctx, cfg.GCS)
	if err != nil {
		log.Fatal(err)
	}
	defer media.Close()

	users := database.NewUserStore(database.OpenCollection("users"))
	issuer := auth.NewTokenIssuer(cfg.Auth)
	svc := auth.NewService(issuer, users, users)

	images := utils.NewImageValidator(10)
	videos := utils.NewVideoValidator(cfg.GCS.MaxUploadSizeMB)

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	allowedOrigins := map[string]bool{}
	for _, origin := range cfg.Origins() {
		allowedOrigins[origin] = true
	}
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	api := r.Group("/api/v1")

	usersGroup := api.Group("/users")
	{
		usersGroup.POST("/register", controllers.Register(media, images))
		usersGroup.POST("/login", controllers.Login(svc, cfg))
		usersGroup.GET("/refresh-token", controllers.Refresh(svc, cfg))

		authed := usersGroup.Group("")
		authed.Use(middleware.Auth(svc))
		{
			authed.POST("/logout", controllers.Logout(svc, cfg))
			authed.POST("/update-password", controllers.UpdatePassword(svc, cfg))
			authed.GET("/self", controllers.GetCurrentUser())
			authed.PATCH("/update-user", controllers.UpdateAccount())
			authed.PATCH("/update-avatar", controllers.UpdateAvatar(media, images))
			authed.PATCH("/update-cover-image", controllers.UpdateCoverImage(media, images))
			authed.GET("/c/:username", controllers.GetChannelProfile())
			authed.GET("/history", controllers.GetWatchHistory())
		}
	}

	videosGroup := api.Group("/videos")
	videosGroup.Use(middleware.Auth(svc))
	{
		videosGroup.GET("", controllers.GetVideos())
		videosGroup.POST("", controllers.PublishVideo(media, videos, images))
		videosGroup.GET("/:videoId", controllers.GetVideo())
		videosGroup.PATCH("/:videoId", controllers.UpdateVideo(media, images))
		videosGroup.DELETE("/:videoId", controllers.DeleteVideo(media))
		videosGroup.PATCH("/:videoId/toggle", controllers.TogglePublishStatus())
	}

	playlistsGroup := api.Group("/playlists")
	playlistsGroup.Use(middleware.Auth(svc))
	{
		playlistsGroup.POST("", controllers.CreatePlaylist())
		playlistsGroup.GET("/user/:userId", controllers.GetUserPlaylists())
		playlistsGroup.GET("/p/:playlistId", controllers.GetPlaylist())
		playlistsGroup.POST("/add-video", controllers.AddVideoToPlaylist())
		playlistsGroup.POST("/remove-video", controllers.RemoveVideoFromPlaylist())
		playlistsGroup.PATCH("/p/:playlistId", controllers.UpdatePlaylist())
		playlistsGroup.DELETE("/p/:playlistId", controllers.DeletePlaylist())
	}

	subsGroup := api.Group("/subscriptions")
	subsGroup.Use(middleware.Auth(svc))
	{
		subsGroup.POST("/c/:channelId", controllers.ToggleSubscription())
		subsGroup.GET("/c/:channelId", controllers.GetChannelSubscribers())
		subsGroup.GET("/u/:subscriberId", controllers.GetSubscribedChannels())
	}

	tweetsGroup := api.Group("/tweets")
	tweetsGroup.Use(middleware.Auth(svc))
	{
		tweetsGroup.POST("", controllers.CreateTweet())
		tweetsGroup.GET("/user/:userId", controllers.GetUserTweets())
		tweetsGroup.PATCH("/:tweetId", controllers.UpdateTweet())
		tweetsGroup.DELETE("/:tweetId", controllers.DeleteTweet())
	}

	commentsGroup := api.Group("/comments")
	commentsGroup.Use(middleware.Auth(svc))
	{
		commentsGroup.GET("/:videoId", controllers.GetVideoComments())
		commentsGroup.POST("/:videoId", controllers.AddComment())
		commentsGroup.PATCH("/c/:commentId", controllers.UpdateComment())
		commentsGroup.DELETE("/c/:commentId", controllers.DeleteComment())
	}

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
