package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/playtube/playtube-backend/auth"
	"github.com/playtube/playtube-backend/config"
	"github.com/playtube/playtube-backend/database"
	"github.com/playtube/playtube-backend/dto"
	"github.com/playtube/playtube-backend/middleware"
	"github.com/playtube/playtube-backend/models"
	"github.com/playtube/playtube-backend/utils"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

// Refresh cookies are scoped to the users routes; nothing else ever needs to
// read them.
const refreshCookiePath = "/api/v1/users"

func authStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrPersistenceFailure):
		return http.StatusInternalServerError
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenReused),
		errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, auth.ErrUnknownIdentity):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func setAuthCookies(c *gin.Context, cfg *config.Config, pair *auth.TokenPair) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(accessCookie, pair.AccessToken, int(cfg.Auth.AccessTTL.Seconds()), "/", cfg.CookieDomain, cfg.CookieSecure, true)
	c.SetCookie(refreshCookie, pair.RefreshToken, int(cfg.Auth.RefreshTTL.Seconds()), refreshCookiePath, cfg.CookieDomain, cfg.CookieSecure, true)
}

func clearAuthCookies(c *gin.Context, cfg *config.Config) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(accessCookie, "", -1, "/", cfg.CookieDomain, cfg.CookieSecure, true)
	c.SetCookie(refreshCookie, "", -1, refreshCookiePath, cfg.CookieDomain, cfg.CookieSecure, true)
}

// POST /api/v1/users/register
func Register(media *utils.MediaStorage, images *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var body dto.RegisterUserDTO
		if err := c.ShouldBind(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		avatarFile, err := c.FormFile("avatar")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is required"})
			return
		}
		if err := images.Validate(avatarFile); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		coverFile, _ := c.FormFile("coverImage")
		if coverFile != nil {
			if err := images.Validate(coverFile); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		username := utils.NormalizeUsername(body.Username)
		email := strings.ToLower(strings.TrimSpace(body.Email))

		hash, err := auth.HashPassword(body.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
			return
		}

		avatar, err := media.Upload(ctx, "avatars", avatarFile)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload avatar"})
			return
		}

		var cover *utils.UploadResult
		if coverFile != nil {
			cover, err = media.Upload(ctx, "covers", coverFile)
			if err != nil {
				_ = media.Delete(ctx, avatar.ObjectName)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload cover image"})
				return
			}
		}

		now := time.Now().UTC()
		user := models.User{
			ID:           bson.NewObjectID(),
			Username:     username,
			Email:        email,
			FullName:     strings.TrimSpace(body.FullName),
			Avatar:       avatar.PublicURL,
			AvatarObject: avatar.ObjectName,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if cover != nil {
			user.CoverImage = cover.PublicURL
			user.CoverObject = cover.ObjectName
		}

		usersCol := database.OpenCollection("users")
		if _, err := usersCol.InsertOne(ctx, user); err != nil {
			objects := []string{avatar.ObjectName}
			if cover != nil {
				objects = append(objects, cover.ObjectName)
			}
			_ = media.Delete(ctx, objects...)
			if utils.IsDuplicateKey(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "user with same username or email already exists"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, user)
	}
}

// POST /api/v1/users/login
func Login(svc *auth.Service, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// Usernames get the same normalization as registration, so an
		// accented spelling still resolves; emails are stored lowercased.
		login := utils.NormalizeUsername(body.Username)
		if login == "" {
			login = strings.ToLower(strings.TrimSpace(body.Email))
		}
		if login == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username or email is required"})
			return
		}

		user, pair, err := svc.Login(c.Request.Context(), login, body.Password)
		if err != nil {
			c.JSON(authStatus(err), gin.H{"error": err.Error()})
			return
		}

		setAuthCookies(c, cfg, pair)
		c.JSON(http.StatusOK, gin.H{
			"user":         user,
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
		})
	}
}

// POST /api/v1/users/logout
func Logout(svc *auth.Service, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		if err := svc.Logout(c.Request.Context(), user.ID.Hex()); err != nil {
			c.JSON(authStatus(err), gin.H{"error": err.Error()})
			return
		}

		clearAuthCookies(c, cfg)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// GET /api/v1/users/refresh-token
//
// The token comes from the scoped cookie or, failing that, the JSON body.
// On success both tokens are rotated and the stale one is rejected as reused
// from here on.
func Refresh(svc *auth.Service, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented, _ := c.Cookie(refreshCookie)
		if presented == "" {
			var body dto.RefreshDTO
			if err := c.ShouldBindJSON(&body); err == nil {
				presented = body.RefreshToken
			}
		}

		pair, err := svc.Refresh(c.Request.Context(), presented)
		if err != nil {
			c.JSON(authStatus(err), gin.H{"error": err.Error()})
			return
		}

		setAuthCookies(c, cfg, pair)
		c.JSON(http.StatusOK, gin.H{
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
		})
	}
}

// POST /api/v1/users/update-password
func UpdatePassword(svc *auth.Service, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.ChangePasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if body.NewPassword == body.OldPassword {
			c.JSON(http.StatusBadRequest, gin.H{"error": "new password cannot be same as old password"})
			return
		}

		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		if err := svc.ChangePassword(c.Request.Context(), user.ID.Hex(), body.OldPassword, body.NewPassword); err != nil {
			c.JSON(authStatus(err), gin.H{"error": err.Error()})
			return
		}

		// Session revoked along with the old password.
		clearAuthCookies(c, cfg)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
