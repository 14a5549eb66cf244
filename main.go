package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"diabeater-console/internal/blob"
	"diabeater-console/internal/config"
	"diabeater-console/internal/email"
	"diabeater-console/internal/fcm"
	"diabeater-console/internal/firebaseapp"
	"diabeater-console/internal/identity"
	"diabeater-console/internal/middleware"
	"diabeater-console/internal/moderation"
	"diabeater-console/internal/repository"
	"diabeater-console/internal/service"
	"diabeater-console/internal/sse"
	"diabeater-console/internal/store"
	transport "diabeater-console/internal/transport/http"
	"diabeater-console/pkg/models"
	"diabeater-console/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Log.Fatalf("❌ [CONFIG] %v", err)
	}
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var fbApp *firebase.App
	if cfg.NeedsFirebase() {
		fbApp, err = firebaseapp.New(ctx, cfg)
		if err != nil {
			utils.Log.Fatalf("❌ [FIREBASE] %v", err)
		}
	}

	docs := openStore(ctx, cfg, fbApp)
	blobs := openBlobs(ctx, cfg)
	idp := openIdentity(ctx, cfg, fbApp)

	var push service.Pusher
	if fbApp != nil {
		if client, err := fcm.NewFCMClient(ctx, fbApp); err != nil {
			utils.Log.WithError(err).Warn("⚠️ [FCM] push disabled")
		} else {
			push = client
			utils.Log.Info("✅ [FCM] push enabled")
		}
	}

	rdb := openRedis(ctx, cfg)
	mailer := email.NewSender(cfg)
	broker := sse.NewBroker()

	repos := repository.New(docs, cfg.UserAccountsCollection)
	notify := service.NewNotifyService(repos, broker, rdb, push)
	categories := service.NewCategoryService(repos)
	if n, err := categories.Seed(ctx); err != nil {
		utils.Log.WithError(err).Warn("⚠️ [CATEGORY] seeding skipped")
	} else if n > 0 {
		utils.Log.WithField("count", n).Info("🌱 [CATEGORY] default categories seeded")
	}

	if rdb != nil {
		go func() {
			if err := notify.Relay(ctx); err != nil && ctx.Err() == nil {
				utils.Log.WithError(err).Error("❌ [REDIS] notification relay stopped")
			}
		}()
	}

	h := transport.NewHandler(transport.Services{
		Engine:       moderation.NewEngine(repos.MealPlans, repos.Users, blobs, notify),
		Notify:       notify,
		Categories:   categories,
		Feedback:     service.NewFeedbackService(repos),
		Accounts:     service.NewAccountService(repos, idp, blobs, mailer),
		Applications: service.NewApplicationService(repos, idp, blobs, mailer, notify),
		Reports:      service.NewReportService(repos),
		Broker:       broker,
	})
	h.Features = fiber.Map{
		"store":         cfg.StoreDriver,
		"blob_provider": cfg.BlobProvider,
		"auth_mode":     cfg.AuthMode,
		"fcm_enabled":   push != nil,
		"redis_enabled": rdb != nil,
		"smtp_enabled":  mailer.Enabled(),
	}

	app := fiber.New(fiber.Config{
		AppName:      "diabeater-console",
		ErrorHandler: transport.ErrorHandler,
		BodyLimit:    12 << 20,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Requested-With,Cache-Control",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	h.Register(app, middleware.Authenticate(idp))

	go func() {
		<-ctx.Done()
		utils.Log.Info("🛑 [SHUTDOWN] Graceful shutdown initiated...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			utils.Log.WithError(err).Error("❌ [SHUTDOWN] fiber shutdown failed")
		}
		if rdb != nil {
			_ = rdb.Close()
		}
		if fs, ok := docs.(*store.Firestore); ok {
			_ = fs.Close()
		}
	}()

	utils.Log.WithFields(logrus.Fields{
		"port":    cfg.ServerPort,
		"env":     cfg.Env,
		"origins": cfg.AllowedOrigins,
	}).Info("🚀 diabeater-console starting")

	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		utils.Log.Fatalf("❌ [STARTUP] Server failed to start: %v", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config, fbApp *firebase.App) store.Store {
	if cfg.StoreDriver == "postgres" {
		s, err := store.OpenPostgres(cfg)
		if err != nil {
			utils.Log.Fatalf("❌ [STORE] %v", err)
		}
		return s
	}
	client, err := fbApp.Firestore(ctx)
	if err != nil {
		utils.Log.Fatalf("❌ [STORE] firestore client: %v", err)
	}
	utils.Log.Info("✅ [STORE] Firestore connected")
	return store.NewFirestore(client)
}

func openBlobs(ctx context.Context, cfg *config.Config) blob.Store {
	if cfg.BlobProvider == "cloudinary" {
		c, err := blob.NewCloudinary(blob.CloudinaryConfig{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		})
		if err != nil {
			utils.Log.Fatalf("❌ [BLOB] %v", err)
		}
		utils.Log.Info("✅ [BLOB] Cloudinary configured")
		return c
	}
	r2, err := blob.NewR2(ctx, blob.R2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		AccessKeySecret: cfg.R2AccessKeySecret,
		BucketName:      cfg.R2BucketName,
		PublicURL:       cfg.R2PublicURL,
	})
	if err != nil {
		utils.Log.Fatalf("❌ [BLOB] %v", err)
	}
	utils.Log.WithField("bucket", cfg.R2BucketName).Info("✅ [BLOB] R2 configured")
	return r2
}

func openIdentity(ctx context.Context, cfg *config.Config, fbApp *firebase.App) identity.Provider {
	if cfg.AuthMode == "local" {
		local := identity.NewLocal(cfg.JWTSecret, 24*time.Hour)
		if cfg.Env == "development" {
			tok, err := local.Issue(models.Principal{UID: "dev-admin", Name: "Dev Admin", Role: models.RoleAdmin})
			if err == nil {
				utils.Log.WithField("token", tok).Info("🔑 [AUTH] development admin token")
			}
		}
		utils.Log.Warn("⚠️ [AUTH] local HS256 identity in use")
		return local
	}
	client, err := fbApp.Auth(ctx)
	if err != nil {
		utils.Log.Fatalf("❌ [AUTH] firebase auth client: %v", err)
	}
	return identity.NewFirebase(client)
}

func openRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		utils.Log.Info("ℹ️ [REDIS] not configured, notifications fan out in-process only")
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		utils.Log.WithError(err).Warn("⚠️ [REDIS] invalid REDIS_URL, continuing without it")
		return nil
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		utils.Log.WithError(err).Warn("⚠️ [REDIS] unreachable, continuing without it")
		_ = rdb.Close()
		return nil
	}
	utils.Log.Info("✅ [REDIS] connected")
	return rdb
}
