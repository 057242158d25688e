package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"procureflow-data/internal/auth"
	"procureflow-data/internal/blob"
	"procureflow-data/internal/config"
	"procureflow-data/internal/database"
	"procureflow-data/internal/domain"
	httpapi "procureflow-data/internal/http"
	"procureflow-data/internal/logger"
	"procureflow-data/internal/permission"
	"procureflow-data/internal/repository"
	"procureflow-data/internal/service"
	"procureflow-data/internal/store"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "procureflow-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Redis 仅用作 checklist 历史版本只读缓存，关闭时服务直接读库
	var kv store.KV
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		kv = store.NewRedisKV(redisClient)
	}

	var blobStore blob.Store
	if cfg.Blob.Endpoint != "" {
		blobStore = blob.NewHTTPStore(cfg.Blob.Endpoint, cfg.Blob.PublicURL, log)
	} else {
		ds, err := blob.NewDiskStore(cfg.Blob.LocalDir, cfg.Blob.PublicURL, log)
		if err != nil {
			log.Fatal("Failed to init local blob store", zap.Error(err))
		}
		blobStore = ds
	}

	usersRepo := repository.NewPostgresUsersRepository(db)
	checklistsRepo := repository.NewPostgresChecklistsRepository(db)
	ordersRepo := repository.NewPostgresOrdersRepository(db)
	activitiesRepo := repository.NewPostgresActivitiesRepository(db)

	verifier := auth.NewVerifier(cfg.JWT.Secret, cfg.JWT.Validity)

	userService := service.NewUserService(usersRepo, verifier, log)
	checklistService := service.NewChecklistService(checklistsRepo, userService, kv, log)
	recorder := service.NewActivityRecorder(activitiesRepo, log)
	orderService := service.NewOrderService(ordersRepo, activitiesRepo, checklistService, userService, blobStore, recorder, log)

	// Dev bootstrap: 确保存在一个可登录的 Admin 账号
	// InspectionManager 只能由 Admin/ProcurementManager 创建，没有 Admin 整个系统无法启动使用
	if os.Getenv("SEED_ADMIN") != "false" {
		seedAdmin(db, verifier, log)
	}

	table := permission.NewTable()
	authMW := httpapi.NewAuthMiddleware(verifier, usersRepo, table, log)

	userHandler := httpapi.NewUserHandler(userService, table, log)
	checklistHandler := httpapi.NewChecklistHandler(checklistService, cfg.Pagination.DefaultSize, log)
	orderHandler := httpapi.NewOrderHandler(orderService, cfg.Pagination.DefaultSize, log)

	router := httpapi.NewRouter(log)
	router.RegisterUserRoutes(userHandler, authMW)
	router.RegisterChecklistRoutes(checklistHandler, authMW)
	router.RegisterOrderRoutes(orderHandler, authMW)

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server exited", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if redisClient != nil {
		_ = redisClient.Close()
	}
}

// seedAdmin 开发环境引导：写入（或更新）默认 Admin 账号
// 密码哈希只依赖密码本身，重复执行是幂等的
func seedAdmin(db *sql.DB, verifier auth.CredentialVerifier, log *zap.Logger) {
	email := os.Getenv("SEED_ADMIN_EMAIL")
	if email == "" {
		email = "admin@procureflow.local"
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "ChangeMe123!"
	}

	hash, err := verifier.Hash(password)
	if err != nil {
		log.Warn("Failed to hash seed admin password", zap.Error(err))
		return
	}

	_, err = db.Exec(
		`INSERT INTO users (user_id, name, email, phone_code, phone, password_hash, role, is_verified, is_active, is_deleted, created_at, updated_at)
		 VALUES ($1, $2, $3, '', '', $4, $5, TRUE, TRUE, FALSE, NOW(), NOW())
		 ON CONFLICT (email)
		 DO UPDATE SET password_hash = EXCLUDED.password_hash,
		               is_verified = TRUE,
		               is_active = TRUE,
		               is_deleted = FALSE,
		               updated_at = NOW()`,
		uuid.NewString(),
		"Admin",
		email,
		hash,
		int(domain.RoleAdmin),
	)
	if err != nil {
		log.Warn("Failed to seed admin user", zap.Error(err))
		return
	}
	log.Info("Seed admin ready", zap.String("email", email))
}
