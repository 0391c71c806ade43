package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quest-go/internal/config"
	"quest-go/internal/handlers/apiserver"
	appKafka "quest-go/internal/kafka"
	"quest-go/internal/middleware"
	appRedis "quest-go/internal/redis"
	"quest-go/internal/services"
	"quest-go/internal/storage"

	"github.com/gorilla/handlers"
)

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig(os.Getenv("QUEST_CONFIG_PATH"))
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}
	log.Println("API 服务器配置加载成功。")

	// 2. 初始化数据库连接
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("无法初始化数据库: %v", err)
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		log.Printf("警告：API 服务器数据库表迁移可能失败: %v", err)
	}

	// 3. Redis 令牌黑名单
	redisClient, err := appRedis.NewClient(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("无法连接到 Redis: %v", err)
	}
	defer redisClient.Close()
	tokenBlacklist := appRedis.NewRedisTokenBlacklist(redisClient)

	// 4. Repositories
	userRepo := storage.NewGormUserRepository(db)
	questRepo := storage.NewGormQuestRepository(db)
	attachmentRepo := storage.NewGormAttachmentRepository(db)

	// 5. 附件存储 (local 或 s3)
	fileStorage, err := storage.NewStorageService(cfg.Storage)
	if err != nil {
		log.Fatalf("无法初始化存储服务: %v", err)
	}
	log.Printf("存储服务初始化成功: %s", cfg.Storage.Type)

	// 6. Kafka 生产者，发布附件事件给通知服务器
	kfkProducer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka)
	if err != nil {
		log.Fatalf("无法创建 Kafka 生产者: %v", err)
	}
	defer kfkProducer.Close()
	events := appKafka.NewAttachmentEventPublisher(kfkProducer, cfg.Kafka.AttachmentEventsTopic)

	// 7. Services
	authService := services.NewAuthService(userRepo, tokenBlacklist, cfg.Auth)
	questService := services.NewQuestService(questRepo)
	attachmentService := services.NewAttachmentService(questRepo, attachmentRepo, fileStorage, events)

	// 8. 路由
	uploadsURL, uploadsDir := "", ""
	if cfg.Storage.Type == "local" {
		uploadsURL = staticPath(cfg.Storage.BaseURL)
		uploadsDir = cfg.Storage.LocalPath
		log.Printf("提供静态文件服务于 %s -> %s", uploadsURL, uploadsDir)
	}
	r := apiserver.NewRouter(apiserver.Handlers{
		Auth:   apiserver.NewAuthHandler(authService),
		Quests: apiserver.NewQuestHandler(questService, attachmentService),
		Upload: apiserver.NewUploadHandler(attachmentService, cfg.Storage),
	}, middleware.AuthMiddleware(cfg.Auth.JWTSecretKey, tokenBlacklist), uploadsURL, uploadsDir)

	// 9. CORS
	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.APIServer.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.APIServer.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.APIServer.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.APIServer.CORS.ExposedHeaders),
		handlers.MaxAge(cfg.APIServer.CORS.MaxAge),
	}
	if cfg.APIServer.CORS.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}

	serverAddr := fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      handlers.CORS(corsOptions...)(r),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("API 服务器启动于 %s", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("API 服务器启动失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("收到关闭信号，正在关闭 API 服务器...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Printf("API 服务器强制关闭: %v", err)
	}
	log.Println("API 服务器已成功关闭")
}

// staticPath 取 BASE_URL 的路径部分，BASE_URL 可以是 "/uploads" 也可以是完整 URL。
func staticPath(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Path == "" {
		return "/uploads"
	}
	return u.Path
}
