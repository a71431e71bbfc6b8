package main

import (
	"context"
	"time"

	"github.com/DustGalaxy/dZENcode-Test-Task/blobstore"
	"github.com/DustGalaxy/dZENcode-Test-Task/cache"
	"github.com/DustGalaxy/dZENcode-Test-Task/config"
	"github.com/DustGalaxy/dZENcode-Test-Task/controllers"
	"github.com/DustGalaxy/dZENcode-Test-Task/models"
	"github.com/DustGalaxy/dZENcode-Test-Task/notify"
	"github.com/DustGalaxy/dZENcode-Test-Task/realtime"
	"github.com/DustGalaxy/dZENcode-Test-Task/routes"
	"github.com/DustGalaxy/dZENcode-Test-Task/store"
	"github.com/DustGalaxy/dZENcode-Test-Task/thread"
	"github.com/DustGalaxy/dZENcode-Test-Task/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.Comment{}, &models.Attachment{})

	comments := store.NewGormStore(db)
	if err := comments.EnsureSentinelUser(context.Background()); err != nil {
		utils.Sugar.Fatalf("ensure sentinel user: %v", err)
	}

	rdb := utils.GetRedis()
	previewCache := cache.NewRedisPreviewCache(rdb, utils.Sugar)
	queue := notify.NewRedisQueue(rdb, cfg.NotifyQueueKey, cfg.NotifyDeadLetterKey)

	hub := realtime.NewHub(utils.Sugar)
	resolver := thread.NewResolver(comments)
	dispatcher := notify.NewDispatcher(resolver, hub, queue, utils.Sugar)

	worker := notify.NewEmailWorker(queue, notify.SMTPMailer{}, utils.Sugar,
		cfg.NotifyMaxAttempts, time.Duration(cfg.NotifyBackoffSec)*time.Second)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go worker.Run(workerCtx)

	blobs := blobstore.NewLocalStore(cfg.UploadDir, "/static/uploads", int64(cfg.UploadMaxSizeMB)*1024*1024)

	commentController := controllers.NewCommentController(comments, previewCache, dispatcher, blobs, utils.Sugar)
	wsController := controllers.NewWSController(hub, utils.Sugar)

	r := routes.SetupRouter(commentController, wsController)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
