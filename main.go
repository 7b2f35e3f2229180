package main

import (
	"time"

	"github.com/sannylab/minifeed/blob"
	"github.com/sannylab/minifeed/config"
	"github.com/sannylab/minifeed/identity"
	"github.com/sannylab/minifeed/models"
	"github.com/sannylab/minifeed/routes"
	"github.com/sannylab/minifeed/store"
	"github.com/sannylab/minifeed/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	resolver := identity.NewResolver(cfg.AdminUsers)

	var st store.PostStore
	switch cfg.StoreDriver {
	case "mysql":
		db := config.InitDatabase(&models.Post{}, &models.Comment{})
		st = store.NewMySQL(db)
	default:
		// Ephemeral variant: the feed lives and dies with the process.
		st = store.NewMemory()
	}
	utils.Sugar.Infof("post store driver: %s", cfg.StoreDriver)

	var blobs blob.Store
	var cleaner *blob.Cleaner
	switch cfg.StorageDriver {
	case "s3":
		s3store, err := blob.NewS3(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL)
		if err != nil {
			utils.Sugar.Warnf("s3 storage disabled: %v", err)
		} else {
			blobs = s3store
		}
	case "local":
		blobs = blob.NewLocal(cfg.UploadDir, "/static/uploads")
	}
	if blobs != nil {
		cleaner = blob.NewCleaner(blobs, time.Duration(cfg.UploadTTLMinutes)*time.Minute, utils.Sugar)
		// Best-effort sweep of uploads never attached to a post
		cleaner.Start(5 * time.Minute)
	}

	r := routes.SetupRouter(st, blobs, cleaner, resolver)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	err := utils.GraceServer(":"+cfg.AppPort, r)
	if cleaner != nil {
		cleaner.Stop()
	}
	if err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
