package controllers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gopress/gopress/config"
	"github.com/gopress/gopress/middleware"
	"github.com/gopress/gopress/utils"
)

// UploadController stores image uploads under a date-partitioned static tree.
type UploadController struct{}

// NewUploadController creates a new UploadController instance.
func NewUploadController() *UploadController {
	return &UploadController{}
}

// Upload accepts one image file, validates type and size, and returns its
// public URL.
func (u *UploadController) Upload(ctx *gin.Context) {
	actor, _ := middleware.CurrentUser(ctx)

	header, err := ctx.FormFile("file")
	if err != nil {
		utils.Fail(ctx, utils.ValidationError("no file uploaded"))
		return
	}

	cfg := config.Get()
	if err := utils.ValidateUpload(header, nil, cfg.MaxUploadBytes); err != nil {
		utils.Fail(ctx, err)
		return
	}

	now := time.Now()
	relDir := filepath.Join(now.Format("2006"), now.Format("01"), now.Format("02"))
	baseDir := filepath.Join(cfg.UploadDir, relDir)
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		utils.Fail(ctx, utils.InternalError(err))
		return
	}

	name := filepath.Base(header.Filename)
	if name == "." || name == "" {
		name = "upload"
	}
	// Prefix with timestamp and uploader id to avoid collisions.
	safeName := fmt.Sprintf("%d_%d_%s", now.UnixNano(), actor.ID, name)
	dstPath := filepath.Join(baseDir, safeName)

	src, err := header.Open()
	if err != nil {
		utils.Fail(ctx, utils.InternalError(err))
		return
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		utils.Fail(ctx, utils.InternalError(err))
		return
	}
	defer dst.Close()

	// Enforce the byte limit while copying; the declared header size is
	// client-controlled.
	written, err := io.Copy(dst, io.LimitReader(src, cfg.MaxUploadBytes+1))
	if err != nil {
		_ = os.Remove(dstPath)
		utils.Fail(ctx, utils.InternalError(err))
		return
	}
	if written > cfg.MaxUploadBytes {
		_ = os.Remove(dstPath)
		utils.Fail(ctx, utils.ValidationError(fmt.Sprintf("file exceeds the %d byte limit", cfg.MaxUploadBytes)))
		return
	}

	url := fmt.Sprintf("/static/uploads/%s/%s", filepath.ToSlash(relDir), safeName)
	utils.Created(ctx, gin.H{"url": url})
}
