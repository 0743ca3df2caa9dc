package handler

import (
	"Crewboard/internal/api/dto"
	"Crewboard/internal/pkg/consts"
	"Crewboard/internal/pkg/minio"
	"Crewboard/internal/pkg/redis"
	"Crewboard/internal/pkg/response"
	"Crewboard/internal/pkg/util"
	"Crewboard/internal/service"
	log "log/slog"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type MediaHandler struct{}

func NewMediaHandler() *MediaHandler {
	return &MediaHandler{}
}

// Upload 上传消息附件
// 先落对象存储再缓存临时元数据，超时未被消息引用的对象由清理任务回收
func (s *MediaHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	reader, err := file.Open()
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	defer func() { _ = reader.Close() }()

	contentType, err := util.GetSafeContentType(reader)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	isImage := strings.HasPrefix(contentType, consts.MimePrefixImage)
	isVideo := strings.HasPrefix(contentType, consts.MimePrefixVideo)
	isAudio := strings.HasPrefix(contentType, consts.MimePrefixAudio)
	isPDF := contentType == "application/pdf"
	if !isImage && !isVideo && !isAudio && !isPDF {
		response.Error(c, service.ErrFileNotSupported)
		return
	}

	var width, height int
	if isImage {
		w, h, err := util.GetImageDimensions(reader)
		if err == nil {
			width, height = w, h
		} else {
			log.WarnContext(c, "图片尺寸解析失败", "filename", file.Filename, "err", err)
		}
	}

	ext := path.Ext(file.Filename)
	objectName := time.Now().Format("2006/01/02/") + uuid.NewString() + ext

	fileKey, err := minio.UploadFile(c.Request.Context(), objectName, reader, file.Size, contentType)
	if err != nil {
		log.ErrorContext(c, "MinIO 上传失败", "err", err)
		response.Error(c, service.UnExpectedError)
		return
	}

	meta := dto.MediaTempMetadata{
		MimeType:  contentType,
		Filename:  file.Filename,
		Width:     width,
		Height:    height,
		Size:      file.Size,
		CreatedAt: time.Now().Unix(),
	}
	metaBytes, _ := json.Marshal(meta)
	_ = redis.HSet(c.Request.Context(), consts.MediaTempKey, fileKey, string(metaBytes))

	log.InfoContext(c, "附件上传成功", "fileKey", fileKey, "type", contentType)
	response.Success(c, map[string]interface{}{
		"url":      minio.GetPublicURL(fileKey),
		"key":      fileKey,
		"mime":     contentType,
		"width":    width,
		"height":   height,
		"size":     file.Size,
		"original": file.Filename,
	})
}
