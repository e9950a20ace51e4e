package handlers

import (
	"errors"
	"net/http"
	"path/filepath"

	"story4u-backend/errs"

	"github.com/gin-gonic/gin"
)

// multipart头部和其他字段预留的额外字节
const multipartOverhead = 1 << 20

// Upload 保存单个上传文件（字段名file）
func (a *API) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.cfg.MaxUploadBytes+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, a.log, errs.New(errs.InvalidRequest, "File size exceeds the maximum limit"))
			return
		}
		respondError(c, a.log, badRequest("Please upload a file!"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, a.log, errs.New(errs.Internal, "open upload", errs.WithErr(err)))
		return
	}
	defer f.Close()

	name, err := a.files.Save(fh.Filename, fh.Header.Get("Content-Type"), fh.Size, f)
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	respondOK(c, http.StatusOK, "Uploaded the file successfully: "+fh.Filename, gin.H{
		"filename": name,
		"url":      a.files.URL(name),
	})
}

// ListFiles 列出已上传的文件
func (a *API) ListFiles(c *gin.Context) {
	files, err := a.files.List()
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	respondOK(c, http.StatusOK, "Files", files)
}

// DownloadFile 下载文件，文件名只取基本名
func (a *API) DownloadFile(c *gin.Context) {
	path, err := a.files.Resolve(c.Param("name"))
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}
