package handlers

import (
	"net/http"
	"strings"

	"story4u-backend/service"

	"github.com/gin-gonic/gin"
)

type gifRequest struct {
	ID        uint    `json:"id"`
	Name      *string `json:"name" binding:"required_without=ID"`
	Content   *string `json:"gif_instance"`
	OuterFile *string `json:"outer_file"`
	Audio     *string `json:"audio"`
}

// SaveGif 无id时新建，有id时更新
func (a *API) SaveGif(c *gin.Context) {
	var req gifRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, a.log, err)
		return
	}
	caller, err := a.currentUser(c)
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	gif, isNew, err := a.gifs.Save(c.Request.Context(), caller, service.GifInput{
		ID:        req.ID,
		Name:      req.Name,
		Content:   req.Content,
		OuterFile: req.OuterFile,
		Audio:     req.Audio,
	})
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	msg := "Gif updated"
	if isNew {
		msg = "Gif created"
	}
	respondOK(c, created(isNew), msg, gif)
}

// ListGifs 按创建时间倒序列出gif，可按user过滤
func (a *API) ListGifs(c *gin.Context) {
	gifs, err := a.gifs.List(c.Request.Context(), strings.ToLower(strings.TrimSpace(c.Query("user"))))
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	respondOK(c, http.StatusOK, "Gifs", gifs)
}

// GetGif 获取单个gif
func (a *API) GetGif(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	gif, err := a.gifs.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	respondOK(c, http.StatusOK, "Gif", gif)
}

// DeleteGif 硬删除gif
func (a *API) DeleteGif(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	if err := a.gifs.Delete(c.Request.Context(), id); err != nil {
		respondError(c, a.log, err)
		return
	}
	respondOK(c, http.StatusOK, "Gif deleted", nil)
}
