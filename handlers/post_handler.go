package handlers

import (
	"net/http"
	"strconv"

	"story4u-backend/service"

	"github.com/gin-gonic/gin"
)

type postRequest struct {
	ID          uint    `json:"id"`
	Name        *string `json:"name" binding:"required_without=ID"`
	Description *string `json:"description"`
	Category    *int    `json:"category" binding:"omitempty,min=0"`
}

// SavePost 无id时新建，有id时更新
func (a *API) SavePost(c *gin.Context) {
	var req postRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, a.log, err)
		return
	}
	caller, err := a.currentUser(c)
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	post, isNew, err := a.posts.Save(c.Request.Context(), caller, service.PostInput{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	msg := "Satsang updated"
	if isNew {
		msg = "Satsang created"
	}
	respondOK(c, created(isNew), msg, post)
}

// ListPosts 列出未归档的post，可按category过滤
func (a *API) ListPosts(c *gin.Context) {
	var category *int
	if raw := c.Query("category"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, a.log, badRequest("Invalid category"))
			return
		}
		category = &n
	}
	posts, err := a.posts.List(c.Request.Context(), category)
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	respondOK(c, http.StatusOK, "Satsangs", posts)
}

// ListArchivedPosts 列出已归档的post
func (a *API) ListArchivedPosts(c *gin.Context) {
	caller, err := a.currentUser(c)
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	posts, err := a.posts.ListArchived(c.Request.Context(), caller)
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	respondOK(c, http.StatusOK, "Archived satsangs", posts)
}

// GetPost 获取单个未归档的post
func (a *API) GetPost(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	post, err := a.posts.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	respondOK(c, http.StatusOK, "Satsang", post)
}

// ArchivePost 软删除post
func (a *API) ArchivePost(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	caller, err := a.currentUser(c)
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	if err := a.posts.Archive(c.Request.Context(), caller, id); err != nil {
		respondError(c, a.log, err)
		return
	}
	respondOK(c, http.StatusOK, "Satsang archived", nil)
}

// RestorePost 撤销归档
func (a *API) RestorePost(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	caller, err := a.currentUser(c)
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	post, err := a.posts.Restore(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	respondOK(c, http.StatusOK, "Satsang restored", post)
}

// DeletePost 硬删除post
func (a *API) DeletePost(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, a.log, err)
		return
	}
	if err := a.posts.Delete(c.Request.Context(), id); err != nil {
		respondError(c, a.log, err)
		return
	}
	respondOK(c, http.StatusOK, "Satsang deleted", nil)
}
