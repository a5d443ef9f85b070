package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tunetools/tunetools-api/internal/album"
	"github.com/tunetools/tunetools-api/internal/middleware"
)

// maxCoverBytes caps uploaded cover images at 10 MB
const maxCoverBytes = 10 << 20

type AlbumHandler struct {
	albums *album.Manager
}

func NewAlbumHandler(albums *album.Manager) *AlbumHandler {
	return &AlbumHandler{albums: albums}
}

// List returns the user's weekly albums, newest first
func (h *AlbumHandler) List(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	albums, err := h.albums.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list albums"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"albums": albums})
}

// Get returns one album together with its songs
func (h *AlbumHandler) Get(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	albumID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid album id"})
		return
	}

	found, err := h.albums.Get(c.Request.Context(), userID, albumID)
	if err != nil {
		if errors.Is(err, album.ErrAlbumNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Album not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load album"})
		return
	}

	songs, err := h.albums.Songs(c.Request.Context(), userID, albumID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load album songs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"album": found,
		"songs": songs,
	})
}

type renameAlbumRequest struct {
	Name string `json:"name" binding:"required"`
}

// Rename updates the album's display name
func (h *AlbumHandler) Rename(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	albumID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid album id"})
		return
	}

	var req renameAlbumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}

	renamed, err := h.albums.Rename(c.Request.Context(), userID, albumID, req.Name)
	if err != nil {
		if errors.Is(err, album.ErrAlbumNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Album not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rename album"})
		return
	}

	c.JSON(http.StatusOK, renamed)
}

// ReplaceCover swaps the album artwork for a user-supplied image. The vinyl
// transform is applied to the upload, same as generated artwork.
func (h *AlbumHandler) ReplaceCover(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	albumID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid album id"})
		return
	}

	file, err := c.FormFile("cover")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cover image file is required"})
		return
	}
	if file.Size > maxCoverBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Cover image too large"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read cover image"})
		return
	}
	defer src.Close()

	artwork, err := io.ReadAll(io.LimitReader(src, maxCoverBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read cover image"})
		return
	}

	updated, err := h.albums.ReplaceCover(c.Request.Context(), userID, albumID, artwork)
	if err != nil {
		if errors.Is(err, album.ErrAlbumNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Album not found"})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Could not process cover image"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Delete removes the album and its songs
func (h *AlbumHandler) Delete(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	albumID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid album id"})
		return
	}

	if err := h.albums.Delete(c.Request.Context(), userID, albumID); err != nil {
		if errors.Is(err, album.ErrAlbumNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Album not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete album"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
