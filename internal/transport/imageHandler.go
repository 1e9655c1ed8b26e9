package transport

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/renatodap/snapmod-sub000/internal/database"
	"github.com/renatodap/snapmod-sub000/internal/entity"
	"github.com/renatodap/snapmod-sub000/internal/pkg/filters"
)

func (h *ImageHandler) GetParameters(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Parameters())
}

func (h *ImageHandler) Preview(c *gin.Context) {
	var req entity.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.Preview(req.Filters)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ImageHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}

	if !isValidImageType(filepath.Ext(file.Filename)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image type. Supported: jpg, jpeg, png, gif, webp"})
		return
	}
	if h.maxUploadSize > 0 && file.Size > h.maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("Image larger than %d bytes", h.maxUploadSize)})
		return
	}

	res, err := h.service.Upload(c.Request.Context(), c.Param("session"), file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Render commits a filtered version of an existing one. Async requests are
// handed to the render processor and answered with 202.
func (h *ImageHandler) Render(c *gin.Context) {
	var req entity.RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	session := c.Param("session")

	if req.Async {
		taskID, err := h.service.QueueRender(ctx, session, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, entity.RenderQueuedResponse{TaskID: taskID, Status: "queued"})
		return
	}

	id, err := h.service.Render(ctx, session, req)
	if err != nil {
		respondError(c, err)
		return
	}
	version, err := h.service.GetVersion(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toVersionResponse(version))
}

func (h *ImageHandler) ListVersions(c *gin.Context) {
	versions, err := h.service.Timeline(c.Request.Context(), c.Param("session"), queryBool(c, "favorites"))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]entity.VersionResponse, len(versions))
	for i := range versions {
		out[i] = toVersionResponse(&versions[i])
	}
	c.JSON(http.StatusOK, out)
}

func (h *ImageHandler) ClearSession(c *gin.Context) {
	removed, err := h.service.ClearSession(c.Request.Context(), c.Param("session"), queryBool(c, "keep_favorites"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *ImageHandler) GetVersion(c *gin.Context) {
	version, err := h.service.GetVersion(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVersionResponse(version))
}

func (h *ImageHandler) GetVersionImage(c *gin.Context) {
	version, err := h.service.OpenVersion(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, version.Payload.MimeType, version.Payload.Image)
}

func (h *ImageHandler) ToggleFavorite(c *gin.Context) {
	favorite, err := h.service.ToggleFavorite(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorite": favorite})
}

func (h *ImageHandler) RenameVersion(c *gin.Context) {
	var req entity.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	version, err := h.service.Rename(c.Request.Context(), c.Param("id"), req.Label)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVersionResponse(version))
}

func (h *ImageHandler) DeleteVersion(c *gin.Context) {
	if err := h.service.DeleteVersion(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Version deleted successfully"})
}

func (h *ImageHandler) SearchVersions(c *gin.Context) {
	versions, err := h.service.SearchVersions(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]entity.VersionResponse, len(versions))
	for i := range versions {
		out[i] = toVersionResponse(&versions[i])
	}
	c.JSON(http.StatusOK, out)
}

func (h *ImageHandler) ExportVersions(c *gin.Context) {
	data, err := h.service.ExportVersions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="versions.json"`)
	c.Data(http.StatusOK, "application/json", data)
}

func (h *ImageHandler) ImportVersions(c *gin.Context) {
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	}

	imported, err := h.service.ImportVersions(c.Request.Context(), data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": imported})
}

func toVersionResponse(e *database.VersionEntry) entity.VersionResponse {
	v := e.Payload
	res := entity.VersionResponse{
		ID:         e.ID,
		SessionID:  e.Group,
		MimeType:   v.MimeType,
		Width:      v.Width,
		Height:     v.Height,
		Source:     v.Source,
		Filters:    v.Filters,
		Prompt:     v.Prompt,
		ParentID:   v.ParentID,
		Label:      v.Label,
		Favorite:   e.Favorite,
		UsageCount: e.UsageCount,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339Nano),
		LastUsedAt: e.LastUsedAt.Format(time.RFC3339Nano),
	}
	if len(v.Thumbnail) > 0 {
		res.Thumbnail = filters.DataURI(http.DetectContentType(v.Thumbnail), v.Thumbnail)
	}
	return res
}

func isValidImageType(ext string) bool {
	validTypes := map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
		".webp": true,
	}
	return validTypes[strings.ToLower(ext)]
}

func queryBool(c *gin.Context, key string) bool {
	ok, _ := strconv.ParseBool(c.Query(key))
	return ok
}
