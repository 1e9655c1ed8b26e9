package transport

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/renatodap/snapmod-sub000/internal/database"
	"github.com/renatodap/snapmod-sub000/internal/entity"
)

func (h *PresetHandler) GetBuiltin(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Builtin(c.Query("category")))
}

func (h *PresetHandler) CreatePreset(c *gin.Context) {
	var req entity.PresetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	preset, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, preset)
}

func (h *PresetHandler) ListPresets(c *gin.Context) {
	var (
		list []database.PresetEntry
		err  error
	)
	if q := c.Query("q"); q != "" {
		list, err = h.service.Search(c.Request.Context(), q)
	} else {
		list, err = h.service.List(c.Request.Context(), queryBool(c, "favorites"))
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *PresetHandler) GetPreset(c *gin.Context) {
	preset, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preset)
}

func (h *PresetHandler) UpdatePreset(c *gin.Context) {
	var req entity.PresetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	preset, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preset)
}

func (h *PresetHandler) DeletePreset(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Preset deleted successfully"})
}

func (h *PresetHandler) ToggleFavorite(c *gin.Context) {
	favorite, err := h.service.ToggleFavorite(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorite": favorite})
}

func (h *PresetHandler) UsePreset(c *gin.Context) {
	preset, err := h.service.Use(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preset)
}

func (h *PresetHandler) ExportPresets(c *gin.Context) {
	data, format, err := h.service.Export(c.Request.Context(), c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}

	contentType := "application/json"
	if format == database.FormatYAML {
		contentType = "application/yaml"
	}
	c.Header("Content-Disposition", `attachment; filename="presets.`+string(format)+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// ImportPresets reads a raw JSON or YAML export from the body; ?format=yaml
// selects the YAML document form.
func (h *PresetHandler) ImportPresets(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	imported, err := h.service.Import(c.Request.Context(), data, c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": imported})
}

func (h *PresetHandler) CombinePresets(c *gin.Context) {
	var req entity.CombineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.Combine(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
