package transport

import (
	"github.com/renatodap/snapmod-sub000/internal/service"
)

type ImageHandler struct {
	service       service.ImageService
	maxUploadSize int64
}

// NewImageHandler builds the image handler. Uploads larger than maxUploadSize
// bytes are refused; zero disables the check.
func NewImageHandler(service service.ImageService, maxUploadSize int64) *ImageHandler {
	return &ImageHandler{service: service, maxUploadSize: maxUploadSize}
}

type HistoryHandler struct {
	service service.HistoryService
}

func NewHistoryHandler(service service.HistoryService) *HistoryHandler {
	return &HistoryHandler{service: service}
}

type PresetHandler struct {
	service service.PresetService
}

func NewPresetHandler(service service.PresetService) *PresetHandler {
	return &PresetHandler{service: service}
}
