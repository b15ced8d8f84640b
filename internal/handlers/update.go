package handlers

import (
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"water_heater/internal/service"
)

const updateChunkSize = 32 * 1024

// firmwareUpdate godoc
// @Summary      Upload a firmware image
// @Description  Stages a new firmware image on disk. The heater is forced off for the duration; on success the device restarts into the new image.
// @Tags         update
// @Accept       multipart/form-data
// @Produce      json
// @Param        firmware formData file true "firmware image"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} map[string]interface{}
// @Failure      409 {object} map[string]interface{}
// @Router       /update [post]
func (h *Handler) firmwareUpdate(c *gin.Context) {
	file, header, err := c.Request.FormFile("firmware")
	if err != nil {
		h.services.Updater.OnError(service.StageBegin, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing firmware file"})
		return
	}
	defer file.Close()

	if err := h.services.Updater.OnStart(c.Request.Context(), header.Size); err != nil {
		h.log.Warnw("firmware update refused", "error", err)
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	staging, err := os.CreateTemp("", "firmware-*.bin")
	if err != nil {
		h.services.Updater.OnError(service.StageBegin, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot stage image"})
		return
	}
	defer staging.Close()

	// Chunked copy so progress is reported while the image streams in.
	var written int64
	buf := make([]byte, updateChunkSize)
	for {
		n, rerr := file.Read(buf)
		if n > 0 {
			if _, werr := staging.Write(buf[:n]); werr != nil {
				h.services.Updater.OnError(service.StageEnd, werr)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot write image"})
				return
			}
			written += int64(n)
			h.services.Updater.OnProgress(written, header.Size)
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			h.services.Updater.OnError(service.StageReceive, rerr)
			c.JSON(http.StatusBadRequest, gin.H{"error": "upload interrupted"})
			return
		}
	}

	if err := staging.Sync(); err != nil {
		h.services.Updater.OnError(service.StageEnd, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot persist image"})
		return
	}

	// Respond before OnEnd: the restart it requests would otherwise race
	// the reply onto a closing socket.
	c.JSON(http.StatusOK, gin.H{"result": "staged", "bytes": written, "image": staging.Name()})
	h.services.Updater.OnEnd(c.Request.Context())
}
