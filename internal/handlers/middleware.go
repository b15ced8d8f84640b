package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
)

// touchActivity refreshes the liveness clock on every served request,
// malformed ones included: any request the transport delivered is evidence
// the transport still works.
func (h *Handler) touchActivity(c *gin.Context) {
	if h.services != nil && h.services.Activity != nil {
		h.services.Activity.Touch(time.Now())
	}
	c.Next()
}
