package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/onmir/booktracker/internal/database"
)

type HealthResponse struct {
	Status        string            `json:"status"`
	Time          string            `json:"time"`
	Version       string            `json:"version,omitempty"`
	Checks        map[string]string `json:"checks"`
	LastChangeSeq uint              `json:"last_change_seq"`
	SchemaStages  int64             `json:"schema_stages"`
}

type HealthController struct {
	manager *database.ContextManager
	version string
}

func NewHealthController(manager *database.ContextManager, version string) *HealthController {
	return &HealthController{
		manager: manager,
		version: version,
	}
}

// Status pings the store and reports the last committed change and the
// applied schema stages.
func (h *HealthController) Status(c *gin.Context) {
	response := HealthResponse{
		Status:  "healthy",
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  map[string]string{"store": "not configured"},
	}

	if h.manager != nil {
		if err := h.checkStore(c, &response); err != nil {
			response.Checks["store"] = "error: " + err.Error()
			response.Status = "unhealthy"
		} else {
			response.Checks["store"] = "ok"
			response.Checks["history"] = fmt.Sprintf("seq %d", response.LastChangeSeq)
		}
	}

	statusCode := http.StatusOK
	if response.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}
	c.IndentedJSON(statusCode, response)
}

func (h *HealthController) checkStore(c *gin.Context, response *HealthResponse) error {
	sqlDB, err := h.manager.DB().DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		return err
	}

	state, err := h.manager.State(c.Request.Context())
	if err != nil {
		return err
	}
	response.LastChangeSeq = state.LastSeq
	response.SchemaStages = state.SchemaStages
	return nil
}
