package controllers

import (
	"context"
	"net/http"

	"github.com/shashiranjanraj/brewhaus/pkg/response"
)

// Pinger reports datastore reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	db Pinger
}

func NewHealthController(db Pinger) *HealthController {
	return &HealthController{db: db}
}

func (c *HealthController) Check(w http.ResponseWriter, r *http.Request) {
	if err := c.db.Ping(r.Context()); err != nil {
		response.Error(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	response.Success(w, map[string]string{"status": "ok"})
}
