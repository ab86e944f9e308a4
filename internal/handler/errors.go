package handler

import (
	"errors"
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"github.com/jengzang/urban-twin-go/internal/analysis"
	"github.com/jengzang/urban-twin-go/internal/aoi"
	"github.com/jengzang/urban-twin-go/internal/repository"
	"github.com/jengzang/urban-twin-go/internal/service"
	"github.com/jengzang/urban-twin-go/pkg/response"
)

// respondError maps service errors onto the response envelope. data, when
// given, is attached so clients can resync their view.
func respondError(c *gin.Context, err error, data ...interface{}) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, err.Error(), data...)
	case errors.Is(err, aoi.ErrInvalidTransition), errors.Is(err, analysis.ErrStaleArea):
		response.Conflict(c, err.Error(), data...)
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrNoTemperatureData):
		response.NotFound(c, err.Error())
	default:
		_ = c.Error(err)
		log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		response.InternalError(c, "internal server error")
	}
}

func bindError(c *gin.Context, err error) {
	response.BadRequest(c, "invalid request: "+err.Error())
}
