package api

import (
	"alcyxob/workout-tracker/internal/service"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var statusByKind = map[service.ErrorKind]int{
	service.KindNotFound:        http.StatusNotFound,
	service.KindConflict:        http.StatusConflict,
	service.KindNoActiveSession: http.StatusConflict,
	service.KindValidation:      http.StatusBadRequest,
	service.KindUnauthorized:    http.StatusUnauthorized,
	service.KindStorage:         http.StatusInternalServerError,
}

// respondError maps a service error to its status code. Storage failures
// are logged and hidden from the client.
func respondError(c *gin.Context, err error) {
	kind := service.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
		message = "internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message, "kind": kind})
}

// bindJSON decodes the request body, answering 400 on malformed input or
// fields the target does not declare.
func bindJSON(c *gin.Context, dst interface{}) bool {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// pathID parses a positive int64 path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}
