package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"boardly/internal/middleware"
	"boardly/internal/services"
	"boardly/internal/utils"

	"github.com/gin-gonic/gin"
)

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}
	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	obj["CurrentPath"] = c.Request.URL.Path
	c.HTML(code, name, obj)
}

// RenderError renders the error page.
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message, "Status": code})
}

// renderServiceError shows a service failure as an HTML page.
func renderServiceError(c *gin.Context, err error) {
	status, body := errorBody(c, err)
	RenderError(c, status, body["message"].(string))
}

var kindStatus = map[services.Kind]int{
	services.KindValidation:   http.StatusBadRequest,
	services.KindAuthRequired: http.StatusUnauthorized,
	services.KindDenied:       http.StatusForbidden,
	services.KindNotFound:     http.StatusNotFound,
	services.KindConflict:     http.StatusConflict,
	services.KindInternal:     http.StatusInternalServerError,
}

// writeError is the single place where service errors become HTTP
// responses.
func writeError(c *gin.Context, err error) {
	status, body := errorBody(c, err)
	c.JSON(status, body)
}

func errorBody(c *gin.Context, err error) (int, gin.H) {
	var e *services.Error
	if !errors.As(err, &e) {
		e = &services.Error{Kind: services.KindInternal, Message: "internal server error", Err: err}
	}
	status, ok := kindStatus[e.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"request_id", middleware.RequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		_ = c.Error(err)
	}

	body := gin.H{"error": e.Kind, "message": e.Message}
	if e.Field != "" {
		body["field"] = e.Field
	}
	return status, body
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": services.KindValidation, "message": message})
}

// bindJSON decodes the request body and answers 400 on malformed input.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid request body")
		return false
	}
	return true
}

// idParam parses a positive numeric path parameter and answers 400 otherwise.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		badRequest(c, name+" must be a positive number")
		return 0, false
	}
	return id, true
}
