package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSONResponse defines the uniform envelope for API responses. Code 0 means
// success; non-zero codes identify the specific failure for API clients.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success writes a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, JSONResponse{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error writes a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
	})
}
