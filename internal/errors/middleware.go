// This file implements Gin error-handling middleware: converting AppError
// into a consistent JSON response, logging with severity matched to status
// code, and recovering from panics.
package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ErrorHandler is a middleware that handles errors consistently.
func ErrorHandler(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()

		if appErr, ok := err.Err.(*AppError); ok {
			if appErr.StatusCode >= 500 {
				log.Error().Str("code", appErr.Code).Str("details", appErr.Details).Msg(appErr.Message)
			} else {
				log.Warn().Str("code", appErr.Code).Msg(appErr.Message)
			}
			c.JSON(appErr.StatusCode, appErr.ToResponse())
			return
		}

		log.Error().Err(err.Err).Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   ErrCodeInternalServer,
			Message: "an unexpected error occurred",
			Code:    ErrCodeInternalServer,
		})
	}
}

// Recovery is a middleware that recovers from panics in HTTP handlers.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("recovered from panic in HTTP handler")
				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Error:   ErrCodeInternalServer,
					Message: "an unexpected error occurred",
					Code:    ErrCodeInternalServer,
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// HandleError is a helper function to handle errors in handlers.
func HandleError(c *gin.Context, err error) {
	if appErr, ok := err.(*AppError); ok {
		c.Error(appErr)
		c.JSON(appErr.StatusCode, appErr.ToResponse())
		return
	}
	internalErr := InternalServer(err.Error())
	c.Error(internalErr)
	c.JSON(internalErr.StatusCode, internalErr.ToResponse())
}

// AbortWithError is a helper to abort a request with a structured error.
func AbortWithError(c *gin.Context, err *AppError) {
	c.Error(err)
	c.AbortWithStatusJSON(err.StatusCode, err.ToResponse())
}
