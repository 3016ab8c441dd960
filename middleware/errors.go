package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/gopress/gopress/config"
	"github.com/gopress/gopress/utils"
)

// ErrorHandler is the central error mapper: it translates the typed error a
// handler attached to the context into the uniform {error, details?} envelope
// and status code. Register it before any route middleware.
func ErrorHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()

		last := ctx.Errors.Last()
		if last == nil || ctx.Writer.Written() {
			return
		}

		appErr, ok := utils.AsAppError(last.Err)
		if !ok {
			appErr = utils.InternalError(last.Err)
		}

		body := gin.H{"error": appErr.Message}
		if appErr.Details != nil {
			body["details"] = appErr.Details
		}

		if appErr.Kind == utils.KindInternal {
			if utils.Sugar != nil {
				utils.Sugar.Errorw("request failed",
					"path", ctx.Request.URL.Path,
					"method", ctx.Request.Method,
					"error", appErr.Err,
				)
			}
			// Internal detail leaves the process only in development.
			if config.Get().IsDevelopment() && appErr.Err != nil {
				body["details"] = appErr.Err.Error()
			}
		}

		ctx.JSON(appErr.HTTPStatus(), body)
	}
}
