package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"mgtrako/internal/auth"
	"mgtrako/internal/config"
	"mgtrako/internal/errors"
	"mgtrako/internal/handler"
	"mgtrako/internal/service"
)

// Register wires routes and middleware. actorMiddleware must follow the JWT
// check; see handler.ActorMiddleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger *zap.Logger,
	actorMiddleware echo.MiddlewareFunc,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	requestHandler *handler.RequestHandler,
	bulkHandler *handler.BulkHandler,
	partHandler *handler.PartHandler,
	reportHandler *handler.ReportHandler,
) {
	e.Use(middleware.RequestID())
	e.Use(RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowCredentials: false,
	}))
	e.Use(middleware.Gzip())

	e.Validator = &CustomValidator{validator: service.NewValidator()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(cfg.JWTSecret),
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ,cookie:" + auth.CookieName,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
				Error: errors.ErrAuthenticationRequired.Error(),
				Code:  "AUTHENTICATION_REQUIRED",
			})
		},
	}), actorMiddleware)

	secured.GET("/me", userHandler.Me)

	// Everything else needs a role beyond PENDING
	active := secured.Group("", handler.RequireActive)

	active.GET("/requests", requestHandler.ListRequests)
	active.POST("/requests", requestHandler.CreateRequest)
	active.GET("/requests/:id", requestHandler.GetRequest)
	active.PUT("/requests/:id", requestHandler.UpdateRequest)
	active.DELETE("/requests/:id", requestHandler.DeleteRequest)
	active.PATCH("/requests/:id/status", requestHandler.UpdateStatus)
	active.POST("/requests/:id/restore", requestHandler.RestoreRequest)
	active.POST("/bulk-upload", bulkHandler.Upload)

	active.GET("/parts", partHandler.ListParts)
	active.POST("/parts", partHandler.CreatePart)
	active.GET("/parts/:id", partHandler.GetPart)
	active.PUT("/parts/:id", partHandler.UpdatePart)
	active.DELETE("/parts/:id", partHandler.DeletePart)

	active.GET("/users", userHandler.ListUsers)
	active.PATCH("/users/:id/role", userHandler.UpdateRole)

	active.GET("/reports", reportHandler.Summary)
	active.GET("/admin/stats", reportHandler.AdminStats)
}

// RequestLogger writes one access log entry per request: Error for 5xx,
// Warn for 4xx and Info otherwise.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.Int("status", v.Status),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.String("query", c.QueryString()),
				zap.String("ip", v.RemoteIP),
				zap.String("user_agent", v.UserAgent),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if actor, ok := handler.CurrentActor(c); ok {
				fields = append(fields, zap.String("user_id", actor.ID.String()))
			}
			switch {
			case v.Status >= http.StatusInternalServerError:
				if v.Error != nil {
					fields = append(fields, zap.Error(v.Error))
				}
				logger.Error("request", fields...)
			case v.Status >= http.StatusBadRequest:
				logger.Warn("request", fields...)
			default:
				logger.Info("request", fields...)
			}
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo and reports failures as
// field-level validation errors.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return service.ToValidationError(cv.validator.Struct(i))
}
