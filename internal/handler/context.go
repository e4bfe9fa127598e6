package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"mgtrako/internal/auth"
	"mgtrako/internal/errors"
	"mgtrako/internal/model"
	"mgtrako/internal/policy"
	"mgtrako/internal/service"
)

// Context keys set by the authentication middleware.
const (
	actorKey   = "actor"
	userKey    = "current_user"
	tokenIDKey = "token_id"
)

// respond converts a service error into the standard error body.
func respond(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func badRequest(message, code string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func invalidBody() error {
	return badRequest("invalid request body", "INVALID_REQUEST")
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, badRequest("invalid id", "INVALID_UUID")
	}
	return id, nil
}

// CurrentActor returns the authenticated actor stored by ActorMiddleware.
func CurrentActor(c echo.Context) (policy.Actor, bool) {
	actor, ok := c.Get(actorKey).(policy.Actor)
	return actor, ok
}

func mustActor(c echo.Context) (policy.Actor, error) {
	actor, ok := CurrentActor(c)
	if !ok {
		return policy.Actor{}, respond(errors.ErrAuthenticationRequired)
	}
	return actor, nil
}

// ActorMiddleware runs after the JWT middleware. It rejects revoked tokens
// and reloads the user so role changes apply to tokens already issued.
func ActorMiddleware(users service.UserService, tokens auth.TokenStoreInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return respond(errors.ErrAuthenticationRequired)
			}
			claims, ok := token.Claims.(*auth.Claims)
			if !ok {
				return respond(errors.ErrAuthenticationRequired)
			}

			ctx := c.Request().Context()
			if claims.ID != "" {
				revoked, err := tokens.IsAccessTokenBlacklisted(ctx, claims.ID)
				if err != nil {
					return respond(err)
				}
				if revoked {
					return respond(errors.ErrAuthenticationRequired)
				}
			}

			userID, err := claims.UserUUID()
			if err != nil {
				return respond(errors.ErrAuthenticationRequired)
			}
			user, err := users.GetUser(ctx, userID)
			if err != nil {
				if stderrors.Is(err, errors.ErrNotFound) {
					return respond(errors.ErrAuthenticationRequired)
				}
				return respond(err)
			}

			c.Set(actorKey, policy.Actor{ID: user.ID, Role: user.Role})
			c.Set(userKey, user)
			c.Set(tokenIDKey, claims.ID)
			return next(c)
		}
	}
}

// RequireActive blocks users still waiting for a role.
func RequireActive(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor, err := mustActor(c)
		if err != nil {
			return err
		}
		if !policy.IsActive(actor) {
			return respond(errors.ErrForbidden)
		}
		return next(c)
	}
}

func currentUser(c echo.Context) (*model.User, bool) {
	user, ok := c.Get(userKey).(*model.User)
	return user, ok
}
