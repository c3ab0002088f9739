package handler

import (
	"errors"
	"net/http"

	"github.com/cozyss/snail-herald/internal/middleware"
	"github.com/cozyss/snail-herald/internal/models"
	"github.com/cozyss/snail-herald/internal/service"
	"github.com/cozyss/snail-herald/internal/util"

	"github.com/gin-gonic/gin"
)

// currentUser pulls the authenticated user placed by AuthMiddleware. The
// second return is false when the middleware did not run.
func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return nil, false
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return nil, false
	}
	return user, true
}

// serviceError maps the core error taxonomy onto the response envelope.
func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "not found")
	case errors.Is(err, service.ErrForbidden):
		util.Error(c, http.StatusForbidden, util.CodeForbidden, "permission denied")
	case errors.Is(err, service.ErrBudgetExceeded):
		util.Error(c, http.StatusTooManyRequests, util.CodeBudget, "you have used all your action points for today")
	case errors.Is(err, service.ErrEmptyContent):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "content cannot be empty")
	case errors.Is(err, service.ErrInvalidDelayRange):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "minimum delay cannot be greater than maximum delay")
	case errors.Is(err, service.ErrInvalidVoteType):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid vote type")
	default:
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "internal error")
	}
}
