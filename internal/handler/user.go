package handler

import (
	"net/http"
	"strings"

	"github.com/cozyss/snail-herald/internal/models"
	"github.com/cozyss/snail-herald/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UserHandler serves profile and directory lookups.
type UserHandler struct {
	DB *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{DB: db}
}

func (h *UserHandler) GetMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	util.Success(c, util.Response{
		"id":         user.ID,
		"username":   user.Username,
		"is_admin":   user.IsAdmin,
		"created_at": user.CreatedAt,
	})
}

// Search matches usernames by case-insensitive prefix, restricted to people
// the caller has already exchanged letters with. Results come back in
// ascending username order, capped at 10.
func (h *UserHandler) Search(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		util.Success(c, util.Response{"users": []string{}})
		return
	}

	var usernames []string
	err := h.DB.Model(&models.User{}).
		Where("LOWER(username) LIKE LOWER(?)", query+"%").
		Where("id <> ?", user.ID).
		Where(`id IN (
			SELECT receiver_id FROM messages WHERE sender_id = ?
			UNION
			SELECT sender_id FROM messages WHERE receiver_id = ?
		)`, user.ID, user.ID).
		Order("username ASC").
		Limit(10).
		Pluck("username", &usernames).Error
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "search users failed")
		return
	}

	util.Success(c, util.Response{"users": usernames})
}
