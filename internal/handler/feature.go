package handler

import (
	"net/http"
	"strconv"

	"github.com/cozyss/snail-herald/internal/service"
	"github.com/cozyss/snail-herald/internal/util"

	"github.com/gin-gonic/gin"
)

// FeatureHandler serves the feature request board.
type FeatureHandler struct {
	Board  *service.Board
	Ledger *service.Ledger
}

func NewFeatureHandler(board *service.Board, ledger *service.Ledger) *FeatureHandler {
	return &FeatureHandler{Board: board, Ledger: ledger}
}

type createFeatureReq struct {
	Description string `json:"description" binding:"required"`
}

func (h *FeatureHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req createFeatureReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	fr, err := h.Board.Create(user.ID, user.IsAdmin, req.Description)
	if err != nil {
		serviceError(c, err)
		return
	}

	util.Success(c, util.Response{
		"id":          fr.ID,
		"description": fr.Description,
		"created_at":  fr.CreatedAt,
	})
}

type voteReq struct {
	VoteType string `json:"vote_type" binding:"required"`
}

func (h *FeatureHandler) Vote(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid feature request id")
		return
	}

	var req voteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	if err := h.Board.Vote(user.ID, user.IsAdmin, uint(id), req.VoteType); err != nil {
		serviceError(c, err)
		return
	}
	util.Success(c, util.Response{"message": "vote recorded"})
}

// List returns the board ordered by score. Scores are tallied from the
// action ledger on every call.
func (h *FeatureHandler) List(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	features, err := h.Board.List()
	if err != nil {
		serviceError(c, err)
		return
	}
	util.Success(c, util.Response{"features": features})
}

// Points reports how many actions the caller has left today. Admins get
// "unlimited" instead of a number.
func (h *FeatureHandler) Points(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	points, unlimited, err := h.Ledger.Remaining(user.ID, user.IsAdmin)
	if err != nil {
		serviceError(c, err)
		return
	}
	if unlimited {
		util.Success(c, util.Response{"points": "unlimited"})
		return
	}
	util.Success(c, util.Response{"points": points})
}

// Delete removes a feature request and its ledger rows. Admin only, routed
// behind AdminMiddleware.
func (h *FeatureHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid feature request id")
		return
	}

	if err := h.Board.Delete(uint(id)); err != nil {
		serviceError(c, err)
		return
	}
	util.Success(c, util.Response{"message": "deleted"})
}
