package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/cozyss/snail-herald/internal/models"
	"github.com/cozyss/snail-herald/internal/service"
	"github.com/cozyss/snail-herald/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// AdminHandler serves the admin-only endpoints: delay settings,
// announcements, user statistics and the welcome template.
type AdminHandler struct {
	DB        *gorm.DB
	Delays    *service.DelayStore
	Welcome   *service.WelcomeStore
	Scheduler *service.Scheduler
}

func NewAdminHandler(db *gorm.DB, delays *service.DelayStore, welcome *service.WelcomeStore, sched *service.Scheduler) *AdminHandler {
	return &AdminHandler{
		DB:        db,
		Delays:    delays,
		Welcome:   welcome,
		Scheduler: sched,
	}
}

func (h *AdminHandler) GetDelaySettings(c *gin.Context) {
	setting, err := h.Delays.Get()
	if err != nil {
		serviceError(c, err)
		return
	}
	util.Success(c, util.Response{
		"min_delay": setting.MinDelay,
		"max_delay": setting.MaxDelay,
	})
}

type updateDelayReq struct {
	MinDelay *int `json:"min_delay" binding:"required"`
	MaxDelay *int `json:"max_delay" binding:"required"`
}

// UpdateDelaySettings replaces the delay window. Letters already scheduled
// keep the visibility instants they were given.
func (h *AdminHandler) UpdateDelaySettings(c *gin.Context) {
	var req updateDelayReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	setting, err := h.Delays.Set(*req.MinDelay, *req.MaxDelay)
	if err != nil {
		serviceError(c, err)
		return
	}
	util.Success(c, util.Response{
		"min_delay": setting.MinDelay,
		"max_delay": setting.MaxDelay,
	})
}

type announcementReq struct {
	Content string `json:"content" binding:"required"`
}

// SendAnnouncement delivers one letter per registered user, each with its
// own delay draw.
func (h *AdminHandler) SendAnnouncement(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req announcementReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}
	if err := util.ValidateContent(req.Content); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	count, err := h.Scheduler.Announce(user.ID, req.Content)
	if err != nil {
		serviceError(c, err)
		return
	}
	util.Success(c, util.Response{"recipient_count": count})
}

type userStat struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	SentCount int64     `json:"sent_count"`
}

func (h *AdminHandler) userStats() ([]userStat, error) {
	var stats []userStat
	err := h.DB.Model(&models.User{}).
		Select(`users.id, users.username, users.is_admin, users.created_at,
			COUNT(messages.id) AS sent_count`).
		Joins("LEFT JOIN messages ON messages.sender_id = users.id").
		Group("users.id").
		Order("users.created_at DESC").
		Scan(&stats).Error
	return stats, err
}

// ListUserStats returns every account with its sent-letter count, newest
// registrations first.
func (h *AdminHandler) ListUserStats(c *gin.Context) {
	stats, err := h.userStats()
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query user stats failed")
		return
	}
	util.Success(c, util.Response{"users": stats})
}

// ExportUserStats writes the stats as a CSV or XLSX attachment, selected by
// the format query parameter.
func (h *AdminHandler) ExportUserStats(c *gin.Context) {
	stats, err := h.userStats()
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query user stats failed")
		return
	}

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		h.exportCSV(c, stats)
	case "xlsx":
		h.exportXLSX(c, stats)
	default:
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "format must be csv or xlsx")
	}
}

func (h *AdminHandler) exportCSV(c *gin.Context, stats []userStat) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"user_stats_%s.csv\"",
		time.Now().Format("20060102")))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"ID", "Username", "Admin", "Registered", "Letters Sent"})
	for _, s := range stats {
		admin := "no"
		if s.IsAdmin {
			admin = "yes"
		}
		writer.Write([]string{
			fmt.Sprintf("%d", s.ID),
			s.Username,
			admin,
			s.CreatedAt.Format("2006-01-02"),
			fmt.Sprintf("%d", s.SentCount),
		})
	}
}

func (h *AdminHandler) exportXLSX(c *gin.Context, stats []userStat) {
	f := excelize.NewFile()
	sheetName := "User Stats"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create sheet failed")
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"ID", "Username", "Admin", "Registered", "Letters Sent"}
	for i, name := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, name)
	}

	for idx, s := range stats {
		row := idx + 2
		admin := "no"
		if s.IsAdmin {
			admin = "yes"
		}
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), s.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), s.Username)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), admin)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), s.CreatedAt.Format("2006-01-02"))
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), s.SentCount)
	}

	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, "B", "B", 20)
	f.SetColWidth(sheetName, "C", "C", 8)
	f.SetColWidth(sheetName, "D", "D", 12)
	f.SetColWidth(sheetName, "E", "E", 12)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"user_stats_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "export failed")
	}
}

func (h *AdminHandler) GetWelcomeTemplate(c *gin.Context) {
	tpl, err := h.Welcome.Get()
	if err != nil {
		serviceError(c, err)
		return
	}
	util.Success(c, util.Response{"content": tpl.Content})
}

type welcomeTemplateReq struct {
	Content string `json:"content" binding:"required"`
}

func (h *AdminHandler) UpdateWelcomeTemplate(c *gin.Context) {
	var req welcomeTemplateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	tpl, err := h.Welcome.Set(req.Content)
	if err != nil {
		serviceError(c, err)
		return
	}
	util.Success(c, util.Response{"content": tpl.Content})
}
