package handlers

import (
	"net/http"
	"strings"

	"github.com/arnavshah/capacity-planner-go/pkg/database"
	"github.com/gin-gonic/gin"
)

// CreateTeam adds a team
func (h *Handler) CreateTeam(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	team := database.Team{Name: strings.TrimSpace(req.Name)}
	if err := h.Store.CreateTeam(c.Request.Context(), &team); err != nil {
		h.fail(c, "Could not create team", err)
		return
	}
	c.JSON(http.StatusCreated, team)
}

// ListTeams returns all teams
func (h *Handler) ListTeams(c *gin.Context) {
	teams, err := h.Store.ListTeams(c.Request.Context())
	if err != nil {
		h.fail(c, "Could not list teams", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"teams": teams})
}

// CreateUser adds a team member with their weekly capacity
func (h *Handler) CreateUser(c *gin.Context) {
	var req struct {
		Username        string   `json:"username" binding:"required"`
		Password        string   `json:"password" binding:"required"`
		DisplayName     string   `json:"display_name"`
		Role            string   `json:"role"`
		TeamID          *string  `json:"team_id"`
		WeeklyHours     *float64 `json:"weekly_hours"`
		WorkloadPercent *float64 `json:"workload_percent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := database.User{
		Username:        strings.TrimSpace(req.Username),
		DisplayName:     req.DisplayName,
		Role:            req.Role,
		TeamID:          req.TeamID,
		WeeklyHours:     40,
		WorkloadPercent: 100,
		Active:          true,
	}
	if user.Role == "" {
		user.Role = database.RoleMember
	}
	switch user.Role {
	case database.RoleAdmin, database.RoleManager, database.RoleMember:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role: " + user.Role})
		return
	}
	if user.Role == database.RoleAdmin && c.GetString("role") != database.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only admins can create admins"})
		return
	}
	if req.WeeklyHours != nil {
		if *req.WeeklyHours < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "weekly_hours must be >= 0"})
			return
		}
		user.WeeklyHours = *req.WeeklyHours
	}
	if req.WorkloadPercent != nil {
		if *req.WorkloadPercent < 0 || *req.WorkloadPercent > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "workload_percent must be between 0 and 100"})
			return
		}
		user.WorkloadPercent = *req.WorkloadPercent
	}

	hash, err := h.Auth.HashPassword(req.Password)
	if err != nil {
		h.fail(c, "Could not hash password", err)
		return
	}
	user.PasswordHash = hash

	if err := h.Store.CreateUser(c.Request.Context(), &user); err != nil {
		h.fail(c, "Could not create user", err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// ListUsers returns users, optionally filtered by ?team=
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Store.ListUsers(c.Request.Context(), c.Query("team"))
	if err != nil {
		h.fail(c, "Could not list users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// CreateTicket adds a ticket
func (h *Handler) CreateTicket(c *gin.Context) {
	var req struct {
		Title          string   `json:"title" binding:"required"`
		AssigneeID     *string  `json:"assignee_id"`
		Status         string   `json:"status"`
		EstimatedHours *float64 `json:"estimated_hours"`
		DueDate        *string  `json:"due_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Status {
	case "", database.StatusOpen, database.StatusInProgress, database.StatusBlocked, database.StatusDone, database.StatusClosed:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status: " + req.Status})
		return
	}
	if req.EstimatedHours != nil && *req.EstimatedHours < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "estimated_hours must be >= 0"})
		return
	}

	ticket := database.Ticket{
		Title:          req.Title,
		AssigneeID:     req.AssigneeID,
		Status:         req.Status,
		EstimatedHours: req.EstimatedHours,
	}
	if req.DueDate != nil && *req.DueDate != "" {
		due, err := parseDate(*req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date"})
			return
		}
		ticket.DueDate = &due
	}

	if err := h.Store.CreateTicket(c.Request.Context(), &ticket); err != nil {
		h.fail(c, "Could not create ticket", err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

// ListTickets returns tickets, optionally filtered by ?assignee=
func (h *Handler) ListTickets(c *gin.Context) {
	tickets, err := h.Store.ListTickets(c.Request.Context(), c.Query("assignee"))
	if err != nil {
		h.fail(c, "Could not list tickets", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

// CreateMilestone adds a milestone, optionally depending on another one
func (h *Handler) CreateMilestone(c *gin.Context) {
	var req struct {
		Title       string  `json:"title" binding:"required"`
		DueDate     string  `json:"due_date" binding:"required"`
		DependsOnID *string `json:"depends_on_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	due, err := parseDate(req.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date"})
		return
	}

	m := database.Milestone{Title: req.Title, DueDate: due, DependsOnID: req.DependsOnID}
	if err := h.Store.CreateMilestone(c.Request.Context(), &m); err != nil {
		h.fail(c, "Could not create milestone", err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// ListMilestones returns all milestones
func (h *Handler) ListMilestones(c *gin.Context) {
	ms, err := h.Store.ListMilestones(c.Request.Context())
	if err != nil {
		h.fail(c, "Could not list milestones", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"milestones": ms})
}
