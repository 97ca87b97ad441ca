package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arnavshah/capacity-planner-go/pkg/cascade"
	"github.com/arnavshah/capacity-planner-go/pkg/database"
	"github.com/arnavshah/capacity-planner-go/pkg/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a looked-up record does not exist
var ErrNotFound = errors.New("record not found")

// ErrRevoked is returned for API keys that have been revoked
var ErrRevoked = errors.New("api key revoked")

// Store reads and writes planner records through gorm
type Store struct {
	db *gorm.DB
}

// New creates a Store on an initialized database
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for callers that need raw access
func (s *Store) DB() *gorm.DB {
	return s.db
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ListResources loads every active user, optionally limited to one team,
// with their open tickets that carry a due date.
func (s *Store) ListResources(ctx context.Context, teamID string) ([]models.Resource, error) {
	q := s.db.WithContext(ctx).Where("active = ?", true)
	if teamID != "" {
		q = q.Where("team_id = ?", teamID)
	}

	var users []database.User
	if err := q.Order("username").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	if len(users) == 0 {
		return []models.Resource{}, nil
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	var tickets []database.Ticket
	err := s.db.WithContext(ctx).
		Where("assignee_id IN ?", ids).
		Where("status NOT IN ?", []string{database.StatusDone, database.StatusClosed}).
		Where("due_date IS NOT NULL").
		Order("due_date, id").
		Find(&tickets).Error
	if err != nil {
		return nil, fmt.Errorf("listing open tickets: %w", err)
	}

	byUser := make(map[string][]models.WorkItem, len(users))
	for _, t := range tickets {
		byUser[*t.AssigneeID] = append(byUser[*t.AssigneeID], toWorkItem(t))
	}

	resources := make([]models.Resource, 0, len(users))
	for _, u := range users {
		name := u.DisplayName
		if name == "" {
			name = u.Username
		}
		res := models.Resource{
			ID:              u.ID,
			Name:            name,
			WeeklyHours:     u.WeeklyHours,
			WorkloadPercent: u.WorkloadPercent,
			OpenItems:       byUser[u.ID],
		}
		if u.TeamID != nil {
			res.TeamID = *u.TeamID
		}
		resources = append(resources, res)
	}
	return resources, nil
}

func toWorkItem(t database.Ticket) models.WorkItem {
	return models.WorkItem{
		ID:             t.ID,
		Title:          t.Title,
		EstimatedHours: t.EstimatedHours,
		DueDate:        t.DueDate,
	}
}

// UnassignedItems returns open tickets that nobody owns yet
func (s *Store) UnassignedItems(ctx context.Context) ([]models.WorkItem, error) {
	var tickets []database.Ticket
	err := s.db.WithContext(ctx).
		Where("assignee_id IS NULL").
		Where("status NOT IN ?", []string{database.StatusDone, database.StatusClosed}).
		Order("due_date, id").
		Find(&tickets).Error
	if err != nil {
		return nil, fmt.Errorf("listing unassigned tickets: %w", err)
	}

	items := make([]models.WorkItem, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, toWorkItem(t))
	}
	return items, nil
}

// CreateTeam inserts a team, assigning an id when missing
func (s *Store) CreateTeam(ctx context.Context, t *database.Team) error {
	if t.ID == "" {
		t.ID = database.NewID()
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("creating team: %w", err)
	}
	return nil
}

// ListTeams returns all teams by name
func (s *Store) ListTeams(ctx context.Context) ([]database.Team, error) {
	var teams []database.Team
	if err := s.db.WithContext(ctx).Order("name").Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	return teams, nil
}

// CreateUser inserts a user, assigning an id when missing
func (s *Store) CreateUser(ctx context.Context, u *database.User) error {
	if u.ID == "" {
		u.ID = database.NewID()
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// ListUsers returns users, optionally limited to one team
func (s *Store) ListUsers(ctx context.Context, teamID string) ([]database.User, error) {
	q := s.db.WithContext(ctx)
	if teamID != "" {
		q = q.Where("team_id = ?", teamID)
	}
	var users []database.User
	if err := q.Order("username").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// UserByUsername looks a user up for login
func (s *Store) UserByUsername(ctx context.Context, username string) (*database.User, error) {
	var u database.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// CountUsers returns the number of stored users
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&database.User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// CreateTicket inserts a ticket, assigning an id and status when missing
func (s *Store) CreateTicket(ctx context.Context, t *database.Ticket) error {
	if t.ID == "" {
		t.ID = database.NewID()
	}
	if t.Status == "" {
		t.Status = database.StatusOpen
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("creating ticket: %w", err)
	}
	return nil
}

// ListTickets returns tickets, optionally limited to one assignee
func (s *Store) ListTickets(ctx context.Context, assigneeID string) ([]database.Ticket, error) {
	q := s.db.WithContext(ctx)
	if assigneeID != "" {
		q = q.Where("assignee_id = ?", assigneeID)
	}
	var tickets []database.Ticket
	if err := q.Order("created_at").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("listing tickets: %w", err)
	}
	return tickets, nil
}

// ToScheduledItem converts a stored milestone to the cascade's view of it
func ToScheduledItem(m database.Milestone) models.ScheduledItem {
	return models.ScheduledItem{
		ID:          m.ID,
		Title:       m.Title,
		DueDate:     m.DueDate,
		DependsOnID: m.DependsOnID,
	}
}

// CreateMilestone inserts a milestone, assigning an id when missing.
// The milestone it depends on must exist.
func (s *Store) CreateMilestone(ctx context.Context, m *database.Milestone) error {
	if m.ID == "" {
		m.ID = database.NewID()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if m.DependsOnID != nil {
			var parent database.Milestone
			if err := tx.Where("id = ?", *m.DependsOnID).First(&parent).Error; err != nil {
				return fmt.Errorf("looking up milestone %s: %w", *m.DependsOnID, notFound(err))
			}
		}
		if err := tx.Create(m).Error; err != nil {
			return fmt.Errorf("creating milestone: %w", err)
		}
		return nil
	})
}

// ListMilestones returns all milestones by due date
func (s *Store) ListMilestones(ctx context.Context) ([]database.Milestone, error) {
	var ms []database.Milestone
	if err := s.db.WithContext(ctx).Order("due_date, id").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("listing milestones: %w", err)
	}
	return ms, nil
}

// Milestone looks up one milestone by id
func (s *Store) Milestone(ctx context.Context, id string) (*database.Milestone, error) {
	var m database.Milestone
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// milestoneGraph answers dependency lookups inside one transaction
type milestoneGraph struct {
	tx *gorm.DB
}

func (g milestoneGraph) Dependents(ctx context.Context, id string) ([]models.ScheduledItem, error) {
	var ms []database.Milestone
	if err := g.tx.WithContext(ctx).Where("depends_on_id = ?", id).Order("due_date, id").Find(&ms).Error; err != nil {
		return nil, err
	}
	items := make([]models.ScheduledItem, 0, len(ms))
	for _, m := range ms {
		items = append(items, ToScheduledItem(m))
	}
	return items, nil
}

var _ cascade.DependencyGraph = milestoneGraph{}

// MilestoneUpdate is the outcome of moving a milestone's due date
type MilestoneUpdate struct {
	Milestone database.Milestone `json:"milestone"`
	DaysDelta int                `json:"days_delta"`
	Shifts    []models.DateShift `json:"shifts"`
}

// UpdateMilestoneDueDate moves a milestone's due date. When cascadeDeps is set and
// the date actually changed, every dependent milestone is shifted by the same
// number of days in the same transaction.
func (s *Store) UpdateMilestoneDueDate(ctx context.Context, id string, due time.Time, cascadeDeps bool) (*MilestoneUpdate, error) {
	var out MilestoneUpdate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m database.Milestone
		if err := tx.Where("id = ?", id).First(&m).Error; err != nil {
			return notFound(err)
		}

		delta := cascade.Delta(m.DueDate, due)
		if err := tx.Model(&m).Update("due_date", due).Error; err != nil {
			return fmt.Errorf("updating milestone %s: %w", id, err)
		}
		m.DueDate = due
		out.Milestone = m
		out.DaysDelta = delta

		if !cascadeDeps || delta == 0 {
			return nil
		}

		shifts, err := cascade.Propagate(ctx, id, delta, milestoneGraph{tx: tx})
		if err != nil {
			return fmt.Errorf("cascading from %s: %w", id, err)
		}
		for _, sh := range shifts {
			err := tx.Model(&database.Milestone{}).
				Where("id = ?", sh.ItemID).
				Update("due_date", sh.NewDueDate).Error
			if err != nil {
				return fmt.Errorf("shifting milestone %s: %w", sh.ItemID, err)
			}
		}
		out.Shifts = shifts
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
