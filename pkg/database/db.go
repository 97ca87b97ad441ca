package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Roles a user can hold
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleMember  = "member"
)

// Ticket statuses; done and closed tickets no longer count as open work
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusBlocked    = "blocked"
	StatusDone       = "done"
	StatusClosed     = "closed"
)

// Team represents the teams table
type Team struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"unique;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// User represents the users table. WeeklyHours and WorkloadPercent
// describe how much of the week the user is available for ticket work.
type User struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	Username        string    `gorm:"unique;not null" json:"username"`
	DisplayName     string    `json:"display_name"`
	PasswordHash    string    `gorm:"not null" json:"-"`
	Role            string    `gorm:"size:16;default:member" json:"role"`
	TeamID          *string   `gorm:"size:36;index" json:"team_id,omitempty"`
	WeeklyHours     float64   `json:"weekly_hours"`
	WorkloadPercent float64   `json:"workload_percent"`
	Active          bool      `gorm:"index" json:"active"`
	CreatedAt       time.Time `json:"created_at"`
}

// Ticket represents the tickets table
type Ticket struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	Title          string     `gorm:"not null" json:"title"`
	AssigneeID     *string    `gorm:"size:36;index" json:"assignee_id,omitempty"`
	Status         string     `gorm:"size:16;default:open;index" json:"status"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Milestone represents the milestones table. A milestone that depends on
// another follows its due date when that date moves.
type Milestone struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	DueDate     time.Time `gorm:"not null" json:"due_date"`
	DependsOnID *string   `gorm:"size:36;index" json:"depends_on_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	KeyPreview string     `json:"key_preview"`
	Name       string     `gorm:"not null" json:"name"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`

	// revoked keys are soft deleted so their signature stays refused
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// APIUsage represents the api_usage table
type APIUsage struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	KeyID          uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date           string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount   int    `gorm:"default:0" json:"request_count"`
	TotalResources int    `gorm:"default:0" json:"total_resources"`
	TotalShifted   int    `gorm:"default:0" json:"total_shifted"`
}

// NewID returns a fresh primary key for string-keyed tables
func NewID() string {
	return uuid.New().String()
}

// Options selects the database backend
type Options struct {
	// DatabaseURL selects postgres when set
	DatabaseURL string
	// DataPath is the sqlite file used otherwise
	DataPath string
	Quiet    bool
}

// InitDB initializes the database connection and migrates the schema
func InitDB(opts Options) (*gorm.DB, error) {
	cfg := &gorm.Config{}
	if opts.Quiet {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}

	var dialector gorm.Dialector
	if opts.DatabaseURL != "" {
		dialector = postgres.New(postgres.Config{
			DSN:                  opts.DatabaseURL,
			PreferSimpleProtocol: true,
		})
		cfg.PrepareStmt = false
	} else {
		path := opts.DataPath
		if path == "" {
			path = "planner.db"
		}
		dialector = sqlite.Open(path)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table the service uses
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Team{}, &User{}, &Ticket{}, &Milestone{}, &APIKey{}, &APIUsage{}); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}
