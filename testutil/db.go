// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nexus/models"
)

// NewDB opens a migrated in-memory SQLite database private to t.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

// CreateUser inserts an active user with password "secret123".
func CreateUser(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Name:         strings.Split(email, "@")[0],
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Status:       models.UserActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateCompany inserts a company.
func CreateCompany(t *testing.T, db *gorm.DB, name string) *models.Company {
	t.Helper()
	company := &models.Company{Name: name, Sector: "Retail"}
	require.NoError(t, db.Create(company).Error)
	return company
}

// CreateProject inserts a project in the given status with one pending story
// per description.
func CreateProject(t *testing.T, db *gorm.DB, leader *models.User, company *models.Company, status models.ProjectStatus, stories ...string) *models.Project {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 6, 0)
	project := &models.Project{
		Name:            "Project " + string(status),
		Description:     "Demand forecasting with ML",
		AILevel:         models.AILevelMedium,
		StartDate:       start,
		EndDate:         end,
		CreatedOn:       time.Now(),
		EstimatedMonths: models.EstimateMonths(start, end),
		Status:          status,
		CompanyID:       company.ID,
		LeaderID:        leader.ID,
	}
	require.NoError(t, db.Create(project).Error)
	for _, desc := range stories {
		story := &models.UserStory{ProjectID: project.ID, Title: "User story", Description: desc, Status: models.StoryPending}
		require.NoError(t, db.Create(story).Error)
		project.Stories = append(project.Stories, *story)
	}
	return project
}
