package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"nexus/config"
	"nexus/models"
	"nexus/utils"
)

var newUser struct {
	name     string
	email    string
	password string
	role     string
}

// createUserCmd bootstraps accounts, typically the first manager
var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a leader or manager account",
	Example: `  nexus create-user --name "Ana Torres" --email ana@example.com --password s3cretpass --role manager`,
	RunE: runCreateUser,
}

func init() {
	f := createUserCmd.Flags()
	f.StringVar(&newUser.name, "name", "", "full name")
	f.StringVar(&newUser.email, "email", "", "login email")
	f.StringVar(&newUser.password, "password", "", "initial password")
	f.StringVar(&newUser.role, "role", string(models.RoleManager), "leader or manager")
	_ = createUserCmd.MarkFlagRequired("name")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")
}

func runCreateUser(cmd *cobra.Command, args []string) error {
	log := logger.WithField("component", "create-user")

	role, err := models.ParseRole(newUser.role)
	if err != nil {
		return err
	}
	email := utils.NormalizeEmail(newUser.email)
	if err := utils.ValidateEmail(email, false); err != nil {
		return err
	}
	if len(newUser.password) < utils.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", utils.MinPasswordLength)
	}

	db, err := config.ConnectDB(cfg, log)
	if err != nil {
		return err
	}

	var existing models.User
	err = db.Unscoped().Where("email = ?", email).First(&existing).Error
	if err == nil {
		return fmt.Errorf("a user with email %s already exists", email)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := utils.HashPassword(newUser.password)
	if err != nil {
		return err
	}
	user := models.User{
		Name:         newUser.name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       models.UserActive,
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User created")
	return nil
}
