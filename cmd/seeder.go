package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample users for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{"mission_assignees", "mission_attachments", "missions", "users"} {
				if err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password123"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		seedUsers := []struct {
			Username  string
			Email     string
			FirstName string
			LastName  string
			Role      string
			IsStaff   bool
		}{
			{"boss", "boss@gmail.com", "Bora", "Chief", "CEO", true},
			{"manager", "manager@gmail.com", "Mina", "Lead", "MANAGER", false},
			{"alice", "alice@gmail.com", "Alice", "Worker", "EMPLOYEE", false},
			{"bob", "bob@gmail.com", "Bob", "Worker", "EMPLOYEE", false},
		}

		for _, u := range seedUsers {
			var exists int
			row := db.Raw("SELECT 1 FROM users WHERE username = ?", u.Username).Row()
			if err := row.Scan(&exists); err == nil {
				fmt.Printf("user %s already exists, skipping\n", u.Username)
				continue
			}

			err := db.Exec(
				`INSERT INTO users (username, email, password_hash, first_name, last_name, role, is_active, is_staff,
					email_notifications, task_reminders, deadline_alerts, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, true, ?, true, true, true, now(), now())`,
				u.Username, u.Email, string(hash), u.FirstName, u.LastName, u.Role, u.IsStaff,
			).Error
			if err != nil {
				log.Fatalf("failed to insert user %s: %v", u.Username, err)
			}
			fmt.Printf("Seeded user: %s (%s)\n", u.Username, u.Role)
		}

		fmt.Println("Seed data loaded, default password is", password)
	},
}
