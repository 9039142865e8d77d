package main

import (
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BlackBlossom/kmj-billing-system-sub001/models"
	"github.com/BlackBlossom/kmj-billing-system-sub001/pkg/billing"
)

var db *gorm.DB

// billingSvc is the wired billing service used by the HTTP handlers.
var billingSvc *billing.Service

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true). Any permission errors will be logged and ignored.
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if shouldMigrate {
		// Migrate models individually so a failure on one doesn't block others.
		// Roles first so the users FK can be applied safely.
		if err := db.AutoMigrate(&models.Role{}); err != nil {
			log.Printf("migration warning (roles): %v", err)
		}
		if err := db.AutoMigrate(&models.User{}); err != nil {
			log.Printf("migration warning (users): %v", err)
		}
		if err := db.AutoMigrate(&models.RefreshToken{}); err != nil {
			log.Printf("migration warning (refresh_tokens): %v", err)
		}
		if err := db.AutoMigrate(&models.Counter{}); err != nil {
			log.Printf("migration warning (counters): %v", err)
		}
		if err := db.AutoMigrate(&models.BillRecord{}); err != nil {
			log.Printf("migration warning (bill_records): %v", err)
		}
	}
	seedDB()

	store := billing.NewGormStore(db)
	billingSvc = billing.NewService(store, store)
}

func seedDB() {
	// Ensure master roles exist
	roles := []models.Role{{Name: "administrator", Description: "full access"}, {Name: "user", Description: "regular user"}}
	for _, r := range roles {
		var cnt int64
		db.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			db.Create(&r)
		}
	}

	// Check if admin user exists
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		// find administrator role id
		var role models.Role
		if err := db.Where("name = ?", "administrator").First(&role).Error; err != nil {
			log.Printf("failed to find administrator role: %v", err)
		}
		// Seed admin user
		rid := role.ID
		admin := models.User{
			Username: "admin",
			RoleID:   &rid,
		}
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		admin.HashedPassword = hashedPassword
		db.Create(&admin)
		log.Println("Seeded admin user: username=admin, password=admin123")
	}

	// Ensure the receipts counter row exists so the first reservation starts
	// from a known document. The upsert in the store would create it anyway;
	// seeding keeps migrations inspectable.
	var counter models.Counter
	if err := db.Where("name = ?", billing.ReceiptCounter).First(&counter).Error; err != nil {
		counter = models.Counter{Name: billing.ReceiptCounter, Count: 0, LastUpdated: time.Now()}
		if err := db.Where("name = ?", counter.Name).FirstOrCreate(&counter).Error; err != nil {
			log.Printf("failed to seed receipts counter: %v", err)
		}
	}
}
