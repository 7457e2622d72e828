package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/thrivesend/thrivesend-backend/internal/config"
	"github.com/thrivesend/thrivesend-backend/internal/migration"
	"github.com/thrivesend/thrivesend-backend/pkg/jwt"
	pkglogger "github.com/thrivesend/thrivesend-backend/pkg/logger"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	configPath := flag.String("config", config.ConfigPath(os.Getenv("APP_ENV")), "config file path")
	seed := flag.Bool("seed", false, "insert development users and a pending approval (only into an empty database)")
	tokens := flag.Bool("tokens", false, "print bearer tokens for the seeded development users and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of printed tokens")
	verbose := flag.Bool("verbose", false, "verbose SQL logging")
	flag.Parse()

	if _, err := config.LoadDotEnv(os.Getenv("APP_ENV")); err != nil {
		log.Fatalf("Failed to load .env file: %v", err)
	}
	pkglogger.InitStructured(os.Getenv("APP_ENV"))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *tokens {
		printTokens(cfg, *tokenTTL)
		return
	}

	logLevel := gormlogger.Warn
	if *verbose {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.GetDSN()), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying DB: %v", err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			pkglogger.Error("Failed to close database: %v", err)
		}
	}()

	if err := migration.Run(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	pkglogger.Info("Schema migrated (%d tables)", len(migration.Models()))

	if *seed {
		if err := migration.Seed(db); err != nil {
			log.Fatalf("Seed failed: %v", err)
		}
		pkglogger.Info("Seed complete (%d users)", len(migration.SeedUsers))
	}
}

// printTokens 개발용 사용자 토큰 출력 (실서비스 토큰은 외부 인증 공급자가 발급)
func printTokens(cfg *config.Config, ttl time.Duration) {
	pkglogger.Warn("Printing development tokens (ttl %s)", ttl)
	manager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer)
	for _, u := range migration.SeedUsers {
		token, err := manager.GenerateToken(u.ExternalID, u.Email, u.OrganizationID, ttl)
		if err != nil {
			log.Fatalf("Failed to sign token for %s: %v", u.ExternalID, err)
		}
		fmt.Printf("%s\t%s\n", u.ExternalID, token)
	}
}
