package main

import (
	"fmt"

	"stock-backend/internal/auth"
	"stock-backend/internal/config"
	"stock-backend/internal/database"
	"stock-backend/internal/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// boot loads the configuration and installs the default logger.
func boot() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: cfg.LogDevelopment})
	if err != nil {
		return nil, nil, err
	}
	logger.SetDefault(log)
	return cfg, log, nil
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Init(cfg)
}

// stockctl migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := boot()
		if err != nil {
			return err
		}
		if _, err := openDB(cfg); err != nil {
			return err
		}
		fmt.Println("Migrations applied.")
		return nil
	},
}

var adminName, adminEmail, adminPassword string

// stockctl create-admin --email a@b.c --password ...
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := boot()
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		svc := auth.NewService(db, cfg.JWTSecret, cfg.JWTTTL)
		user, err := svc.RegisterAdmin(cmd.Context(), adminName, adminEmail, adminPassword, true)
		if err != nil {
			return err
		}
		fmt.Printf("Administrateur créé: #%d %s\n", user.ID, user.Email)
		return nil
	},
}

// stockctl seed-demo
var seedDemoCmd = &cobra.Command{
	Use:   "seed-demo",
	Short: "Insert demo sociétés, articles, lots, stocks and a seller",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := boot()
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		res, err := seedDemo(cmd.Context(), db)
		if err != nil {
			return err
		}
		fmt.Printf("Démo: %d sociétés, %d articles, %d lots, %d stocks, vendeur %s\n",
			res.Societes, res.Articles, res.Lots, res.Stocks, res.SellerEmail)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminName, "name", "Administrateur", "display name")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "login email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "password (min 6 characters)")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}
