package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/brewhaus/app/repositories"
	"github.com/shashiranjanraj/brewhaus/config"
	"github.com/shashiranjanraj/brewhaus/database/seeders"
	"github.com/shashiranjanraj/brewhaus/pkg/database"
)

// bootDB loads config and opens the mongo connection.
func bootDB(ctx context.Context) (*database.Mongo, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return database.Connect(dialCtx, cfg.MongoURI, cfg.MongoDB)
}

// brewhaus seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all registered database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := bootDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close(ctx)

		fmt.Println("Seeding database…")
		return seeders.RunAll(ctx, db.DB)
	},
}

// brewhaus indexes
var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the unique and secondary indexes the stores rely on",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := bootDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close(ctx)

		for name, ensure := range map[string]func(context.Context) error{
			"allUsers": repositories.NewUserRepository(db.DB).EnsureIndexes,
			"orders":   repositories.NewOrderRepository(db.DB).EnsureIndexes,
			"payments": repositories.NewPaymentRepository(db.DB).EnsureIndexes,
		} {
			fmt.Printf("  • Ensuring indexes: %s … ", name)
			if err := ensure(ctx); err != nil {
				fmt.Println("failed")
				return err
			}
			fmt.Println("done")
		}
		return nil
	},
}
