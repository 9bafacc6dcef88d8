package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/blackswan/backend/pkg/database"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database maintenance",
	Long: `Checks the PostgreSQL connection and applies the schema.

Example:
  go run ./cmd/blackswan db check
  go run ./cmd/blackswan db migrate`,
}

var (
	dbCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "Ping the database and print pool statistics",
		RunE:  runDBCheck,
	}

	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes if they do not exist",
		RunE:  runDBMigrate,
	}
)

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbCheckCmd)
	dbCmd.AddCommand(dbMigrateCmd)
}

func runDBCheck(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Database Connection Check ===")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Printf("✅ Config loaded (ENV: %s)\n", a.cfg.Env)
	fmt.Printf("   Database URL: %s\n\n", maskPassword(a.cfg.Database.URL))

	db, err := database.New(a.cfg)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("❌ Health check failed: %w", err)
	}

	fmt.Println("✅ Health Check Results:")
	fmt.Printf("   Healthy: %v\n", status.Healthy)
	fmt.Printf("   Response Time: %v\n\n", status.ResponseTime)

	fmt.Println("📊 Connection Pool Statistics:")
	fmt.Printf("   Max Connections: %d\n", status.Stats.MaxConns)
	fmt.Printf("   Total Connections: %d\n", status.Stats.TotalConns)
	fmt.Printf("   Acquired Connections: %d\n", status.Stats.AcquiredConns)
	fmt.Printf("   Idle Connections: %d\n", status.Stats.IdleConns)
	fmt.Printf("   Acquire Count: %d\n", status.Stats.AcquireCount)

	if err := a.redis.Ping(ctx); err != nil {
		PrintWarning(fmt.Sprintf("Redis ping failed: %v", err))
	} else if a.redis.Enabled() {
		PrintSuccess("Redis ping successful")
	}
	return nil
}

func runDBMigrate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.connectDB(cmd.Context()); err != nil {
		return err
	}
	PrintSuccess("Schema is up to date")
	return nil
}

// maskPassword hides the password in a database URL for display
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
