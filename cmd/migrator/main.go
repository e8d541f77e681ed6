package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/antonio-alexander/go-blog-hateoas/internal"
	"github.com/antonio-alexander/go-blog-hateoas/internal/sql"
	"github.com/antonio-alexander/go-blog-hateoas/internal/utilities"

	"github.com/pkg/errors"
)

func main() {
	pwd, _ := os.Getwd()
	args := os.Args[1:]
	envs := internal.EnvsFromOs()
	if err := Main(pwd, args, envs); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// Main applies the migrations for DATABASE_TYPE; the directory is the first
// argument, DATABASE_MIGRATIONS_DIR or migrations/<type> under pwd
func Main(pwd string, args []string, envs map[string]string) error {
	ctx := context.Background()

	if configFile := envs["CONFIG_FILE"]; configFile != "" {
		if err := internal.EnvsFromFile(configFile, envs); err != nil {
			return err
		}
	}
	logger := utilities.NewLogger()
	_ = logger.Configure(envs)
	databaseType := envs["DATABASE_TYPE"]
	if databaseType == "" {
		databaseType = "sqlite"
	}
	switch {
	case len(args) > 0:
		envs["DATABASE_MIGRATIONS_DIR"] = args[0]
	case envs["DATABASE_MIGRATIONS_DIR"] == "":
		envs["DATABASE_MIGRATIONS_DIR"] = filepath.Join(pwd, "migrations", databaseType)
	}
	if _, err := os.Stat(envs["DATABASE_MIGRATIONS_DIR"]); err != nil {
		return errors.Wrap(err, "unable to find migrations")
	}

	//KIM: opening the store with a migrations directory is what applies them
	var store interface {
		internal.Configurer
		internal.Opener
	}
	switch databaseType {
	default:
		return errors.Errorf("unsupported database type: %s", databaseType)
	case "sqlite":
		store = sql.NewSqlite(logger)
	case "mysql":
		store = sql.NewMySql(logger)
	case "postgres":
		store = sql.NewPostgres(logger)
	}
	if err := store.Configure(envs); err != nil {
		return err
	}
	if err := store.Open(ctx); err != nil {
		return err
	}
	logger.Info(ctx, "migrated %s database using %s", databaseType, envs["DATABASE_MIGRATIONS_DIR"])
	return store.Close(ctx)
}
