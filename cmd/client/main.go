package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/antonio-alexander/go-blog-hateoas/internal"
	"github.com/antonio-alexander/go-blog-hateoas/internal/cache"
	"github.com/antonio-alexander/go-blog-hateoas/internal/client"
	"github.com/antonio-alexander/go-blog-hateoas/internal/data"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	Version   string
	GitCommit string
	GitBranch string
)

func init() {
	if Version = data.Version; Version == "" {
		Version = "<no_version_provided>"
	}
	if GitCommit = data.GitCommit; GitCommit == "" {
		GitCommit = "<no_git_commit>"
	}
	if GitBranch = data.GitBranch; GitBranch == "" {
		GitBranch = "<no_git_branch>"
	}
}

func main() {
	args := os.Args[1:]
	envs := internal.EnvsFromOs()
	if err := Main(args, envs, os.Stdout); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func printJson(w io.Writer, item any) error {
	bytes, err := json.MarshalIndent(item, "", " ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(bytes))
	return err
}

func idFromArgs(args []string) (int64, error) {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, errors.Errorf("invalid id %q: not an integer", args[0])
	}
	return id, nil
}

func employeeFlags(command *cobra.Command, employee *data.Employee) {
	command.Flags().StringVar(&employee.Name, "name", "", "employee name")
	command.Flags().StringVar(&employee.Surname, "surname", "", "employee surname")
	command.Flags().StringVar(&employee.Role, "role", "", "employee role")
	command.Flags().StringVar(&employee.PhoneCode, "phone-code", "", "numeric phone code")
	command.Flags().StringVar(&employee.PhoneNumber, "phone-number", "", "phone number")
}

func newRootCommand(ctx context.Context, c client.Client) *cobra.Command {
	var employee data.Employee
	var sort data.Sort
	var direction string

	pagination := data.Pagination{Size: data.DefaultPageSize, Page: data.DefaultPage}
	employeeQuery := data.NewEmployeeQuery()
	root := &cobra.Command{
		Use:           "client",
		Short:         "go-blog-hateoas client",
		Version:       fmt.Sprintf("%s (%s) built from: %s", Version, GitCommit, GitBranch),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	readCmd := &cobra.Command{
		Use:   "read <id>",
		Short: "Read an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idFromArgs(args)
			if err != nil {
				return err
			}
			employee, err := c.EmployeeRead(ctx, id)
			if err != nil {
				return err
			}
			return printJson(cmd.OutOrStdout(), employee)
		},
	}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all employees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			employees, err := c.EmployeesRead(ctx)
			if err != nil {
				return err
			}
			return printJson(cmd.OutOrStdout(), employees)
		},
	}
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an employee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := c.EmployeeCreate(ctx, employee)
			if err != nil {
				return err
			}
			return printJson(cmd.OutOrStdout(), created)
		},
	}
	employeeFlags(createCmd, &employee)
	replaceCmd := &cobra.Command{
		Use:   "replace <id>",
		Short: "Replace (or create) the employee with the given id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idFromArgs(args)
			if err != nil {
				return err
			}
			replaced, err := c.EmployeeReplace(ctx, id, employee)
			if err != nil {
				return err
			}
			return printJson(cmd.OutOrStdout(), replaced)
		},
	}
	employeeFlags(replaceCmd, &employee)
	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idFromArgs(args)
			if err != nil {
				return err
			}
			if err := c.EmployeeDelete(ctx, id); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Employee with ID %d deleted successfully\n", id)
			return err
		},
	}
	searchCmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search employees by name, surname, phone code or phone number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			employees, err := c.EmployeesSearch(ctx, args[0])
			if err != nil {
				return err
			}
			return printJson(cmd.OutOrStdout(), employees)
		},
	}
	sortCmd := &cobra.Command{
		Use:   "sort",
		Short: "List employees sorted by a field",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sort.Direction = data.ParseSortDirection(direction)
			employees, err := c.EmployeesSort(ctx, sort)
			if err != nil {
				return err
			}
			return printJson(cmd.OutOrStdout(), employees)
		},
	}
	sortCmd.Flags().StringVar(&sort.Field, "field", "", "name, surname, phoneCode or phoneNumber")
	sortCmd.Flags().StringVar(&direction, "direction", string(data.SortAscending), "ASC or DESC")
	paginateCmd := &cobra.Command{
		Use:   "paginate",
		Short: "Read a page of employees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := c.EmployeesPaginate(ctx, pagination)
			if err != nil {
				return err
			}
			return printJson(cmd.OutOrStdout(), model)
		},
	}
	paginateCmd.Flags().IntVar(&pagination.Size, "size", data.DefaultPageSize, "page size")
	paginateCmd.Flags().IntVar(&pagination.Page, "page", data.DefaultPage, "page number (1-based)")
	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Search, sort and paginate employees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			employeeQuery.Direction = data.ParseSortDirection(direction)
			model, err := c.EmployeesQuery(ctx, employeeQuery)
			if err != nil {
				return err
			}
			return printJson(cmd.OutOrStdout(), model)
		},
	}
	queryCmd.Flags().StringVar(&employeeQuery.Search, "search", "", "text to search for")
	queryCmd.Flags().StringVar(&employeeQuery.Field, "field", "", "name, surname, phoneCode or phoneNumber")
	queryCmd.Flags().StringVar(&direction, "direction", string(data.SortAscending), "ASC or DESC")
	queryCmd.Flags().IntVar(&employeeQuery.Size, "size", data.DefaultPageSize, "page size")
	queryCmd.Flags().IntVar(&employeeQuery.Page, "page", data.DefaultPage, "page number (1-based)")
	cacheClearCmd := &cobra.Command{
		Use:   "cache-clear",
		Short: "Clear the service's cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.CacheClear(ctx)
		},
	}
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check the service's health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.Health(ctx); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return err
		},
	}
	root.AddCommand(readCmd, listCmd, createCmd, replaceCmd, deleteCmd, searchCmd,
		sortCmd, paginateCmd, queryCmd, cacheClearCmd, healthCmd)
	return root
}

func Main(args []string, envs map[string]string, stdout io.Writer) error {
	ctx := internal.CtxWithCorrelationId(context.Background(), internal.GenerateId())

	//merge the config file (if any), environment variables take precedence
	if configFile := envs["CONFIG_FILE"]; configFile != "" {
		if err := internal.EnvsFromFile(configFile, envs); err != nil {
			return err
		}
	}

	//create cache
	cache := cache.NewMemory()
	if err := cache.Configure(envs); err != nil {
		return err
	}
	if err := cache.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := cache.Close(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "error while closing cache: %s\n", err)
		}
	}()

	//create client
	client := client.NewClient(cache)
	if err := client.Configure(envs); err != nil {
		return err
	}
	if err := client.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := client.Close(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "error while closing client: %s\n", err)
		}
	}()

	// execute command
	root := newRootCommand(ctx, client)
	root.SetArgs(args)
	root.SetOut(stdout)
	return root.Execute()
}
