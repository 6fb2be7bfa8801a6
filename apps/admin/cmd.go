package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/copo/core/attainment"
	"github.com/trezcool/copo/core/user"
	"github.com/trezcool/copo/storage/docstore"
)

var (
	readPasswordFunc = term.ReadPassword      // mockable
	gooseRunFunc     = docstore.RunMigrations // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	store  docstore.Store
	usrSvc *user.Service
	attSvc *attainment.Service
	out    io.Writer
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "CO-PO Tracker administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)

	addUserCmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create an admin or promote an existing user to admin; the password is prompted",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			if email == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.promptPassword(cmd)
			if err != nil {
				return err
			}
			return cli.addUser(cmd.Context(), name, email, pwd)
		},
	}
	addUserCmd.Flags().String("name", "", "The admin's name")
	addUserCmd.Flags().String("email", "", "The admin's email. The password will be prompted next.")

	resetPasswordCmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Reset a user's password; the password is prompted",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			if email == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.promptPassword(cmd)
			if err != nil {
				return err
			}
			return cli.resetPassword(cmd.Context(), email, pwd)
		},
	}
	resetPasswordCmd.Flags().String("email", "", "The user's email. The password will be prompted next.")

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Print a student's CO attainment",
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID, _ := cmd.Flags().GetString("student")
			if studentID == "" {
				_ = cmd.Usage()
				return errHelp
			}
			return cli.report(cmd.Context(), studentID)
		},
	}
	reportCmd.Flags().String("student", "", "The student's id")

	migrateCmd := &cobra.Command{
		Use:                "migrate COMMAND [ARGS...]",
		Short:              "Run a goose migration command (up, down, status, ...) against the SQL store",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return errHelp
			}
			return cli.migrate(cmd.Context(), args)
		},
	}

	root.AddCommand(addUserCmd, resetPasswordCmd, reportCmd, migrateCmd)
	return root
}

// run executes the command line; args include the program name.
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	if len(args) > 0 {
		args = args[1:]
	}
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func (cli *commandLine) promptPassword(cmd *cobra.Command) (string, error) {
	_, _ = fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		_ = cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}
