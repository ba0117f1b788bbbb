package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/estate/internal/identity"
)

func newUseCmd() *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "use [email]",
		Short: "Set the user and server the CLI acts through",
		Long: `Store the email the CLI acts as, and optionally the --server to use, in
~/.config/estate/config.yaml. Authentication happens outside this tool;
the role comes from the user directory.

Examples:
  estate use admin@example.com
  estate use ada@example.com --server http://localhost:8080
  estate use --clear`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUse(args, clear, flagServer, cmd.Flags().Changed("server"))
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "act anonymously against the local database")

	return cmd
}

func runUse(args []string, clear bool, server string, serverSet bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	switch {
	case clear:
		cfg = CLIConfig{}
	case len(args) == 1 || serverSet:
		if len(args) == 1 {
			email := identity.NormalizeEmail(args[0])
			if email == "" {
				return fmt.Errorf("email is required")
			}
			cfg.ActingEmail = email
		}
		if serverSet {
			cfg.ServerURL = server
		}
	default:
		printUse(cfg)
		return nil
	}

	if err := saveConfig(cfg); err != nil {
		return err
	}
	printUse(cfg)
	return nil
}

func printUse(cfg CLIConfig) {
	if cfg.ActingEmail == "" {
		fmt.Println("Acting anonymously.")
	} else {
		fmt.Printf("Acting as %s\n", cfg.ActingEmail)
	}
	if cfg.ServerURL != "" {
		fmt.Printf("Server:    %s\n", cfg.ServerURL)
	}
}
