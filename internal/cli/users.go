package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/estate/internal/identity"
)

func newUsersCmd() *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage the user directory (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersList(cmd.Context(), search)
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "filter by name or email")

	var admin bool
	var phone string
	add := &cobra.Command{
		Use:   "add <email> [name]",
		Short: "Add a user",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 2 {
				name = args[1]
			}
			p := identity.Profile{Email: args[0], Name: name, Phone: phone, Role: identity.RoleUser}
			if admin {
				p.Role = identity.RoleAdmin
			}
			return runUsersAdd(cmd.Context(), p)
		},
	}
	add.Flags().BoolVar(&admin, "admin", false, "grant the admin role")
	add.Flags().StringVar(&phone, "phone", "", "contact phone number")

	cmd.AddCommand(
		add,
		&cobra.Command{
			Use:   "ban <user-id>",
			Short: "Ban a user",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runUsersSetStatus(cmd.Context(), args[0], identity.StatusBanned)
			},
		},
		&cobra.Command{
			Use:   "activate <user-id>",
			Short: "Reactivate a banned user",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runUsersSetStatus(cmd.Context(), args[0], identity.StatusActive)
			},
		},
		&cobra.Command{
			Use:   "promote <user-id>",
			Short: "Grant a user the admin role",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runUsersSetRole(cmd.Context(), args[0], identity.RoleAdmin)
			},
		},
		&cobra.Command{
			Use:   "demote <user-id>",
			Short: "Revoke a user's admin role",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runUsersSetRole(cmd.Context(), args[0], identity.RoleUser)
			},
		},
		&cobra.Command{
			Use:   "remove <user-id>",
			Short: "Remove a user",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runUsersRemove(cmd.Context(), args[0])
			},
		},
	)

	return cmd
}

// adminApp opens the app and requires the acting user to be an admin.
func adminApp(ctx context.Context) (*app, identity.Principal, error) {
	a, err := openApp()
	if err != nil {
		return nil, identity.Principal{}, err
	}
	actor, err := a.actor(ctx)
	if err == nil {
		err = actor.RequireAdmin()
	}
	if err != nil {
		a.close()
		return nil, identity.Principal{}, err
	}
	return a, actor, nil
}

func parseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID %q: must be a number", s)
	}
	return id, nil
}

func runUsersList(ctx context.Context, search string) error {
	a, _, err := adminApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	users, err := a.users.List(ctx, search)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(users)
	}
	return printUsers(users)
}

func runUsersAdd(ctx context.Context, p identity.Profile) error {
	a, _, err := adminApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	u, err := a.users.Add(ctx, p)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(u)
	}
	fmt.Printf("Added user #%d %s (%s)\n", u.ID, u.Email, u.Role)
	return nil
}

func runUsersSetStatus(ctx context.Context, rawID string, status identity.Status) error {
	id, err := parseUserID(rawID)
	if err != nil {
		return err
	}

	a, actor, err := adminApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if id == actor.ID && status == identity.StatusBanned {
		return fmt.Errorf("admins cannot ban themselves")
	}

	u, err := a.users.SetStatus(ctx, id, status)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(u)
	}
	fmt.Printf("User #%d %s is now %s\n", u.ID, u.Email, u.Status)
	return nil
}

func runUsersSetRole(ctx context.Context, rawID string, role identity.Role) error {
	id, err := parseUserID(rawID)
	if err != nil {
		return err
	}

	a, actor, err := adminApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if id == actor.ID && role != identity.RoleAdmin {
		return fmt.Errorf("admins cannot demote themselves")
	}

	u, err := a.users.SetRole(ctx, id, role)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(u)
	}
	fmt.Printf("User #%d %s is now %s\n", u.ID, u.Email, u.Role)
	return nil
}

func runUsersRemove(ctx context.Context, rawID string) error {
	id, err := parseUserID(rawID)
	if err != nil {
		return err
	}

	a, actor, err := adminApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if id == actor.ID {
		return fmt.Errorf("admins cannot remove themselves")
	}

	if err := a.users.Delete(ctx, id); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]interface{}{"id": id, "removed": true})
	}
	fmt.Printf("Removed user #%d\n", id)
	return nil
}
