package cli

import (
	"context"

	"github.com/dmitrijs2005/allergozyme/internal/client/facade"
	"github.com/dmitrijs2005/allergozyme/internal/client/models"
	"github.com/dmitrijs2005/allergozyme/internal/common"
	"github.com/spf13/cobra"
)

func (a *App) newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Accounts and the current session",
	}
	cmd.AddCommand(
		a.newUserCreateCommand(),
		a.newUserSignInCommand(),
		a.newUserSignOutCommand(),
		a.newUserWhoAmICommand(),
		a.newUserUpdateCommand(),
	)
	return cmd
}

type profileFlags struct {
	firstname    string
	lastname     string
	dob          string
	gender       string
	address      string
	zip          string
	city         string
	country      string
	phone        string
	allergies    []string
	building     string
	streetNumber string
	street       string
	addressExtra string
}

func (p *profileFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&p.firstname, "firstname", "", "First name")
	f.StringVar(&p.lastname, "lastname", "", "Last name")
	f.StringVar(&p.dob, "dob", "", "Date of birth")
	f.StringVar(&p.gender, "gender", "", "Gender")
	f.StringVar(&p.address, "address", "", "Postal address")
	f.StringVar(&p.zip, "zip", "", "Postal code")
	f.StringVar(&p.city, "city", "", "City")
	f.StringVar(&p.country, "country", "", "Country (default France)")
	f.StringVar(&p.phone, "phone", "", "Phone number")
	f.StringSliceVar(&p.allergies, "allergy", nil, "Allergy tag, repeatable")
	f.StringVar(&p.building, "building", "", "Building")
	f.StringVar(&p.streetNumber, "street-number", "", "Street number")
	f.StringVar(&p.street, "street", "", "Street")
	f.StringVar(&p.addressExtra, "address-extra", "", "Address complement")
}

func (p *profileFlags) profile() models.Profile {
	return models.Profile{
		Firstname:    p.firstname,
		Lastname:     p.lastname,
		DOB:          p.dob,
		Gender:       p.gender,
		Address:      p.address,
		Zip:          p.zip,
		City:         p.city,
		Country:      p.country,
		Phone:        p.phone,
		Allergies:    p.allergies,
		Building:     p.building,
		StreetNumber: p.streetNumber,
		Street:       p.street,
		AddressExtra: p.addressExtra,
	}
}

// patch holds only the flags given on the command line.
func (p *profileFlags) patch(cmd *cobra.Command) models.UserPatch {
	changed := cmd.Flags().Changed
	str := func(name string, v string) *string {
		if !changed(name) {
			return nil
		}
		return &v
	}
	out := models.UserPatch{
		Firstname:    str("firstname", p.firstname),
		Lastname:     str("lastname", p.lastname),
		DOB:          str("dob", p.dob),
		Gender:       str("gender", p.gender),
		Address:      str("address", p.address),
		Zip:          str("zip", p.zip),
		City:         str("city", p.city),
		Country:      str("country", p.country),
		Phone:        str("phone", p.phone),
		Building:     str("building", p.building),
		StreetNumber: str("street-number", p.streetNumber),
		Street:       str("street", p.street),
		AddressExtra: str("address-extra", p.addressExtra),
	}
	if changed("allergy") {
		tags := append([]string{}, p.allergies...)
		out.Allergies = &tags
	}
	return out
}

func (a *App) printUser(u *models.PublicUser) error {
	if a.asJSON {
		return a.printJSON(u)
	}
	a.printf("%s <%s> %s %s\n", u.ID, u.Email, u.Firstname, u.Lastname)
	return nil
}

func (a *App) newUserCreateCommand() *cobra.Command {
	var (
		email    string
		password string
		profile  profileFlags
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := a.readText(email, "Email")
			if err != nil {
				return err
			}
			password, err := a.readSecret(password, "Password")
			if err != nil {
				return err
			}
			return a.withFacade(cmd.Context(), func(ctx context.Context, f *facade.Facade) error {
				u, err := f.Auth().CreateUser(ctx, models.NewUser{Email: email, Password: password, Profile: profile.profile()})
				if err != nil {
					return err
				}
				return a.printUser(u)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when empty)")
	profile.bind(cmd)
	return cmd
}

func (a *App) newUserSignInCommand() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := a.readText(email, "Email")
			if err != nil {
				return err
			}
			password, err := a.readSecret(password, "Password")
			if err != nil {
				return err
			}
			return a.withFacade(cmd.Context(), func(ctx context.Context, f *facade.Facade) error {
				u, err := f.Auth().SignIn(ctx, email, password)
				if err != nil {
					return err
				}
				return a.printUser(u)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when empty)")
	return cmd
}

func (a *App) newUserSignOutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withFacade(cmd.Context(), func(ctx context.Context, f *facade.Facade) error {
				return f.Auth().SignOut(ctx)
			})
		},
	}
}

func (a *App) newUserWhoAmICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withFacade(cmd.Context(), func(ctx context.Context, f *facade.Facade) error {
				if !f.Auth().RequireAuth(ctx, "") {
					return common.Auth("not signed in")
				}
				u, err := f.Auth().CurrentUser(ctx)
				if err != nil {
					return err
				}
				if u == nil {
					return common.Auth("not signed in")
				}
				return a.printUser(u)
			})
		},
	}
}

func (a *App) newUserUpdateCommand() *cobra.Command {
	var profile profileFlags
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields of the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := profile.patch(cmd)
			return a.withFacade(cmd.Context(), func(ctx context.Context, f *facade.Facade) error {
				u, err := f.Auth().UpdateUser(ctx, patch)
				if err != nil {
					return err
				}
				return a.printUser(u)
			})
		},
	}
	profile.bind(cmd)
	return cmd
}
