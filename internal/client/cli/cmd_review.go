package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/dmitrijs2005/allergozyme/internal/client/facade"
	"github.com/dmitrijs2005/allergozyme/internal/client/models"
	"github.com/dmitrijs2005/allergozyme/internal/common"
	"github.com/spf13/cobra"
)

func (a *App) newReviewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "review",
		Aliases: []string{"reviews"},
		Short:   "Restaurant reviews",
	}
	cmd.AddCommand(
		a.newReviewAddCommand(),
		a.newReviewListCommand(),
		a.newReviewUpdateCommand(),
		a.newReviewDeleteCommand(),
		a.newReviewColorCommand(),
	)
	return cmd
}

func (a *App) printReview(r *models.Review) error {
	if a.asJSON {
		return a.printJSON(r)
	}
	a.printf("%s %s (%s) %s\n", r.ID, r.Name, r.Category, strconv.FormatFloat(r.Note, 'f', -1, 64))
	return nil
}

// readComment reads the comment from stdin when it is "-".
func (a *App) readComment(comment string) (string, error) {
	if comment != "-" {
		return comment, nil
	}
	return GetMultiline(a.reader, "Comment", a.deps.Err)
}

func (a *App) newReviewAddCommand() *cobra.Command {
	var (
		in       models.NewReview
		lat, lng string
		geocode  bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a review as the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			comment, err := a.readComment(in.Comment)
			if err != nil {
				return err
			}
			in.Comment = comment
			if lat != "" {
				in.Lat = models.CoordinateOf(lat)
			}
			if lng != "" {
				in.Lng = models.CoordinateOf(lng)
			}
			return a.withFacade(cmd.Context(), func(ctx context.Context, f *facade.Facade) error {
				if geocode && lat == "" && lng == "" && in.Address != "" {
					c, err := f.Geocoder().Geocode(ctx, in.Address)
					if err != nil {
						return err
					}
					in.Lat = models.CoordinateOf(c.Lat)
					in.Lng = models.CoordinateOf(c.Lng)
				}
				r, err := f.Reviews().AddReview(ctx, in)
				if err != nil {
					return err
				}
				return a.printReview(r)
			})
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Restaurant name (derived from the address when empty)")
	cmd.Flags().StringVar(&in.Category, "category", "", "restaurant, snack, bakery or other")
	cmd.Flags().Float64Var(&in.Note, "note", 0, "Rating from 0 to 5")
	cmd.Flags().StringVar(&in.Address, "address", "", "Restaurant address")
	cmd.Flags().StringVar(&lat, "lat", "", "Latitude")
	cmd.Flags().StringVar(&lng, "lng", "", "Longitude")
	cmd.Flags().StringVar(&in.Comment, "comment", "", `Comment, "-" reads it from stdin`)
	cmd.Flags().BoolVar(&geocode, "geocode", false, "Resolve coordinates from the address")
	return cmd
}

func (a *App) newReviewListCommand() *cobra.Command {
	var (
		mine     bool
		userID   string
		category string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reviews, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withFacade(cmd.Context(), func(ctx context.Context, f *facade.Facade) error {
				filter := models.ReviewFilter{UserID: userID}
				if category != "" {
					filter.Category = models.NormalizeCategory(category)
				}
				if mine {
					u, err := f.Auth().CurrentUser(ctx)
					if err != nil {
						return err
					}
					if u == nil {
						return common.Auth("not signed in")
					}
					filter.UserID = u.ID
				}

				rs, err := f.Reviews().GetReviews(ctx, filter)
				if err != nil {
					return err
				}
				if a.asJSON {
					return a.printJSON(rs)
				}

				tw := tabwriter.NewWriter(a.deps.Out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNOTE\tCOLOR\tCATEGORY\tNAME\tAUTHOR")
				for _, r := range rs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						r.ID, strconv.FormatFloat(r.Note, 'f', -1, 64), models.ColorByNote(r.Note),
						r.Category, r.Name, r.UserFirstname)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&mine, "mine", false, "Only reviews of the signed-in user")
	cmd.Flags().StringVar(&userID, "user", "", "Only reviews of this user id")
	cmd.Flags().StringVar(&category, "category", "", "Only this category")
	return cmd
}

// reviewPatchFlags binds the editable review fields.
type reviewPatchFlags struct {
	name, category, address, comment string
	note, lat, lng                   float64
}

func (p *reviewPatchFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&p.name, "name", "", "Restaurant name")
	f.StringVar(&p.category, "category", "", "restaurant, snack, bakery or other")
	f.StringVar(&p.address, "address", "", "Restaurant address")
	f.StringVar(&p.comment, "comment", "", `Comment, "-" reads it from stdin`)
	f.Float64Var(&p.note, "note", 0, "Rating from 0 to 5")
	f.Float64Var(&p.lat, "lat", 0, "Latitude")
	f.Float64Var(&p.lng, "lng", 0, "Longitude")
}

func (a *App) reviewPatch(cmd *cobra.Command, p *reviewPatchFlags) (models.ReviewPatch, error) {
	changed := cmd.Flags().Changed
	var patch models.ReviewPatch
	if changed("name") {
		patch.Name = &p.name
	}
	if changed("category") {
		c := models.NormalizeCategory(p.category)
		patch.Category = &c
	}
	if changed("address") {
		patch.Address = &p.address
	}
	if changed("comment") {
		comment, err := a.readComment(p.comment)
		if err != nil {
			return patch, err
		}
		patch.Comment = &comment
	}
	if changed("note") {
		patch.Note = &p.note
	}
	if changed("lat") != changed("lng") {
		return patch, common.Validation("--lat and --lng go together")
	}
	if changed("lat") {
		patch.Lat = &p.lat
		patch.Lng = &p.lng
	}
	return patch, nil
}

// syncAfterEdit pushes edits queued in remote mode before the facade
// closes and stops the worker.
func (a *App) syncAfterEdit(ctx context.Context, f *facade.Facade) error {
	ob := f.Outbox()
	if ob == nil {
		return nil
	}
	res, err := ob.Drain(ctx)
	if err != nil {
		return err
	}
	if res.Failed > 0 {
		fmt.Fprintf(a.deps.Err, "warning: %d change(s) could not be synced\n", res.Failed)
	}
	return nil
}

func (a *App) newReviewUpdateCommand() *cobra.Command {
	var (
		p      reviewPatchFlags
		direct bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a review of the signed-in user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := a.reviewPatch(cmd, &p)
			if err != nil {
				return err
			}
			return a.withFacade(cmd.Context(), func(ctx context.Context, f *facade.Facade) error {
				if direct {
					ed := f.Editor()
					if ed == nil {
						return common.Validation("direct edits need the remote backend")
					}
					r, err := ed.UpdateReview(ctx, args[0], patch)
					if err != nil {
						return err
					}
					return a.printReview(r)
				}
				r, err := f.UpdateReview(ctx, args[0], patch)
				if err != nil {
					return err
				}
				if err := a.syncAfterEdit(ctx, f); err != nil {
					return err
				}
				return a.printReview(r)
			})
		},
	}
	p.bind(cmd)
	cmd.Flags().BoolVar(&direct, "direct", false, "Write to the hosted service instead of the local panel")
	return cmd
}

func (a *App) newReviewDeleteCommand() *cobra.Command {
	var direct bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a review of the signed-in user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withFacade(cmd.Context(), func(ctx context.Context, f *facade.Facade) error {
				if direct {
					ed := f.Editor()
					if ed == nil {
						return common.Validation("direct edits need the remote backend")
					}
					return ed.DeleteReview(ctx, args[0])
				}
				if err := f.DeleteReview(ctx, args[0]); err != nil {
					return err
				}
				return a.syncAfterEdit(ctx, f)
			})
		},
	}
	cmd.Flags().BoolVar(&direct, "direct", false, "Delete on the hosted service instead of the local panel")
	return cmd
}

func (a *App) newReviewColorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "color <note>",
		Short: "Show the marker color of a rating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			note, ok := models.ToFloat(args[0])
			if !ok {
				return common.Validation("note must be a number")
			}
			a.printf("%s\n", models.ColorByNote(note))
			return nil
		},
	}
}
