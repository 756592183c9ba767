package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/briangreenhill/coachengine/internal/domain"
	"github.com/briangreenhill/coachengine/internal/jobs"
	"github.com/briangreenhill/coachengine/internal/plan"
	"github.com/briangreenhill/coachengine/internal/workout"
)

func newReadinessCmd(app *App) *cobra.Command {
	var (
		date  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "readiness",
		Short: "Score readiness for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := app.Readiness.Today()
			if date != "" {
				var err error
				if d, err = time.Parse(domain.DateLayout, date); err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
			}
			sc, err := app.Readiness.Score(cmd.Context(), userFlag(cmd), d, force)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sc)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to score (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&force, "force", false, "recompute even if a score is stored")
	return cmd
}

func newBackfillCmd(app *App) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Recalculate readiness for the last N days",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 || days > jobs.MaxBackfillDays {
				return fmt.Errorf("--days must be between 1 and %d", jobs.MaxBackfillDays)
			}
			scores, err := app.Readiness.RecalculateHistorical(cmd.Context(), userFlag(cmd), days, app.Readiness.Today())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, sc := range scores {
				fmt.Fprintf(out, "%s  %3d  %s\n", sc.Date, sc.Overall, sc.Recommendation)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "number of days ending today")
	return cmd
}

func newContextCmd(app *App) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Print the aggregated user context",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := app.Contexts.GetContext(cmd.Context(), userFlag(cmd), refresh)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), cc)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache")
	return cmd
}

func newWorkoutCmd(app *App) *cobra.Command {
	var ov workout.Overrides
	var goal, difficulty, kind string
	cmd := &cobra.Command{
		Use:   "workout",
		Short: "Generate a workout for today",
		RunE: func(cmd *cobra.Command, args []string) error {
			ov.Goal = domain.GoalType(goal)
			ov.Difficulty = domain.Difficulty(difficulty)
			ov.WorkoutType = domain.WorkoutType(kind)
			cc, err := app.Contexts.GetContext(cmd.Context(), userFlag(cmd), false)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), app.Workouts.Generate(cmd.Context(), cc, ov))
		},
	}
	cmd.Flags().IntVar(&ov.DurationMinutes, "minutes", 0, "session length")
	cmd.Flags().StringSliceVar(&ov.Equipment, "equipment", nil, "available equipment")
	cmd.Flags().StringSliceVar(&ov.MuscleGroups, "muscles", nil, "muscle groups to target")
	cmd.Flags().StringVar(&goal, "goal", "", "goal override")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "difficulty label")
	cmd.Flags().StringVar(&kind, "type", "", "workout type")
	return cmd
}

func newPlanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Build, show and adjust training plans",
	}
	cmd.AddCommand(newPlanBuildCmd(app), newPlanShowCmd(app), newPlanAdjustCmd(app))
	return cmd
}

func newPlanBuildCmd(app *App) *cobra.Command {
	var (
		opts  plan.Options
		start string
		goal  string
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build and store a new plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			if start != "" {
				d, err := time.Parse(domain.DateLayout, start)
				if err != nil {
					return fmt.Errorf("--start must be YYYY-MM-DD: %w", err)
				}
				opts.StartDate = &d
			}
			opts.Goal = domain.GoalType(goal)
			cc, err := app.Contexts.GetContext(cmd.Context(), userFlag(cmd), false)
			if err != nil {
				return err
			}
			res, err := app.Plans.BuildPlan(cmd.Context(), cc, opts)
			if err != nil {
				return err
			}
			printResult(cmd, res)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Weeks, "weeks", 0, "plan length in weeks")
	cmd.Flags().StringVar(&start, "start", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&goal, "goal", "", "goal override")
	cmd.Flags().IntVar(&opts.WorkoutsPerWeek, "per-week", 0, "sessions per week")
	return cmd
}

func newPlanShowCmd(app *App) *cobra.Command {
	var planID string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a stored plan as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Plans.Get(cmd.Context(), userFlag(cmd), planID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "plan id")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

func newPlanAdjustCmd(app *App) *cobra.Command {
	var planID, reason string
	cmd := &cobra.Command{
		Use:   "adjust",
		Short: "Adjust a plan (low_adherence, too_easy, goal_change, injury, plateau)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := app.Contexts.GetContext(cmd.Context(), userFlag(cmd), false)
			if err != nil {
				return err
			}
			res, err := app.Plans.AdjustPlan(cmd.Context(), cc, planID, domain.AdjustmentReason(reason))
			if err != nil {
				return err
			}
			printResult(cmd, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "plan id")
	cmd.Flags().StringVar(&reason, "reason", "", "adjustment reason")
	_ = cmd.MarkFlagRequired("plan")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func printResult(cmd *cobra.Command, res plan.Result) {
	out := cmd.OutOrStdout()
	p := res.Plan
	fmt.Fprintf(out, "%s (%s, revision %d)\n", p.Name, p.ID, p.Revision)
	fmt.Fprintf(out, "  %s to %s, %d x %d min per week, %s\n",
		p.StartDate.Format(domain.DateLayout), p.EndDate.Format(domain.DateLayout), p.WorkoutsPerWeek, p.SessionMinutes, p.Difficulty)
	for _, ph := range p.Phases {
		fmt.Fprintf(out, "  - %-16s %2d weeks  %s\n", ph.Name, ph.Weeks, ph.Intensity)
	}
	fmt.Fprintf(out, "  %d sessions scheduled", len(res.Schedule))
	if res.Unsaved > 0 {
		fmt.Fprintf(out, ", %d not saved", res.Unsaved)
	}
	fmt.Fprintln(out)
}
