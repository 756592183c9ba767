// Package cli implements the coachctl commands.
package cli

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/briangreenhill/coachengine/internal/conversation"
	"github.com/briangreenhill/coachengine/internal/domain"
	"github.com/briangreenhill/coachengine/internal/plan"
	"github.com/briangreenhill/coachengine/internal/workout"
)

// App holds the services the commands call.
type App struct {
	Contexts interface {
		GetContext(ctx context.Context, userID string, force bool) (domain.CompleteContext, error)
	}
	Readiness interface {
		Score(ctx context.Context, userID string, date time.Time, force bool) (domain.ReadinessScore, error)
		RecalculateHistorical(ctx context.Context, userID string, days int, end time.Time) ([]domain.ReadinessScore, error)
		Today() time.Time
	}
	Workouts interface {
		Generate(ctx context.Context, cc domain.CompleteContext, ov workout.Overrides) domain.GeneratedWorkout
	}
	Plans interface {
		BuildPlan(ctx context.Context, cc domain.CompleteContext, opts plan.Options) (plan.Result, error)
		Get(ctx context.Context, userID, planID string) (plan.Result, error)
		AdjustPlan(ctx context.Context, cc domain.CompleteContext, planID string, reason domain.AdjustmentReason) (plan.Result, error)
	}
	Chat interface {
		Process(ctx context.Context, userID string, in conversation.Input) (conversation.Reply, error)
	}
}

// NewRootCmd creates the top-level "coachctl" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "coachctl",
		Short:         "Inspect and drive the coaching engine for one user",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("user", "u", "", "user id")
	_ = root.MarkPersistentFlagRequired("user")

	root.AddCommand(
		newReadinessCmd(app),
		newBackfillCmd(app),
		newContextCmd(app),
		newWorkoutCmd(app),
		newPlanCmd(app),
		newChatCmd(app),
	)
	return root
}

func userFlag(cmd *cobra.Command) string {
	u, _ := cmd.Flags().GetString("user")
	return u
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
