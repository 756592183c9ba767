package cli

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/briangreenhill/coachengine/internal/conversation"
)

func newChatCmd(app *App) *cobra.Command {
	var persona string
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the coach; without a message, reads lines from stdin",
		Long: `Sends one message, or starts an interactive session when no message is
given. In a session, typing the number of a quick reply selects it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := userFlag(cmd)
			send := func(in conversation.Input) (conversation.Reply, error) {
				in.Persona = persona
				r, err := app.Chat.Process(cmd.Context(), userID, in)
				if err != nil {
					return r, err
				}
				printReply(cmd, r)
				return r, nil
			}

			if len(args) > 0 {
				_, err := send(conversation.Input{Message: strings.Join(args, " ")})
				return err
			}

			var last []conversation.QuickReply
			sc := bufio.NewScanner(cmd.InOrStdin())
			fmt.Fprint(cmd.OutOrStdout(), "> ")
			for sc.Scan() {
				line := strings.TrimSpace(sc.Text())
				if line != "" {
					r, err := send(inputFor(line, last))
					if err != nil {
						fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
					} else {
						last = r.QuickReplies
					}
				}
				fmt.Fprint(cmd.OutOrStdout(), "> ")
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return sc.Err()
		},
	}
	cmd.Flags().StringVar(&persona, "persona", "", "persona override (calm, motivational, gentle, concise)")
	return cmd
}

// inputFor turns a typed line into a quick reply when it is the number of
// one on offer.
func inputFor(line string, offered []conversation.QuickReply) conversation.Input {
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(offered) {
		q := offered[n-1]
		return conversation.Input{Action: q.Action, Payload: q.Payload}
	}
	return conversation.Input{Message: line}
}

func printReply(cmd *cobra.Command, r conversation.Reply) {
	out := cmd.OutOrStdout()
	for _, m := range r.Messages {
		fmt.Fprintf(out, "coach: %s\n", m.Text)
	}
	for i, q := range r.QuickReplies {
		fmt.Fprintf(out, "  [%d] %s\n", i+1, q.Label)
	}
	if r.Plan != nil {
		fmt.Fprintf(out, "  plan: %s (%s)\n", r.Plan.Name, r.Plan.ID)
	}
	fmt.Fprintf(out, "  (%s)\n", r.State)
}
