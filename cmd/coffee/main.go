package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	cl "coffeemarket/internal/cli"
	"coffeemarket/internal/config"
	"coffeemarket/internal/game"
	"coffeemarket/internal/syncq"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := newRootCmd(config.LoadCLIFromEnv()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(cfg config.CLIConfig) *cobra.Command {
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:           "coffee",
		Short:         "Coffee market competition & monopoly simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newPlayCmd(),
		newRemoteCmd(&apiBase),
	)
	return root
}

func newPlayCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a local game",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := game.NewSession()
			if plain || !term.IsTerminal(int(os.Stdout.Fd())) {
				return runPlain(sess)
			}
			return runTUI(sess)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "use line prompts instead of the full-screen UI")
	return cmd
}

func newRemoteCmd(apiBase *string) *cobra.Command {
	remote := &cobra.Command{
		Use:   "remote",
		Short: "Play against a coffee-api server",
	}
	remote.PersistentFlags().StringVar(apiBase, "api", *apiBase, "API base URL")

	remote.AddCommand(
		newRemoteNewCmd(apiBase),
		newRemoteStatusCmd(apiBase),
		newRemoteMarketCmd(apiBase),
		newRemoteSettingsCmd(apiBase),
		newRemoteRoundCmd(apiBase),
		newRemoteAcquireCmd(apiBase),
		newRemoteEndCmd(apiBase),
		newRemoteSyncCmd(apiBase),
	)
	return remote
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func currentSession() (cl.Session, error) {
	sess, err := cl.LoadSession()
	if err != nil {
		return cl.Session{}, fmt.Errorf("no remote game, run `coffee remote new`: %w", err)
	}
	return sess, nil
}

// remoteSession loads the attached game and a client for the server that owns
// it. An explicit --api overrides the saved base URL.
func remoteSession(cmd *cobra.Command, apiBase *string) (cl.Session, *cl.Client, error) {
	sess, err := currentSession()
	if err != nil {
		return cl.Session{}, nil, err
	}
	base := *apiBase
	if f := cmd.Flag("api"); (f == nil || !f.Changed) && strings.TrimSpace(sess.APIBaseURL) != "" {
		base = sess.APIBaseURL
	}
	return sess, newClient(&base), nil
}

func newRemoteNewCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Start a new remote game",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			created, err := newClient(apiBase).CreateSession(ctx)
			if err != nil {
				return err
			}
			if err := cl.SaveSession(cl.Session{ID: created.ID, APIBaseURL: *apiBase, CreatedAt: time.Now().UTC()}); err != nil {
				return err
			}
			printSuccess("New game started: " + created.ID)
			renderSnapshot(created.Snapshot)
			return nil
		},
	}
}

func newRemoteStatusCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current remote game",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, client, err := remoteSession(cmd, apiBase)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			snap, err := client.State(ctx, sess.ID)
			if err != nil {
				return err
			}
			renderSnapshot(snap)
			return nil
		},
	}
}

func newRemoteMarketCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "market",
		Short: "Show market structure and acquisition prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, client, err := remoteSession(cmd, apiBase)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			view, err := client.Market(ctx, sess.ID)
			if err != nil {
				return err
			}
			renderMarket(view)
			return nil
		},
	}
}

func newRemoteSettingsCmd(apiBase *string) *cobra.Command {
	var (
		price     int64
		quality   int
		marketing int
	)
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Set price, quality and marketing",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, client, err := remoteSession(cmd, apiBase)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			flags := cmd.Flags()
			var settings game.PlayerSettings
			// All three values given: nothing to read from the server, so the
			// update can still be queued while it is unreachable.
			if !flags.Changed("price") || !flags.Changed("quality") || !flags.Changed("marketing") {
				snap, err := client.State(ctx, sess.ID)
				if err != nil {
					return err
				}
				settings = snap.Settings
			}
			if !flags.Changed("price") && !flags.Changed("quality") && !flags.Changed("marketing") {
				settings, err = promptSettings(settings)
				if err != nil {
					return err
				}
			} else {
				if flags.Changed("price") {
					settings.Price = price
				}
				if flags.Changed("quality") {
					settings.Quality = quality
				}
				if flags.Changed("marketing") {
					settings.Marketing = marketing
				}
				if err := settings.Validate(); err != nil {
					return err
				}
			}

			res, err := client.UpdateSettings(ctx, sess.ID, settings)
			if err != nil {
				return queueOnNetworkError(err, sess.ID, game.SetSettings{Settings: settings})
			}
			printSuccess(fmt.Sprintf("Settings saved: price=%s quality=%d%% marketing=%d%%",
				groupDigits(res.Snapshot.Settings.Price), res.Snapshot.Settings.Quality, res.Snapshot.Settings.Marketing))
			return nil
		},
	}
	cmd.Flags().Int64Var(&price, "price", 0, "price in đồng (20000-60000, step 1000)")
	cmd.Flags().IntVar(&quality, "quality", 0, "quality percent (30-100)")
	cmd.Flags().IntVar(&marketing, "marketing", 0, "marketing percent (0-100)")
	return cmd
}

func newRemoteRoundCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "round",
		Short: "Play the next round",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, client, err := remoteSession(cmd, apiBase)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			res, err := client.PlayRound(ctx, sess.ID)
			if err != nil {
				return queueOnNetworkError(err, sess.ID, game.PlayRound{})
			}
			renderOutcome(res.Outcome)
			renderSnapshot(res.Snapshot)
			return nil
		},
	}
}

func newRemoteAcquireCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "acquire [COMPETITOR_ID]",
		Short: "Acquire a competitor",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, client, err := remoteSession(cmd, apiBase)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			var id int
			if len(args) == 1 {
				id, err = strconv.Atoi(strings.TrimSpace(args[0]))
				if err != nil {
					return fmt.Errorf("invalid competitor id %q", args[0])
				}
			} else {
				view, err := client.Market(ctx, sess.ID)
				if err != nil {
					return err
				}
				if len(view.Offers) == 0 {
					printWarn("Không còn đối thủ nào để mua lại.")
					return nil
				}
				renderOffers(view.Offers)
				picked, err := promptInt64("ID", int64(view.Offers[0].CompetitorID), 1, int64(len(game.SeedCompetitors())))
				if err != nil {
					return err
				}
				id = int(picked)
			}

			res, err := client.Acquire(ctx, sess.ID, id)
			if err != nil {
				var apiErr *cl.APIError
				if errors.As(err, &apiErr) && apiErr.Notice != "" {
					printError(apiErr.Notice)
					return nil
				}
				return queueOnNetworkError(err, sess.ID, game.Acquire{CompetitorID: id})
			}
			if !res.Outcome.Applied {
				printInfo("Nothing to acquire.")
				return nil
			}
			renderOutcome(res.Outcome)
			return nil
		},
	}
}

func newRemoteEndCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "End the remote game",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, client, err := remoteSession(cmd, apiBase)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			if err := client.EndSession(ctx, sess.ID); err != nil && !cl.IsAPIError(err) {
				return err
			}
			if err := cl.ClearSession(); err != nil {
				return err
			}
			printSuccess("Game ended.")
			return nil
		},
	}
}

func newRemoteSyncCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay commands queued while the API was unreachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, client, err := remoteSession(cmd, apiBase)
			if err != nil {
				return err
			}
			queue, err := openQueue()
			if err != nil {
				return err
			}
			pending, err := queue.Load()
			if err != nil {
				return err
			}
			mine, others := syncq.Split(pending, sess.ID)
			if len(mine) == 0 {
				printInfo("Sync queue is empty.")
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()
			out, err := client.Replay(ctx, sess.ID, syncq.Envelopes(mine))
			if err != nil {
				return err
			}
			failed := 0
			for _, r := range out.Results {
				if !r.OK {
					failed++
					printError(fmt.Sprintf("Command %d (%s) rejected: %s", r.Index+1, r.Type, r.Error))
				}
			}
			if err := queue.Save(others); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Sync complete: replayed=%d rejected=%d", len(out.Results)-failed, failed))
			renderSnapshot(out.Snapshot)
			return nil
		},
	}
}

func openQueue() (*syncq.Queue, error) {
	dir, err := cl.BaseDir()
	if err != nil {
		return nil, err
	}
	return syncq.Open(dir), nil
}

// queueOnNetworkError parks the command for `coffee remote sync` when the API
// could not be reached. API rejections are returned as-is.
func queueOnNetworkError(err error, sessionID string, cmd game.Command) error {
	if err == nil || cl.IsAPIError(err) {
		return err
	}
	queue, qerr := openQueue()
	if qerr != nil {
		return err
	}
	if qerr := queue.Push(syncq.Command{SessionID: sessionID, Command: game.Envelope(cmd), QueuedAt: time.Now().UTC()}); qerr != nil {
		return err
	}
	printWarn(fmt.Sprintf("API unreachable, queued %s for `coffee remote sync` (%v)", cmd.Name(), err))
	return nil
}
