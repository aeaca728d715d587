package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/match3duel/internal/protocol"
)

type playOptions struct {
	score  uint32
	rounds int
}

func newPlayCmd() *cobra.Command {
	var opts playOptions

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Log in, queue for a match and play it out",
		Long: `Log in over the realtime protocol, join the matchmaking queue and print
every server event until the match is settled.

With --score the command reports that score as soon as a round starts.
With --rounds greater than one it votes for a rematch after each result.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Username == "" {
				return errors.New("--username is required (env: M3DUEL_USERNAME)")
			}
			if opts.rounds < 1 {
				return errors.New("--rounds must be at least 1")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return play(ctx, opts, NewOutput(cfg.Output))
		},
	}

	cmd.Flags().Uint32Var(&opts.score, "score", 0, "Score to report when each round starts")
	cmd.Flags().IntVar(&opts.rounds, "rounds", 1, "Rounds to play before leaving")

	return cmd
}

func play(ctx context.Context, opts playOptions, out *Output) error {
	wsURL, err := cfg.WebsocketURL()
	if err != nil {
		return err
	}

	game, err := DialGame(ctx, wsURL)
	if err != nil {
		return err
	}
	defer func() { _ = game.Close() }()

	accepted, err := game.Login(ctx, cfg.Username)
	if err != nil {
		return err
	}
	out.Event(accepted)

	if err := game.Send(protocol.JoinQueue{}); err != nil {
		return err
	}

	played := 0
	for {
		msg, err := game.Next(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
		out.Event(msg)

		switch msg.(type) {
		case protocol.GameStarted, protocol.RematchAccepted:
			if opts.score > 0 {
				if err := game.Send(protocol.ReportScore{Score: opts.score}); err != nil {
					return err
				}
			}
		case protocol.MatchResult:
			played++
			if played >= opts.rounds {
				return game.Send(protocol.LeaveGame{})
			}
			if err := game.Send(protocol.RequestRematch{}); err != nil {
				return err
			}
		case protocol.OpponentLeft, protocol.OpponentDisconnected:
			return nil
		}
	}
}
