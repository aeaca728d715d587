package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

const realtimeCheckTimeout = 5 * time.Second

func newHealthCmd() *cobra.Command {
	var realtime bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Long: `Check the JSON API answers. With --realtime the command also opens a
websocket to the gateway, so a broken upgrade path shows up too.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Health()
			if err != nil {
				return err
			}

			if realtime {
				if err := checkRealtime(cmd.Context()); err != nil {
					return fmt.Errorf("realtime endpoint: %w", err)
				}
				result.Realtime = "ok"
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&realtime, "realtime", false, "Also check the websocket gateway accepts connections")

	return cmd
}

// checkRealtime opens and immediately closes a gateway connection
func checkRealtime(ctx context.Context) error {
	wsURL, err := cfg.WebsocketURL()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, realtimeCheckTimeout)
	defer cancel()

	game, err := DialGame(ctx, wsURL)
	if err != nil {
		return err
	}
	return game.Close()
}
