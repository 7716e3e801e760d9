package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/emberbase/ember-go/errors"
	"github.com/emberbase/ember-go/logger"
	"github.com/emberbase/ember-go/transport"
	"github.com/emberbase/ember-go/types"
)

// WatchCmd connects to a server and streams entity refresh events
var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Connect to a server and stream entity refresh events",
	Long: `Connect to the configured websocket endpoint, subscribe to the given
entity ids, and print every refresh the server pushes. Subscribed entities are
held sacred for the lifetime of the watch.`,
	RunE: runWatch,
}

var watchIDs []string

func init() {
	WatchCmd.Flags().StringSliceVar(&watchIDs, "id", nil, "Entity id to subscribe to (repeatable)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if cfg.Transport.URL == "" {
		return errors.New("transport.url is not configured; set it in ember.toml or EMBER_TRANSPORT_URL")
	}

	c := newClient()
	defer c.Close()

	onRefresh := func(e *types.Entity) {
		c.HandleRefresh(e)
		pterm.Printf("  %s/%s refreshed (%d fields)\n", e.Namespace, e.ID, len(e.Fields))
	}

	ws := transport.NewWS(transport.WSConfig{
		URL:        cfg.Transport.URL,
		AckTimeout: time.Duration(cfg.Transport.AckTimeoutSeconds) * time.Second,
		DialPeriod: time.Duration(cfg.Transport.DialPeriodSeconds) * time.Second,
	}, c.HandleAck, onRefresh, logger.Logger.Named("transport"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err := ws.Connect(ctx)
	cancel()
	if err != nil {
		return errors.Wrapf(err, "failed to connect to %s", cfg.Transport.URL)
	}
	c.SetTransport(ws)
	c.StartGC()

	pterm.Success.Printf("Connected to %s\n", cfg.Transport.URL)

	if len(watchIDs) > 0 {
		ids := make([]types.EntityID, 0, len(watchIDs))
		for _, id := range watchIDs {
			ids = append(ids, types.EntityID(id))
		}
		sub := c.Subscribe(ids...)
		defer sub.Close()
		pterm.Info.Printf("Subscribed to %d entities\n", len(ids))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	pterm.Info.Println("\nShutting down")
	return nil
}
