package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/elroy-bot/elroy-sub001/queue"
	"github.com/elroy-bot/elroy-sub001/server"
	"github.com/elroy-bot/elroy-sub001/worker"
)

const consolidationQueue = "consolidation"

func serveCmd() *cobra.Command {
	var consolidateEvery time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the background memory worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(configPath())
			if err != nil {
				return err
			}

			q, err := buildQueue(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer q.Close()

			w, err := worker.New(worker.Config{
				ID:           "consolidator",
				Queue:        q,
				QueueName:    consolidationQueue,
				Consolidator: &worker.StoreConsolidator{Store: a.store},
				Logger:       a.log,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := w.Start(ctx); err != nil {
				return err
			}

			go enqueueConsolidation(ctx, a, q, consolidateEvery)

			srv := server.New(a.assistant, server.Config{Port: a.cfg.HTTP.Port})
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			fmt.Printf("Listening on http://localhost:%d\n", a.cfg.HTTP.Port)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				a.log.WithError(err).Warn("server shutdown")
			}
			return w.Stop(shutdownCtx)
		},
	}

	cmd.Flags().DurationVar(&consolidateEvery, "consolidate-every", time.Hour, "interval between memory consolidation sweeps (0 disables)")
	return cmd
}

// enqueueConsolidation periodically schedules one consolidation job per user
// with stored memories.
func enqueueConsolidation(ctx context.Context, a *app, q queue.Queue, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		users, err := a.store.UserIDs(ctx)
		if err != nil {
			a.log.WithError(err).Warn("list users for consolidation")
			continue
		}
		for _, user := range users {
			job := queue.NewJob(queue.JobTypeConsolidate, user)
			if err := q.Enqueue(ctx, consolidationQueue, job); err != nil {
				a.log.WithError(err).WithField("user", user).Warn("enqueue consolidation")
			}
		}
	}
}
