package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ptit-hub/study-assistant/internal/infrastructure/persistence/redis"
	"github.com/ptit-hub/study-assistant/pkg/pseudonym"
)

func (c *cli) forgetCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "forget",
		Short: "Drop a student's cached records so the next question refetches them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !c.cfg.Redis.Enabled() {
				return errors.New("REDIS_URL is not set, nothing is cached")
			}

			cache, err := redis.NewCache(redisConfig(c.cfg.Redis))
			if err != nil {
				return err
			}
			defer cache.Close()

			snapshots := redis.NewSnapshotCache(nil, cache, redis.SnapshotConfig{}, c.logger)
			if err := snapshots.Invalidate(cmd.Context(), userID); err != nil {
				return fmt.Errorf("invalidate: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "cleared cached records for %s\n", pseudonym.UserID(userID))
			return err
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "Student id (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
