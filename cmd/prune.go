package cmd

import (
	"context"

	"github.com/foomo/snapshotstore/pkg/store"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func NewPruneCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove all but the newest snapshot versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			l := zap.L().With(zap.String("run_id", uuid.New().String()))

			s, err := newStorage(ctx, l, v)
			if err != nil {
				return errors.Wrap(err, "failed to create storage")
			}
			defer func() {
				err = multierr.Append(err, s.Close())
			}()

			return prune(ctx, l, s, keepFlag(v))
		},
	}

	flags := cmd.Flags()
	addStorageFlags(flags, v)
	addKeepFlag(flags, v)

	return cmd
}

func prune(ctx context.Context, l *zap.Logger, s store.Storage, keep int) error {
	collector, ok := s.(store.Collector)
	if !ok {
		return errors.Wrap(store.ErrUnsupported, "storage cannot enumerate versions")
	}

	latest, err := s.GetLatestVersion(ctx)
	if errors.Is(err, store.ErrUnsupported) || errors.Is(err, store.ErrNotFound) {
		l.Info("no latest version, keeping the newest versions only", zap.Error(err))
		latest = store.NoLatestVersion
	} else if err != nil {
		return err
	}

	removed, err := store.Prune(ctx, collector, keep, latest)
	if err != nil {
		return err
	}
	l.Info("pruned versions",
		zap.Int64("latest", latest),
		zap.Int("keep", keep),
		zap.Int64s("removed", removed),
	)
	return nil
}
