package cmd

import (
	"context"
	"io"
	"os"

	"github.com/foomo/snapshotstore/pkg/snapshot"
	"github.com/foomo/snapshotstore/pkg/store"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func NewPublishCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "publish <version> [file]",
		Short: "Store a snapshot and advance the latest version",
		Long:  "Stores the payload read from file or stdin under version, optionally stores a patch from the previous latest version, and finally advances the latest version pointer.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			l := zap.L().With(zap.String("run_id", uuid.New().String()))

			version, err := snapshot.ParseVersion(args[0])
			if err != nil {
				return err
			}

			var data []byte
			if len(args) == 2 {
				data, err = os.ReadFile(args[1])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return errors.Wrap(err, "failed to read payload")
			}
			payload, err := decodePayload(data, formatFlag(v))
			if err != nil {
				return err
			}

			s, err := newStorage(ctx, l, v)
			if err != nil {
				return errors.Wrap(err, "failed to create storage")
			}
			defer func() {
				err = multierr.Append(err, s.Close())
			}()

			return publish(ctx, l, s, snapshot.New(version, payload), patchFlag(v), !skipLatestFlag(v))
		},
	}

	flags := cmd.Flags()
	addStorageFlags(flags, v)
	addFormatFlag(flags, v)
	addSkipLatestFlag(flags, v)
	addPatchFlag(flags, v)

	return cmd
}

// publish writes the body first and the pointer last so readers never see a
// dangling latest version.
func publish(ctx context.Context, l *zap.Logger, s store.Storage, snap *snapshot.Snapshot, withPatch, advance bool) error {
	l = l.With(zap.Int64("version", snap.Version))

	if err := s.SetSnapshotByVersion(ctx, snap.Version, snap); err != nil {
		return err
	}
	l.Info("snapshot stored")

	if withPatch {
		if err := publishPatch(ctx, l, s, snap); err != nil {
			return err
		}
	}

	if !advance {
		return nil
	}
	if err := s.SetLatestVersion(ctx, snap.Version); err != nil {
		return err
	}
	l.Info("latest version advanced")
	return nil
}

func publishPatch(ctx context.Context, l *zap.Logger, s store.Storage, next *snapshot.Snapshot) error {
	previous, err := s.GetLatestVersion(ctx)
	if errors.Is(err, store.ErrNotFound) {
		l.Info("no previous version, skipping patch")
		return nil
	} else if err != nil {
		return err
	}
	if previous >= next.Version {
		return errors.Errorf("version %d is not newer than the latest version %d", next.Version, previous)
	}

	base, err := s.GetSnapshotByVersion(ctx, previous)
	if err != nil {
		return err
	}
	patch, err := snapshot.MakePatch(base, next)
	if err != nil {
		return err
	}
	if err := s.SetPatchByVersion(ctx, previous, patch); err != nil {
		return err
	}
	l.Info("patch stored",
		zap.Int64("base_version", previous),
		zap.Int("added", len(patch.Added)),
		zap.Int("removed", len(patch.Removed)),
	)
	return nil
}
