package cmd

import (
	"context"

	"github.com/foomo/snapshotstore/pkg/snapshot"
	"github.com/foomo/snapshotstore/pkg/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func NewGetCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "get [version]",
		Short: "Print a snapshot payload, the latest one by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			l := zap.L()

			s, err := newStorage(ctx, l, v)
			if err != nil {
				return errors.Wrap(err, "failed to create storage")
			}
			defer func() {
				err = multierr.Append(err, s.Close())
			}()

			snap, err := get(ctx, s, args)
			if err != nil {
				return err
			}
			bytes, err := encodePayload(snap.Payload, formatFlag(v))
			if err != nil {
				return err
			}
			l.Debug("snapshot loaded", zap.Int64("version", snap.Version), zap.Int("bytes", len(bytes)))
			_, err = cmd.OutOrStdout().Write(append(bytes, '\n'))
			return err
		},
	}

	flags := cmd.Flags()
	addStorageFlags(flags, v)
	addFormatFlag(flags, v)

	return cmd
}

func get(ctx context.Context, s store.Storage, args []string) (*snapshot.Snapshot, error) {
	var version int64
	if len(args) == 1 {
		parsed, err := snapshot.ParseVersion(args[0])
		if err != nil {
			return nil, err
		}
		version = parsed
	} else {
		latest, err := s.GetLatestVersion(ctx)
		if err != nil {
			return nil, err
		}
		version = latest
	}
	return s.GetSnapshotByVersion(ctx, version)
}
