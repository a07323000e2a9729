package cmd

import (
	"fmt"

	"github.com/foomo/snapshotstore/pkg/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func NewVersionsCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List stored snapshot versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()

			s, err := newStorage(ctx, zap.L(), v)
			if err != nil {
				return errors.Wrap(err, "failed to create storage")
			}
			defer func() {
				err = multierr.Append(err, s.Close())
			}()

			collector, ok := s.(store.Collector)
			if !ok {
				return errors.Wrapf(store.ErrUnsupported, "storage type %s cannot list versions", storageTypeFlag(v))
			}
			versions, err := collector.GetAllVersions(ctx)
			if err != nil {
				return err
			}
			for _, version := range versions {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), version); err != nil {
					return err
				}
			}
			return nil
		},
	}

	addStorageFlags(cmd.Flags(), v)

	return cmd
}
