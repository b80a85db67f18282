package main

import (
	"context"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/okian/touchdown/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func pollCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Run one poll cycle over every in-progress game and print the report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, flags)
			if err != nil {
				return err
			}
			st, err := buildStack(ctx, cfg, stackOptions{})
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if err := st.svc.Start(ctx); err != nil {
				return errors.Wrap(err, "start service")
			}
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := st.svc.Stop(stopCtx); err != nil {
					logger.Get().Error(stopCtx, "stop service", logger.Error(err))
				}
			}()

			report, err := st.svc.RunCycle(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}
