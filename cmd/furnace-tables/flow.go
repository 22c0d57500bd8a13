package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/provide-io/furnace/go/furnace/pkg/flow"
	"github.com/provide-io/furnace/go/furnace/pkg/tables"
	"github.com/spf13/cobra"
)

func (e *env) openStore(ctx context.Context) (*flow.Store, error) {
	return flow.Open(ctx, e.cfg.Database, e.cfg.MaxActions, e.logger)
}

func newFlowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Manage the experiment flow and generate dynamic tables",
	}
	cmd.AddCommand(newFlowAddCmd(), newFlowListCmd(), newFlowGenerateCmd())
	return cmd
}

func newFlowAddCmd() *cobra.Command {
	var (
		startTime  uint32
		actionID   string
		actionTime uint16
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a record to the experiment flow",
		Long: fmt.Sprintf(`Appends one record. An action time of %d marks the end of the flow and
pads the flow with filler records up to the configured capacity (default %d).`, flow.EndOfFlow, flow.MaxActions),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := setup("flow")
			if err != nil {
				return err
			}
			store, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			id, err := store.InsertRecord(ctx, startTime, actionID, actionTime)
			if err != nil {
				return err
			}
			successColor.Printf("✅ Record %d added\n", id)
			return nil
		},
	}
	cmd.Flags().Uint32Var(&startTime, "start", 0, "Start time")
	cmd.Flags().StringVar(&actionID, "action", "", "Action id (4 hex digits)")
	cmd.Flags().Uint16Var(&actionTime, "time", 0, "Action time")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}

func newFlowListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the experiment flow in table order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := setup("flow")
			if err != nil {
				return err
			}
			store, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Records(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%5s %10s %6s %6s\n", "id", "start", "action", "time")
			for _, r := range records {
				fmt.Printf("%5d %10d %6s %6d\n", r.ID, r.StartTime, r.ActionID, r.ActionTime)
			}
			return nil
		},
	}
}

func newFlowGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Write the next DT_<id>.bin from the experiment flow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := setup("flow")
			if err != nil {
				return err
			}
			store, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			emitter := tables.NewEmitter(e.cfg.DynamicDir, e.cfg.FilePerms, e.logger)
			artifact, err := flow.NewGenerator(store, emitter, e.logger).Generate(ctx)
			notifyArtifact(artifact)
			return err
		},
	}
}

func newDynamicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dynamic-num",
		Short: "Show or change the dynamic table id",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current dynamic id",
		Args:  cobra.NoArgs,
		RunE: withStore(func(ctx context.Context, store *flow.Store, args []string) error {
			num, err := store.DynamicNum(ctx)
			if errors.Is(err, flow.ErrNoDynamicNum) {
				fmt.Println("dynamic id: not set")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("dynamic id: %04d\n", num.DynamicID)
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <id>",
		Short: "Set the dynamic id (0-9999)",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(ctx context.Context, store *flow.Store, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid dynamic id %q: %w", args[0], err)
			}
			if _, err := flow.EncodeDynamicID(id); err != nil {
				return err
			}
			if err := store.SetDynamicID(ctx, id); err != nil {
				return err
			}
			successColor.Printf("✅ Dynamic id set to %04d\n", id)
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "next",
		Short: "Advance the dynamic id by one",
		Args:  cobra.NoArgs,
		RunE: withStore(func(ctx context.Context, store *flow.Store, args []string) error {
			if err := store.IncrementDynamicID(ctx); err != nil {
				return err
			}
			num, err := store.DynamicNum(ctx)
			if err != nil {
				return err
			}
			successColor.Printf("✅ Dynamic id advanced to %04d\n", num.DynamicID)
			return nil
		}),
	})
	return cmd
}

func withStore(fn func(context.Context, *flow.Store, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		e, err := setup("dynamic-num")
		if err != nil {
			return err
		}
		store, err := e.openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		return fn(ctx, store, args)
	}
}
