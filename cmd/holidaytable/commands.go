package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	app "github.com/holidaytable/planner/internal/application/planner"
	"github.com/holidaytable/planner/internal/infrastructure/container"
	"github.com/holidaytable/planner/internal/infrastructure/export"
	"github.com/holidaytable/planner/internal/infrastructure/tui"
	"github.com/holidaytable/planner/internal/ports/inbound"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface and JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fxApp := fx.New(container.Options(*configPath, container.ModeServer, container.Module))
			if err := fxApp.Err(); err != nil {
				return err
			}

			if err := fxApp.Start(cmd.Context()); err != nil {
				return err
			}

			var code int
			select {
			case sig := <-fxApp.Wait():
				code = sig.ExitCode
			case <-cmd.Context().Done():
			}

			stopCtx, cancel := context.WithTimeout(context.Background(), fxApp.StopTimeout())
			defer cancel()
			if err := fxApp.Stop(stopCtx); err != nil {
				return err
			}
			if code != 0 {
				return fmt.Errorf("server exited with code %d", code)
			}
			return nil
		},
	}
}

func newTUICommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal interface",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				plannerService inbound.PlannerService
				chatService    inbound.ChatService
				logger         *zap.Logger
			)
			return withCore(cmd.Context(), *configPath, container.ModeTerminal, func(ctx context.Context) error {
				return tui.Run(ctx, plannerService, chatService, logger)
			}, fx.Populate(&plannerService, &chatService, &logger))
		},
	}
}

func newExportCommand(configPath *string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the shopping list to an XLSX workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var plannerService inbound.PlannerService
			return withCore(cmd.Context(), *configPath, container.ModeBatch, func(ctx context.Context) error {
				return exportShoppingList(ctx, plannerService, out)
			}, fx.Populate(&plannerService))
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "holiday-table-shopping.xlsx", "output file")
	return cmd
}

// withCore starts the planner without a web server, runs fn and stops it
func withCore(ctx context.Context, configPath string, mode container.Mode, fn func(context.Context) error, populate fx.Option) error {
	fxApp := fx.New(container.Options(configPath, mode, container.CoreModule), populate)
	if err := fxApp.Err(); err != nil {
		return err
	}
	if err := fxApp.Start(ctx); err != nil {
		return err
	}

	runErr := fn(ctx)

	stopCtx, cancel := context.WithTimeout(context.Background(), fxApp.StopTimeout())
	defer cancel()
	if err := fxApp.Stop(stopCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func exportShoppingList(ctx context.Context, plannerService inbound.PlannerService, out string) error {
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}

	view := app.NewShoppingView(plannerService.ShoppingList(ctx))
	if err := export.WriteShoppingList(f, view); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("Shopping list written to %s (%d products, %d drinks, %s)\n",
		out, len(view.Ingredients), len(view.Drinks), view.TotalLabel)
	return nil
}
