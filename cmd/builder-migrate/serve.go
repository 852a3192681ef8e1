package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/DeusData/builder-migrate/internal/pipeline"
	"github.com/DeusData/builder-migrate/internal/tools"
	"github.com/DeusData/builder-migrate/internal/watcher"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().Bool("watch", false, "rescan stored projects when their files change")
	return cmd
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <directory>",
		Short: "Scan a project and rescan it whenever its Rust files change",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return err
	}
	s, err := openStore(cmd)
	if err != nil {
		return fmt.Errorf("store open: %w", err)
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := tools.NewServer(s, version)
	if watch {
		w := watcher.New(s, func(ctx context.Context, _, root string) error {
			_, err := srv.Scan(ctx, root)
			return err
		})
		go w.Run(ctx)
	}

	slog.Info("serve.start", "db", s.Path(), "watch", watch)
	return srv.MCPServer().Run(ctx, &mcp.StdioTransport{})
}

func runWatch(cmd *cobra.Command, args []string) error {
	root, settings, err := projectRoot(cmd, args[0])
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	s, err := openStore(cmd)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	scan := func(ctx context.Context, name, root string) error {
		sum, err := runPipeline(ctx, s, root, settings)
		if err != nil {
			return err
		}
		return printSummary(out, s, name, sum)
	}

	name := pipeline.ProjectNameFromPath(root)
	if err := scan(ctx, name, root); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	w := watcher.New(watcher.StaticProjects{{Name: name, RootPath: root}}, scan)
	w.Run(ctx)
	return nil
}
