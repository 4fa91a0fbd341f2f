package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/gin-gonic/gin"
	httpDelivery "github.com/mealtrack/backend/internal/delivery/http"
	"github.com/mealtrack/backend/internal/delivery/mcp"
	"github.com/mealtrack/backend/internal/usecase"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (webhook, JSON API, MCP)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx)
		},
	}
}

func (c *cli) serve(ctx context.Context) error {
	a, err := newApp(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	handler := httpDelivery.NewHandler(httpDelivery.Services{
		Chat:      a.chat,
		Catalog:   a.catalog,
		Processor: a.processor,
		Journal:   a.journal,
		Database:  a.store,
		ModelMode: a.modelMode,
	}, c.logger)
	tools := mcp.NewHandler(a.chat, a.catalog, a.processor, c.logger)
	router := httpDelivery.SetupRouter(c.cfg, handler, c.logger, func(r gin.IRouter) { tools.Register(r) })

	srv := &http.Server{
		Addr:              ":" + c.cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", c.cfg.Server.Environment),
			zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		c.logger.Info("shutting down", zap.Duration("timeout", c.cfg.Server.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (c *cli) parseCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <message>",
		Short: "Classify a meal description without logging it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			message := strings.Join(args, " ")
			outcome := a.processor.Process(cmd.Context(), message)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{"status": outcome.Kind(), "result": outcome})
			}
			fmt.Fprintf(out, "status: %s\n", outcome.Kind())
			fmt.Fprintln(out, usecase.RenderOutcome(outcome))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the outcome as JSON")
	return cmd
}

func (c *cli) foodsCmd() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "foods",
		Short: "List catalog foods, or close matches for --query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if query != "" {
				for _, name := range a.catalog.Suggest(query, 10) {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tKCAL\tPROTEIN\tSERVING\tCATEGORY")
			for _, f := range a.catalog.Foods() {
				fmt.Fprintf(w, "%s\t%g\t%g\t%s\t%s\n", f.Name, f.Calories, f.Protein, f.ServingSize, f.Category)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "show foods resembling this name")
	return cmd
}
