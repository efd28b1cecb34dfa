package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"legacy-mirror/core/loader"
	"legacy-mirror/core/logger"
	"legacy-mirror/core/middleware/auth"
	"legacy-mirror/core/middleware/rayid"
	"legacy-mirror/feature/integrity"
	syncfeature "legacy-mirror/feature/sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "legacy-mirror/docs/swagger"
)

// shutdownTimeout bounds how long in-flight requests may take after a signal.
const shutdownTimeout = 30 * time.Second

// @title Legacy Mirror API
// @version 1.0
// @description Admin API for mirroring the legacy business database into the local datastore.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the admin server and the sync scheduler",
	Long: `Starts the HTTP admin API and, when sync.interval is set, runs an
incremental synchronization of every enabled table on that interval.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		logg := rt.logger
		zap.ReplaceGlobals(logg)

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// RayID first so every later log line carries it
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Handlers block on the sync engine; tie them to the process lifetime
		app.Use(func(c *fiber.Ctx) error {
			c.SetUserContext(ctx)
			return c.Next()
		})

		app.Get("/swagger/*", swagger.HandlerDefault)

		if !rt.cfg.Server.AuthEnabled() {
			logg.Warn("API key is empty, the admin API is unprotected")
		}
		app.Use(auth.New(auth.Config{ApiKey: rt.cfg.Server.ApiKey}))

		mgr := loader.NewManager(logg)
		mgr.Register(syncfeature.NewFeature(rt.sync))
		mgr.Register(integrity.NewFeature(rt.integrity))
		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		defaults := rt.sync.Defaults()
		scheduler := syncfeature.NewScheduler(rt.sync, rt.cfg.Sync.Interval, defaults, logg)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logg.Info("Starting server", zap.String("addr", rt.cfg.Server.Addr()))
			if err := app.Listen(rt.cfg.Server.Addr()); err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			err := scheduler.Start(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-gctx.Done()
			logg.Info("Shutting down server...")
			return app.ShutdownWithTimeout(shutdownTimeout)
		})

		return g.Wait()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
