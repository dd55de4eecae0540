package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/aretw0/flowbot/pkg/adapters/http"
	"github.com/aretw0/flowbot/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/flowbot/pkg/adapters/redis"
	"github.com/aretw0/flowbot/pkg/ports"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP compile service",
		Long:  `Exposes compile, decompile, validate and graph as a JSON API over HTTP,
with Prometheus metrics on /metrics. Compiled programs are cached in Redis when
--redis-addr is set, in memory otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Serve.Addr, _ = cmd.Flags().GetString("addr")
			}
			if cmd.Flags().Changed("redis-addr") {
				a.cfg.Serve.RedisAddr, _ = cmd.Flags().GetString("redis-addr")
			}

			cache, closeCache, err := a.artifactCache()
			if err != nil {
				return err
			}
			defer closeCache()

			handler, err := httpAdapter.NewHandler(a.compiler,
				httpAdapter.WithCache(cache),
				httpAdapter.WithLogger(a.logger),
				httpAdapter.WithMetricsHandler(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})),
			)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              a.cfg.Serve.Addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Channel to listen for errors coming from the listener.
			serverErrors := make(chan error, 1)
			go func() {
				a.logger.Info("Starting flowbot server", "addr", srv.Addr)
				serverErrors <- srv.ListenAndServe()
			}()

			// Channel to listen for interrupt or terminate signals.
			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server error: %w", err)

			case sig := <-shutdown:
				a.logger.Info("Start shutdown", "signal", sig.String())

				// Give outstanding requests a deadline for completion.
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				if err := srv.Shutdown(ctx); err != nil {
					a.logger.Error("Graceful shutdown did not complete", "error", err)
					if err := srv.Close(); err != nil {
						return fmt.Errorf("error killing server: %w", err)
					}
				}
				a.logger.Info("flowbot server stopped gracefully")
				return nil
			}
		},
	}

	cmd.Flags().String("addr", ":8080", "Address to listen on")
	cmd.Flags().String("redis-addr", "", "Redis address for the artifact cache")
	return cmd
}

// artifactCache picks the Redis cache when configured, the memory cache otherwise.
func (a *app) artifactCache() (ports.ArtifactCache, func(), error) {
	if a.cfg.Serve.RedisAddr == "" {
		return memory.NewCache(), func() {}, nil
	}

	var ttl time.Duration
	if a.cfg.Serve.CacheTTL != "" {
		d, err := time.ParseDuration(a.cfg.Serve.CacheTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cache ttl: %w", err)
		}
		ttl = d
	}

	client := redis.NewClient(&redis.Options{Addr: a.cfg.Serve.RedisAddr})
	closeFn := func() {
		if err := client.Close(); err != nil {
			a.logger.Warn("Failed to close redis client", "error", err)
		}
	}
	a.logger.Info("Using redis artifact cache", "addr", a.cfg.Serve.RedisAddr, "ttl", ttl)
	return redisAdapter.NewCache(client, "", ttl), closeFn, nil
}
