package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"
	"github.com/vogiaan1904/sessiongate/config"
	"github.com/vogiaan1904/sessiongate/internal/auth"
	grpcSvc "github.com/vogiaan1904/sessiongate/internal/delivery/grpc"
	httpSvc "github.com/vogiaan1904/sessiongate/internal/delivery/http"
	"github.com/vogiaan1904/sessiongate/internal/delivery/kafka/consumer"
	"github.com/vogiaan1904/sessiongate/internal/delivery/kafka/producer"
	pgInfra "github.com/vogiaan1904/sessiongate/internal/infra/postgres"
	redisInfra "github.com/vogiaan1904/sessiongate/internal/infra/redis"
	pkgGrpc "github.com/vogiaan1904/sessiongate/pkg/grpc"
	pkgLog "github.com/vogiaan1904/sessiongate/pkg/logger"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := pkgLog.InitializeZapLogger(pkgLog.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	injector := setupDI(ctx, cfg, l)

	pool := do.MustInvoke[*pgxpool.Pool](injector)
	defer pgInfra.Disconnect(context.Background(), pool, l)

	redisCli := do.MustInvoke[*redis.Client](injector)
	defer redisInfra.Disconnect(context.Background(), redisCli, l)

	prod := do.MustInvoke[producer.Producer](injector)
	defer func() {
		if err := prod.Close(); err != nil {
			l.Errorf(ctx, "Failed to close Kafka producer: %v", err)
		}
	}()

	if cfg.Kafka.Enabled {
		cons := do.MustInvoke[*consumer.Consumer](injector)
		if err := cons.Start(ctx); err != nil {
			l.Fatalf(ctx, "Failed to start Kafka consumer: %v", err)
		}
		defer func() {
			if err := cons.Close(); err != nil {
				l.Errorf(ctx, "Failed to close Kafka consumer: %v", err)
			}
		}()
	}

	verifier := do.MustInvoke[auth.Verifier](injector)

	// gRPC server
	gRpcSrv := pkgGrpc.NewServer(l, grpcSvc.AuthInterceptor(verifier))
	grpcSvc.RegisterSessionGateServer(gRpcSrv, do.MustInvoke[grpcSvc.SessionGateServer](injector))

	lnr, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRpcPort))
	if err != nil {
		l.Fatalf(ctx, "gRPC server failed to listen: %v", err)
	}

	// http server
	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      httpSvc.NewRouter(do.MustInvoke[*httpSvc.HTTPHandler](injector), verifier),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.Infof(ctx, "gRPC server is listening on port: %d", cfg.Server.GRpcPort)
		return gRpcSrv.Serve(lnr)
	})
	g.Go(func() error {
		l.Infof(ctx, "HTTP server is listening on port: %d", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		l.Info(ctx, "Server shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		gRpcSrv.GracefulStop()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		l.Errorf(ctx, "Server stopped with error: %v", err)
	}

	l.Info(ctx, "Server exited")
}
