package main

import (
	"context"

	"github.com/IBM/sarama"
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
	"github.com/vogiaan1904/sessiongate/internal/lifecycle"
	"github.com/vogiaan1904/sessiongate/internal/meeting"
	"github.com/vogiaan1904/sessiongate/internal/models"
	pgRepo "github.com/vogiaan1904/sessiongate/internal/repository/postgres"
	redisRepo "github.com/vogiaan1904/sessiongate/internal/repository/redis"
	"github.com/vogiaan1904/sessiongate/internal/service"
	pkgKafka "github.com/vogiaan1904/sessiongate/pkg/kafka"
	"github.com/vogiaan1904/sessiongate/pkg/logger"
)

func setupDI(ctx context.Context, cfg *config.Config, l logger.Logger) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, l)

	registerInfra(ctx, injector)
	registerRepositories(injector)
	registerKafka(ctx, injector)
	registerServices(injector)
	registerDelivery(injector)

	return injector
}

func registerInfra(ctx context.Context, injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*pgxpool.Pool, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return pgInfra.Connect(ctx, cfg.Database, do.MustInvoke[logger.Logger](i))
	})
	do.Provide(injector, func(i do.Injector) (*redis.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return redisInfra.Connect(ctx, cfg.Redis, do.MustInvoke[logger.Logger](i))
	})
	do.Provide(injector, func(i do.Injector) (meeting.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return meeting.NewHTTPClient(cfg.Meeting.BaseURL, cfg.Meeting.APIKey, cfg.Meeting.Timeout), nil
	})
	do.Provide(injector, func(i do.Injector) (auth.Verifier, error) {
		return auth.NewJWTVerifier(do.MustInvoke[*config.Config](i).JWT), nil
	})
}

func registerRepositories(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (pgRepo.SessionRepository, error) {
		return pgRepo.NewSessionRepository(do.MustInvoke[*pgxpool.Pool](i), do.MustInvoke[logger.Logger](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (pgRepo.ReportRepository, error) {
		return pgRepo.NewReportRepository(do.MustInvoke[*pgxpool.Pool](i), do.MustInvoke[logger.Logger](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (redisRepo.AttendanceRepository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return redisRepo.NewRedisAttendanceRepository(
			do.MustInvoke[*redis.Client](i),
			cfg.Attendance.EventTTL,
			do.MustInvoke[logger.Logger](i),
		), nil
	})
}

func registerKafka(ctx context.Context, injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (producer.Producer, error) {
		cfg := do.MustInvoke[*config.Config](i)
		l := do.MustInvoke[logger.Logger](i)
		if !cfg.Kafka.Enabled {
			l.Info(ctx, "Kafka disabled, events will not be published")
			return producer.NewNoopProducer(), nil
		}

		syncProd, err := pkgKafka.NewProducer(ctx, pkgKafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			RetryMax:     cfg.Kafka.ProducerRetryMax,
			RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
		}, l)
		if err != nil {
			return nil, err
		}
		return producer.NewProducer(syncProd, l), nil
	})
	do.Provide(injector, func(i do.Injector) (sarama.ConsumerGroup, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return pkgKafka.NewConsumer(ctx, pkgKafka.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.ConsumerGroupID,
		}, do.MustInvoke[logger.Logger](i))
	})
	do.Provide(injector, func(i do.Injector) (*consumer.Consumer, error) {
		return consumer.NewConsumer(
			do.MustInvoke[sarama.ConsumerGroup](i),
			do.MustInvoke[service.AttendanceService](i),
			do.MustInvoke[logger.Logger](i),
		), nil
	})
}

func registerServices(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (service.Clock, error) {
		return service.NewSystemClock(), nil
	})
	do.Provide(injector, func(i do.Injector) (service.Resolver, error) {
		cfg := do.MustInvoke[*config.Config](i)
		defaults := models.SessionConfiguration{
			PreparationMinutes:     cfg.Session.PreparationMinutes,
			EndingBufferMinutes:    cfg.Session.EndingBufferMinutes,
			DefaultDurationMinutes: cfg.Session.DefaultDurationMinutes,
		}
		return service.NewResolver(do.MustInvoke[pgRepo.SessionRepository](i), defaults, do.MustInvoke[logger.Logger](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (service.StatusService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return service.NewStatusService(
			do.MustInvoke[service.Resolver](i),
			do.MustInvoke[pgRepo.SessionRepository](i),
			do.MustInvoke[meeting.Client](i),
			do.MustInvoke[producer.Producer](i),
			do.MustInvoke[service.Clock](i),
			lifecycle.OngoingPolicy(cfg.Session.OngoingPolicy),
			do.MustInvoke[logger.Logger](i),
		), nil
	})
	do.Provide(injector, func(i do.Injector) (service.AttendanceService, error) {
		return service.NewAttendanceService(
			do.MustInvoke[service.StatusService](i),
			do.MustInvoke[service.Resolver](i),
			do.MustInvoke[redisRepo.AttendanceRepository](i),
			do.MustInvoke[pgRepo.ReportRepository](i),
			do.MustInvoke[producer.Producer](i),
			do.MustInvoke[service.Clock](i),
			do.MustInvoke[logger.Logger](i),
		), nil
	})
}

func registerDelivery(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*httpSvc.HTTPHandler, error) {
		return httpSvc.NewHTTPHandler(
			do.MustInvoke[service.StatusService](i),
			do.MustInvoke[service.AttendanceService](i),
			do.MustInvoke[logger.Logger](i),
		), nil
	})
	do.Provide(injector, func(i do.Injector) (grpcSvc.SessionGateServer, error) {
		return grpcSvc.NewGrpcService(
			do.MustInvoke[service.StatusService](i),
			do.MustInvoke[service.AttendanceService](i),
			do.MustInvoke[logger.Logger](i),
		), nil
	})
}
