package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/wordquest/go/clients/supabase_client"
	"github.com/mcdev12/wordquest/go/internal/modes"
	"github.com/mcdev12/wordquest/go/internal/session"
	"github.com/mcdev12/wordquest/go/internal/words"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Words       *words.Handler
	Modes       *modes.Handler
	SessionAPI  *session.Handler
	Sessions    *session.Manager
	Connections *session.ConnectionManager

	publisher session.EventPublisher
	pool      *pgxpool.Pool
}

func setupServices(ctx context.Context, cfg *Config) (*Services, error) {
	// Repository layer → App layer → Handler layer

	// Words
	wordsRepo, pool, err := setupWordsRepository(ctx, cfg.Words)
	if err != nil {
		return nil, err
	}
	wordsApp := words.NewApp(wordsRepo, words.Config{
		DefaultLimit: cfg.Words.DefaultLimit,
		MaxLimit:     cfg.Words.MaxLimit,
	})

	// Modes
	catalog, err := modes.Default()
	if err != nil {
		closePool(pool)
		return nil, err
	}

	// Sessions
	publisher := setupPublisher(ctx, cfg)
	connections := session.NewConnectionManager(connectionConfig(cfg.Server.AllowedOrigins))
	manager := session.NewManager(cfg.Session.managerConfig(), clockwork.NewRealClock(), publisher, connections)

	return &Services{
		Words:       words.NewHandler(wordsApp),
		Modes:       modes.NewHandler(catalog),
		SessionAPI:  session.NewHandler(manager, connections),
		Sessions:    manager,
		Connections: connections,
		publisher:   publisher,
		pool:        pool,
	}, nil
}

func setupWordsRepository(ctx context.Context, cfg WordsConfig) (words.WordsRepository, *pgxpool.Pool, error) {
	switch cfg.Source {
	case wordsSourceSupabase:
		client := supabase_client.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)
		log.Info().Str("source", cfg.Source).Str("rpc", cfg.RPCName).Msg("words source configured")
		return words.NewSupabaseRepository(client, cfg.RPCName), nil, nil
	case wordsSourcePostgres:
		pool, err := setupDatabase(ctx)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("source", cfg.Source).Str("rpc", cfg.RPCName).Msg("words source configured")
		return words.NewPostgresRepository(pool, cfg.RPCName), pool, nil
	default:
		return nil, nil, fmt.Errorf("unknown words source %q", cfg.Source)
	}
}

// setupPublisher connects to JetStream when NATS_URL is set. A NATS outage at
// startup degrades to logging instead of failing the server.
func setupPublisher(ctx context.Context, cfg *Config) session.EventPublisher {
	if cfg.NATSURL == "" {
		log.Info().Msg("NATS_URL not set, session events go to the log")
		return session.LogPublisher{}
	}

	jsCfg := session.DefaultJetStreamConfig()
	jsCfg.URL = cfg.NATSURL
	jsCfg.SubjectPrefix = cfg.Session.NATSSubjectPrefix

	publisher, err := session.NewJetStreamPublisher(ctx, jsCfg)
	if err != nil {
		log.Warn().Err(err).Str("nats_url", cfg.NATSURL).Msg("JetStream unavailable, session events go to the log")
		return session.LogPublisher{}
	}
	log.Info().
		Str("nats_url", cfg.NATSURL).
		Str("stream", jsCfg.StreamName).
		Str("subject_prefix", jsCfg.SubjectPrefix).
		Msg("publishing session events to JetStream")
	return publisher
}

func (s *Services) Close() {
	s.Sessions.Close()
	if err := s.publisher.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close event publisher")
	}
	closePool(s.pool)
}

func closePool(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}
