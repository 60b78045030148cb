package contacts

import (
	"context"
	"strings"

	"github.com/goliatone/go-connect-contacts/adapters/gologger"
	"github.com/goliatone/go-connect-contacts/api"
	"github.com/goliatone/go-connect-contacts/auth"
	"github.com/goliatone/go-connect-contacts/batch"
	"github.com/goliatone/go-connect-contacts/command"
	"github.com/goliatone/go-connect-contacts/core"
	"github.com/goliatone/go-connect-contacts/csvio"
	"github.com/goliatone/go-connect-contacts/transport"
)

// Service is the wired contact sync stack: token issuer and cache, API
// client, row commands and batch orchestrator.
type Service struct {
	config       Config
	logger       core.Logger
	issuer       *auth.TokenIssuer
	tokens       *auth.Tokens
	client       *api.Client
	commands     command.Commands
	orchestrator *batch.Orchestrator
}

func New(cfg Config, opts ...Option) (*Service, error) {
	o := options{loggerName: gologger.DefaultLoggerName}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	_, logger := gologger.Resolve(o.loggerName, o.loggerProvider, o.logger)

	cache, err := resolveTokenCache(cfg, o.tokenCache)
	if err != nil {
		return nil, err
	}
	keys := o.keys
	if keys == nil {
		keys = auth.NewFileKeySource(cfg.BotRSAPath)
	}
	issuer := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		Keys: keys,
		PublicKeyIDs: map[core.Network]string{
			core.NetworkWeChat:   cfg.WeChatPublicKeyID,
			core.NetworkWhatsApp: cfg.WhatsAppPublicKeyID,
		},
		Cache: cache,
	})
	tokens := auth.NewTokens(issuer, cache)

	sessionConfig, err := transport.SessionConfigFromCore(cfg)
	if err != nil {
		return nil, err
	}
	var sessionOpts []transport.SessionOption
	if o.httpDoer != nil {
		sessionOpts = append(sessionOpts, transport.WithHTTPDoer(o.httpDoer))
	}
	sessions := transport.NewSessionFactory(sessionConfig, sessionOpts...)

	client, err := api.NewClientFromConfig(cfg, tokens, sessions,
		api.WithLogger(logger),
		api.WithMetricsRecorder(o.metrics),
	)
	if err != nil {
		return nil, err
	}

	orchestratorOpts := []batch.Option{
		batch.WithLogger(logger),
		batch.WithMetricsRecorder(o.metrics),
	}
	if o.runRecorder != nil {
		orchestratorOpts = append(orchestratorOpts, batch.WithRunRecorder(o.runRecorder))
	}

	return &Service{
		config:       cfg,
		logger:       logger,
		issuer:       issuer,
		tokens:       tokens,
		client:       client,
		commands:     command.NewCommands(client),
		orchestrator: batch.NewOrchestrator(client, orchestratorOpts...),
	}, nil
}

func resolveTokenCache(cfg Config, override core.TokenCache) (core.TokenCache, error) {
	if override != nil {
		return override, nil
	}
	switch strings.ToLower(strings.TrimSpace(cfg.TokenCache)) {
	case core.TokenCacheShared:
		return auth.NewSharedTokenCacheWithTTL(auth.DefaultTokenTTL)
	default:
		return auth.NewMemoryTokenCache(), nil
	}
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Issuer() *auth.TokenIssuer {
	if s == nil {
		return nil
	}
	return s.issuer
}

func (s *Service) Tokens() *auth.Tokens {
	if s == nil {
		return nil
	}
	return s.tokens
}

func (s *Service) Client() *api.Client {
	if s == nil {
		return nil
	}
	return s.client
}

func (s *Service) Commands() command.Commands {
	if s == nil {
		return command.Commands{}
	}
	return s.commands
}

func (s *Service) Orchestrator() *batch.Orchestrator {
	if s == nil {
		return nil
	}
	return s.orchestrator
}

func (s *Service) AddContact(ctx context.Context, network Network, contact Contact, advisors []string) (Outcome, error) {
	return s.client.AddContact(ctx, network, contact, advisors)
}

func (s *Service) UpdateContact(ctx context.Context, network Network, contact Contact, advisor string) (Outcome, error) {
	return s.client.UpdateContact(ctx, network, contact, advisor)
}

func (s *Service) DeleteContact(ctx context.Context, network Network, email string, advisor string) (Outcome, error) {
	return s.client.DeleteContact(ctx, network, email, advisor)
}

// ProcessFile reads the input CSV, processes every row and writes the report
// CSV. Rows processed before a cancellation are still written.
func (s *Service) ProcessFile(ctx context.Context, inputPath string, outputPath string) (Report, error) {
	records, err := csvio.ReadFile(inputPath)
	if err != nil {
		return Report{}, err
	}
	report, runErr := s.orchestrator.Process(ctx, batch.Request{
		Records:    records,
		InputPath:  inputPath,
		OutputPath: outputPath,
	})
	if err := csvio.WriteFile(outputPath, report.ReportRows()); err != nil {
		return report, err
	}
	return report, runErr
}

var _ core.ContactService = (*Service)(nil)
