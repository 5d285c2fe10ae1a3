package api

import (
	"context"
	"log/slog"
	"sync"

	"anonymizer/internal/anonymize"
	"anonymizer/internal/logging"
	"anonymizer/internal/services"
)

// MappingStore abstracts mapping persistence needed by the service.
type MappingStore interface {
	Load(ctx context.Context) (anonymize.Mapping, error)
	Save(ctx context.Context, forward map[string]string) error
}

// AnonymizerService runs encode and decode against a shared mapping store.
// Calls are serialized so every request observes a consistent mapping.
type AnonymizerService struct {
	mu        sync.Mutex
	store     MappingStore
	generator *anonymize.TokenGenerator
	logger    *slog.Logger
	onEncode  func(EncodeStats)
}

// ServiceOption customizes an AnonymizerService.
type ServiceOption func(*AnonymizerService)

// WithTokenGenerator sets the generator used for new tokens.
func WithTokenGenerator(gen *anonymize.TokenGenerator) ServiceOption {
	return func(s *AnonymizerService) {
		if gen != nil {
			s.generator = gen
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *AnonymizerService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEncodeObserver registers a callback invoked after each successful encode.
func WithEncodeObserver(fn func(EncodeStats)) ServiceOption {
	return func(s *AnonymizerService) {
		s.onEncode = fn
	}
}

// NewAnonymizerService constructs a service around the provided store.
func NewAnonymizerService(store MappingStore, opts ...ServiceOption) *AnonymizerService {
	if store == nil {
		return nil
	}
	s := &AnonymizerService{
		store:     store,
		generator: anonymize.NewTokenGenerator(anonymize.DefaultTokenLength),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "anonymizer")
	return s
}

// Health reports liveness.
func (s *AnonymizerService) Health(context.Context) Health {
	return Health{OK: true}
}

// Encode merges the client mapping into the stored one without overriding
// stored originals, anonymizes the text, persists the result and returns it
// with the full mapping.
func (s *AnonymizerService) Encode(ctx context.Context, in TextIn) (TextOut, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := logging.WithContext(ctx, s.logger)

	if err := anonymize.CheckEntries(in.Mapping); err != nil {
		return TextOut{}, services.Wrap(services.ErrValidation, "anonymizer", "encode", "client mapping", err)
	}
	current, err := s.store.Load(ctx)
	if err != nil {
		return TextOut{}, services.Wrap(services.ErrStorage, "anonymizer", "encode", "load mapping", err)
	}
	current.Merge(in.Mapping)

	result, err := anonymize.Encode(in.Text, current.Forward, s.generator)
	if err != nil {
		return TextOut{}, services.Wrap(services.ErrTransient, "anonymizer", "encode", "assign tokens", err)
	}

	if err := s.store.Save(ctx, result.Forward); err != nil {
		return TextOut{}, services.Wrap(services.ErrStorage, "anonymizer", "encode", "save mapping", err)
	}

	stats := EncodeStats{Created: len(result.Created), Total: len(result.Forward)}
	logger.Debug("text encoded",
		logging.Int("text_length", len(in.Text)),
		logging.Int("tokens_created", stats.Created),
		logging.Int("mapping_size", stats.Total),
	)
	if s.onEncode != nil {
		s.onEncode(stats)
	}

	return TextOut{Text: result.Text, Mapping: result.Forward}, nil
}

// Decode restores originals for every known token. The client mapping is
// merged for this call only; nothing is persisted.
func (s *AnonymizerService) Decode(ctx context.Context, in TextIn) (TextOut, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := anonymize.CheckEntries(in.Mapping); err != nil {
		return TextOut{}, services.Wrap(services.ErrValidation, "anonymizer", "decode", "client mapping", err)
	}
	current, err := s.store.Load(ctx)
	if err != nil {
		return TextOut{}, services.Wrap(services.ErrStorage, "anonymizer", "decode", "load mapping", err)
	}
	current.Merge(in.Mapping)

	text := anonymize.Decode(in.Text, current.Reverse)
	logging.WithContext(ctx, s.logger).Debug("text decoded",
		logging.Int("text_length", len(in.Text)),
		logging.Int("mapping_size", current.Len()),
	)

	forward := current.Forward
	if forward == nil {
		forward = map[string]string{}
	}
	return TextOut{Text: text, Mapping: forward}, nil
}
