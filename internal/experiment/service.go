package experiment

import (
	crand "crypto/rand"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrInvalidArgument is returned for a non-positive population size or inconsistent inputs.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrResourceExhausted is returned when the population size exceeds the configured limit.
var ErrResourceExhausted = errors.New("population size exceeds limit")

// Service generates synthetic A/B experiment datasets.
type Service struct {
	storage       RunStore
	logger        *zap.Logger
	maxPopulation int
	newSource     func() *rand.ChaCha8
}

// Option configures a Service.
type Option func(*Service)

// WithMaxPopulationSize rejects runs larger than n users. Zero disables the limit.
func WithMaxPopulationSize(n int) Option {
	return func(s *Service) {
		s.maxPopulation = n
	}
}

// WithSource replaces the per-run random source. Every run calls newSource once.
func WithSource(newSource func() *rand.ChaCha8) Option {
	return func(s *Service) {
		s.newSource = newSource
	}
}

// NewService creates a new Service.
func NewService(storage RunStore, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	s := &Service{
		storage:   storage,
		logger:    logger,
		newSource: entropySource,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate samples run parameters and the treatment effect decision, then
// builds a dataset of populationSize users.
func (s *Service) Generate(populationSize int) (*Dataset, error) {
	if err := s.checkSize(populationSize); err != nil {
		return nil, err
	}

	src := s.newSource()
	rng := rand.New(src)

	params, err := SampleParameters(rng, populationSize)
	if err != nil {
		return nil, err
	}
	effect := SampleTreatmentEffect(rng)

	return s.run(src, rng, params, effect)
}

// GenerateWith builds a dataset with pinned parameters and treatment effect.
func (s *Service) GenerateWith(params Parameters, effect TreatmentEffect) (*Dataset, error) {
	if err := validateParameters(params); err != nil {
		return nil, err
	}
	if err := validateEffect(effect); err != nil {
		return nil, err
	}
	if err := s.checkSize(params.PopulationSize); err != nil {
		return nil, err
	}

	src := s.newSource()
	return s.run(src, rand.New(src), params, effect)
}

// GenerateWithEffect samples run parameters like Generate but pins the treatment effect decision.
func (s *Service) GenerateWithEffect(populationSize int, effect TreatmentEffect) (*Dataset, error) {
	if err := validateEffect(effect); err != nil {
		return nil, err
	}
	if err := s.checkSize(populationSize); err != nil {
		return nil, err
	}

	src := s.newSource()
	rng := rand.New(src)

	params, err := SampleParameters(rng, populationSize)
	if err != nil {
		return nil, err
	}
	return s.run(src, rng, params, effect)
}

// ListRuns returns the summaries of recent runs.
func (s *Service) ListRuns() ([]*RunSummary, error) {
	return s.storage.GetAll()
}

// GetRun returns the summary of a single run.
func (s *Service) GetRun(id string) (*RunSummary, error) {
	return s.storage.Read(id)
}

func (s *Service) run(src *rand.ChaCha8, rng *rand.Rand, params Parameters, effect TreatmentEffect) (*Dataset, error) {
	started := time.Now()

	ids, err := NewUserIDs(src, params.PopulationSize)
	if err != nil {
		return nil, err
	}

	partition, err := AssignGroups(src, ids)
	if err != nil {
		return nil, err
	}

	flags := SimulateConversion(rng, partition, params)
	amounts := GenerateAmounts(rng, partition, flags, effect)

	tables, err := Assemble(partition, flags, amounts)
	if err != nil {
		return nil, eris.Wrap(err, "assemble tables")
	}

	ds := &Dataset{
		RunID:      uuid.NewString(),
		Parameters: params,
		Effect:     effect,
		Salt:       partition.Salt,
		Tables:     tables,
	}

	summary := &RunSummary{
		ID:                   ds.RunID,
		CreatedAt:            time.Now(),
		Parameters:           params,
		Effect:               effect,
		Salt:                 partition.Salt,
		ControlSize:          len(partition.Control),
		TreatmentSize:        len(partition.Treatment),
		ControlConversions:   flags.Count(partition.Control),
		TreatmentConversions: flags.Count(partition.Treatment),
	}
	if err := s.storage.Set(summary); err != nil {
		s.logger.Error("failed to save run summary", zap.String("run_id", ds.RunID), zap.Error(err))
		return nil, eris.Wrap(err, "save run summary")
	}

	s.logger.Info("dataset generated",
		zap.String("run_id", ds.RunID),
		zap.Int("population_size", params.PopulationSize),
		zap.Float64("control_rate", params.ControlRate),
		zap.Float64("treatment_rate", params.TreatmentRate),
		zap.Bool("effect_injected", effect.Injected),
		zap.Int("control_size", summary.ControlSize),
		zap.Int("treatment_size", summary.TreatmentSize),
		zap.Duration("elapsed", time.Since(started)),
	)

	return ds, nil
}

func (s *Service) checkSize(n int) error {
	if n <= 0 {
		return eris.Wrapf(ErrInvalidArgument, "population size must be positive, got %d", n)
	}
	if s.maxPopulation > 0 && n > s.maxPopulation {
		s.logger.Warn("population size above limit", zap.Int("population_size", n), zap.Int("max", s.maxPopulation))
		return eris.Wrapf(ErrResourceExhausted, "population size %d above %d", n, s.maxPopulation)
	}
	return nil
}

// entropySource seeds a ChaCha8 generator from the operating system.
func entropySource() *rand.ChaCha8 {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic(eris.Wrap(err, "read random seed"))
	}
	return rand.NewChaCha8(seed)
}
