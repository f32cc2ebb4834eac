package experiment

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T, opts ...Option) (*Service, *LocalStorage) {
	t.Helper()
	storage := NewLocalStorage(0)
	return NewService(storage, zaptest.NewLogger(t), opts...), storage
}

func TestNewService(t *testing.T) {
	svc := NewService(NewLocalStorage(10), nil)

	require.NotNil(t, svc)
	assert.NotNil(t, svc.storage)
	assert.NotNil(t, svc.logger, "nil logger should fall back to a production logger")
	assert.NotNil(t, svc.newSource)
}

func TestGenerate_SmallPopulation(t *testing.T) {
	svc, _ := newTestService(t)

	ds, err := svc.Generate(10)
	require.NoError(t, err)
	require.Len(t, ds.Tables.Transactions, 10)
	require.Len(t, ds.Tables.Groups, 10)

	txIDs := map[UserID]bool{}
	for _, tx := range ds.Tables.Transactions {
		txIDs[tx.ID] = true
	}
	groupIDs := map[UserID]bool{}
	for _, g := range ds.Tables.Groups {
		groupIDs[g.ID] = true
	}
	assert.Equal(t, txIDs, groupIDs)
	assert.Len(t, txIDs, 10)
}

func TestGenerate_InvalidSize(t *testing.T) {
	svc, storage := newTestService(t)

	for _, n := range []int{0, -1} {
		ds, err := svc.Generate(n)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Nil(t, ds)
	}

	runs, err := storage.GetAll()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestGenerate_SizeLimit(t *testing.T) {
	svc, _ := newTestService(t, WithMaxPopulationSize(100))

	_, err := svc.Generate(101)
	assert.ErrorIs(t, err, ErrResourceExhausted)

	_, err = svc.Generate(100)
	assert.NoError(t, err)
}

func TestGenerate_RepeatedCallsDiffer(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.Generate(1000)
	require.NoError(t, err)
	second, err := svc.Generate(1000)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.NotEqual(t, first.Salt, second.Salt)
	assert.NotEqual(t, first.Tables.Transactions[0].ID, second.Tables.Transactions[0].ID)
}

func TestGenerate_SeededSourceIsRepeatable(t *testing.T) {
	a, _ := newTestService(t, WithSource(seededSource(42)))
	b, _ := newTestService(t, WithSource(seededSource(42)))

	first, err := a.Generate(500)
	require.NoError(t, err)
	second, err := b.Generate(500)
	require.NoError(t, err)

	assert.Equal(t, first.Parameters, second.Parameters)
	assert.Equal(t, first.Effect, second.Effect)
	assert.Equal(t, first.Salt, second.Salt)
	assert.Equal(t, first.Tables, second.Tables)
}

func TestGenerate_RecordsSummary(t *testing.T) {
	svc, _ := newTestService(t)

	ds, err := svc.Generate(2000)
	require.NoError(t, err)

	run, err := svc.GetRun(ds.RunID)
	require.NoError(t, err)
	assert.Equal(t, ds.Parameters, run.Parameters)
	assert.Equal(t, ds.Effect, run.Effect)
	assert.Equal(t, ds.Salt, run.Salt)
	assert.Equal(t, 2000, run.ControlSize+run.TreatmentSize)

	converted := 0
	for _, tx := range ds.Tables.Transactions {
		if tx.Amount != nil {
			converted++
		}
	}
	assert.Equal(t, converted, run.ControlConversions+run.TreatmentConversions)

	runs, err := svc.ListRuns()
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestGenerateWith_PinnedEffect(t *testing.T) {
	svc, _ := newTestService(t, WithSource(seededSource(3)))

	ds, err := svc.GenerateWith(
		Parameters{PopulationSize: 40000, ControlRate: 0.5, TreatmentRate: 0.5},
		TreatmentEffect{Injected: true, Offset: EffectOffset},
	)
	require.NoError(t, err)

	group := map[UserID]Group{}
	for _, g := range ds.Tables.Groups {
		group[g.ID] = g.Group
	}
	var control, treatment []float64
	for _, tx := range ds.Tables.Transactions {
		if tx.Amount == nil {
			continue
		}
		if group[tx.ID] == GroupTreatment {
			treatment = append(treatment, *tx.Amount)
		} else {
			control = append(control, *tx.Amount)
		}
	}

	assert.InDelta(t, EffectOffset, mean(treatment)-mean(control), 200)
}

func TestGenerateWith_InvalidParameters(t *testing.T) {
	svc, storage := newTestService(t)
	effect := TreatmentEffect{Injected: true, Offset: EffectOffset}

	cases := []struct {
		name   string
		params Parameters
		effect TreatmentEffect
	}{
		{"rate above one", Parameters{PopulationSize: 10, ControlRate: 1.2, TreatmentRate: 0.3}, effect},
		{"zero size", Parameters{PopulationSize: 0, ControlRate: 0.3, TreatmentRate: 0.3}, effect},
		{"treatment below control", Parameters{PopulationSize: 10, ControlRate: 0.6, TreatmentRate: 0.1}, effect},
		{"treatment below control with change", Parameters{PopulationSize: 10, ControlRate: 0.6, TreatmentRate: 0.5, RateChanged: true}, effect},
		{"uplift too large", Parameters{PopulationSize: 10, ControlRate: 0.3, TreatmentRate: 0.45, RateChanged: true}, effect},
		{"uplift too small", Parameters{PopulationSize: 10, ControlRate: 0.3, TreatmentRate: 0.31, RateChanged: true}, effect},
		{"rate changed but equal", Parameters{PopulationSize: 10, ControlRate: 0.3, TreatmentRate: 0.3, RateChanged: true}, effect},
		{"lifted without rate change", Parameters{PopulationSize: 10, ControlRate: 0.3, TreatmentRate: 0.35}, effect},
		{"custom offset", Parameters{PopulationSize: 10, ControlRate: 0.3, TreatmentRate: 0.3}, TreatmentEffect{Injected: true, Offset: 7}},
		{"zero offset", Parameters{PopulationSize: 10, ControlRate: 0.3, TreatmentRate: 0.3}, TreatmentEffect{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ds, err := svc.GenerateWith(tc.params, tc.effect)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Nil(t, ds)
		})
	}

	runs, err := storage.GetAll()
	require.NoError(t, err)
	assert.Empty(t, runs, "rejected runs must not be recorded")
}

func TestGenerateWith_AcceptsBoundaryUplifts(t *testing.T) {
	svc, _ := newTestService(t)
	effect := TreatmentEffect{Offset: EffectOffset}

	for _, p := range []Parameters{
		{PopulationSize: 10, ControlRate: 0.35, TreatmentRate: 0.37, RateChanged: true},
		{PopulationSize: 10, ControlRate: 0.35, TreatmentRate: 0.45, RateChanged: true},
		{PopulationSize: 10, ControlRate: 0.6, TreatmentRate: 0.7, RateChanged: true},
		{PopulationSize: 10, ControlRate: 0.2, TreatmentRate: 0.2},
	} {
		_, err := svc.GenerateWith(p, effect)
		assert.NoError(t, err, "params %+v", p)
	}
}

func TestSampleParameters_PassValidation(t *testing.T) {
	rng := seededRand(21)
	for i := 0; i < 2000; i++ {
		p, err := SampleParameters(rng, 100)
		require.NoError(t, err)
		assert.NoError(t, validateParameters(p), "params %+v", p)
	}
}

func TestGenerateWithEffect_PinsEffectOnRunSource(t *testing.T) {
	a, _ := newTestService(t, WithSource(seededSource(17)))
	b, _ := newTestService(t, WithSource(seededSource(17)))

	on, err := a.GenerateWithEffect(300, TreatmentEffect{Injected: true, Offset: EffectOffset})
	require.NoError(t, err)
	assert.True(t, on.Effect.Injected)
	assert.NoError(t, validateParameters(on.Parameters))

	again, err := b.GenerateWithEffect(300, TreatmentEffect{Injected: true, Offset: EffectOffset})
	require.NoError(t, err)
	assert.Equal(t, on.Parameters, again.Parameters, "parameters must come from the injected source")
	assert.Equal(t, on.Tables, again.Tables)

	off, err := a.GenerateWithEffect(300, TreatmentEffect{Offset: EffectOffset})
	require.NoError(t, err)
	assert.False(t, off.Effect.Injected)
}

func TestGenerateWithEffect_Invalid(t *testing.T) {
	svc, _ := newTestService(t, WithMaxPopulationSize(100))

	_, err := svc.GenerateWithEffect(0, TreatmentEffect{Offset: EffectOffset})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.GenerateWithEffect(10, TreatmentEffect{Injected: true, Offset: 7})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.GenerateWithEffect(101, TreatmentEffect{Offset: EffectOffset})
	assert.ErrorIs(t, err, ErrResourceExhausted)
}

func TestGenerate_ConcurrentRequests(t *testing.T) {
	svc, storage := newTestService(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ds, err := svc.Generate(500)
			if assert.NoError(t, err) {
				assert.Len(t, ds.Tables.Transactions, 500)
			}
		}()
	}
	wg.Wait()

	runs, err := storage.GetAll()
	require.NoError(t, err)
	assert.Len(t, runs, 8)
}
