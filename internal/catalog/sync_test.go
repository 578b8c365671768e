package catalog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Watch(ctx context.Context) (<-chan Snapshot, error) {
	args := m.Called(ctx)
	ch, _ := args.Get(0).(chan Snapshot)
	return ch, args.Error(1)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func doc(key, data string) Document {
	return Document{Key: key, Data: []byte(data)}
}

func Test_Syncer_Apply(t *testing.T) {
	testCases := []struct {
		name         string
		initial      []Product
		snapshot     Snapshot
		expectNames  []string
		expectPrices []float64
	}{
		{
			name: "full replace",
			initial: []Product{
				{ID: ProductID("old"), Name: "Old"},
			},
			snapshot: Snapshot{Documents: []Document{
				doc("w", `{"name":"Widget","description":"A widget","price":9.99}`),
				doc("g", `{"name":"Gadget","description":"A gadget","price":5}`),
			}},
			expectNames:  []string{"Widget", "Gadget"},
			expectPrices: []float64{9.99, 5},
		},
		{
			name: "malformed documents are kept with defaults",
			snapshot: Snapshot{Documents: []Document{
				doc("w", `{"name":"Widget"}`),
				doc("x", `{"description":"nameless","price":1}`),
			}},
			expectNames:  []string{"Widget", ""},
			expectPrices: []float64{0, 1},
		},
		{
			name:         "empty snapshot empties the catalog",
			initial:      []Product{{ID: ProductID("old"), Name: "Old"}},
			snapshot:     Snapshot{},
			expectNames:  []string{},
			expectPrices: []float64{},
		},
		{
			name:         "failed snapshot keeps the catalog",
			initial:      []Product{{ID: ProductID("old"), Name: "Old", Price: 2}},
			snapshot:     Snapshot{Err: errors.New("connection lost")},
			expectNames:  []string{"Old"},
			expectPrices: []float64{2},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			c := New()
			c.Replace(tc.initial)
			syncer := NewSyncer(c, discard)

			// when
			syncer.Apply(context.Background(), tc.snapshot)

			// then
			products := c.All()
			names := make([]string, len(products))
			prices := make([]float64, len(products))
			for i, p := range products {
				names[i] = p.Name
				prices[i] = p.Price
			}
			assert.Equal(t, tc.expectNames, names)
			assert.InDeltaSlice(t, tc.expectPrices, prices, 1e-9)
		})
	}
}

func Test_Syncer_Apply_LogsDefaultedFields(t *testing.T) {
	// given
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	syncer := NewSyncer(New(), logger)

	// when
	syncer.Apply(context.Background(), Snapshot{Documents: []Document{doc("w", `{"name":"Widget"}`)}})

	// then
	assert.Contains(t, out.String(), `msg="Document decoded with defaults"`)
	assert.Contains(t, out.String(), `defaulted fields map[description:missing price:missing]`)
}

func Test_Syncer_Run_AppliesUntilSourceCloses(t *testing.T) {
	// given
	c := New()
	snapshots := make(chan Snapshot, 2)
	snapshots <- Snapshot{Documents: []Document{doc("a", `{"name":"A","description":"","price":1}`)}}
	snapshots <- Snapshot{Documents: []Document{doc("b", `{"name":"B","description":"","price":2}`)}}
	close(snapshots)
	source := new(mockSource)
	source.On("Watch", mock.Anything).Return(snapshots, nil).Once()

	// when
	err := NewSyncer(c, discard).Run(context.Background(), source)

	// then
	require.NoError(t, err)
	source.AssertExpectations(t)
	products := c.All()
	require.Len(t, products, 1)
	assert.Equal(t, "B", products[0].Name)
}

func Test_Syncer_Run_StopsOnCancel(t *testing.T) {
	// given
	c := New()
	source := new(mockSource)
	source.On("Watch", mock.Anything).Return(make(chan Snapshot), nil).Once()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	// when
	go func() { done <- NewSyncer(c, discard).Run(ctx, source) }()
	cancel()

	// then
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("syncer did not stop after cancel")
	}
}

func Test_Syncer_Run_WatchError(t *testing.T) {
	// given
	source := new(mockSource)
	watchErr := errors.New("bucket not found")
	source.On("Watch", mock.Anything).Return(nil, watchErr).Once()

	// when
	err := NewSyncer(New(), discard).Run(context.Background(), source)

	// then
	assert.ErrorIs(t, err, watchErr)
}
