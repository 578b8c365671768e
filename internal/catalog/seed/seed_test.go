package seed

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/abgdnv/shopcart/internal/catalog"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func Test_Read(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expectKeys  []string
		expectError bool
	}{
		{
			name:       "documents sorted by key",
			input:      `{"widget":{"name":"Widget","price":9.99},"gadget":{"name":"Gadget","price":5}}`,
			expectKeys: []string{"gadget", "widget"},
		},
		{
			name:       "malformed bodies kept",
			input:      `{"odd":[1,2,3],"blank":{}}`,
			expectKeys: []string{"blank", "odd"},
		},
		{
			name:       "empty object",
			input:      `{}`,
			expectKeys: []string{},
		},
		{
			name:        "not an object",
			input:       `[{"name":"Widget"}]`,
			expectError: true,
		},
		{
			name:        "empty key",
			input:       `{"":{"name":"Nameless"}}`,
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			docs, err := Read(strings.NewReader(tc.input))

			// then
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			keys := make([]string, len(docs))
			for i, d := range docs {
				keys[i] = d.Key
			}
			assert.Equal(t, tc.expectKeys, keys)
		})
	}
}

func Test_Read_KeepsBodyVerbatim(t *testing.T) {
	docs, err := Read(strings.NewReader(`{"odd":[1,2,3]}`))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, `[1,2,3]`, string(docs[0].Data))
}

type mockKeyValue struct {
	mock.Mock
}

func (m *mockKeyValue) Put(ctx context.Context, key string, value []byte) (uint64, error) {
	args := m.Called(ctx, key, value)
	return args.Get(0).(uint64), args.Error(1)
}

var docs = []catalog.Document{
	{Key: "gadget", Data: []byte(`{"name":"Gadget"}`)},
	{Key: "widget", Data: []byte(`{"name":"Widget"}`)},
}

func Test_ToKeyValue(t *testing.T) {
	// given
	ctx := context.Background()
	kv := new(mockKeyValue)
	kv.On("Put", ctx, "gadget", []byte(`{"name":"Gadget"}`)).Return(uint64(1), nil).Once()
	kv.On("Put", ctx, "widget", []byte(`{"name":"Widget"}`)).Return(uint64(2), nil).Once()

	// when
	err := ToKeyValue(ctx, kv, docs)

	// then
	require.NoError(t, err)
	kv.AssertExpectations(t)
}

func Test_ToKeyValue_StopsOnError(t *testing.T) {
	// given
	ctx := context.Background()
	kv := new(mockKeyValue)
	putErr := errors.New("no responders")
	kv.On("Put", ctx, "gadget", mock.Anything).Return(uint64(0), putErr).Once()

	// when
	err := ToKeyValue(ctx, kv, docs)

	// then
	assert.ErrorIs(t, err, putErr)
	kv.AssertNumberOfCalls(t, "Put", 1)
}

func Test_ToTable(t *testing.T) {
	// given
	db, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer db.Close()
	for _, d := range docs {
		db.ExpectExec(regexp.QuoteMeta(upsertDocument)).
			WithArgs("Items", d.Key, d.Data).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	// when
	err = ToTable(context.Background(), db, "Items", docs)

	// then
	require.NoError(t, err)
	assert.NoError(t, db.ExpectationsWereMet())
}

func Test_ToTable_Error(t *testing.T) {
	// given
	db, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer db.Close()
	execErr := errors.New("relation \"catalog_documents\" does not exist")
	db.ExpectExec(regexp.QuoteMeta(upsertDocument)).WillReturnError(execErr)

	// when
	err = ToTable(context.Background(), db, "Items", docs)

	// then
	assert.ErrorIs(t, err, execErr)
}
