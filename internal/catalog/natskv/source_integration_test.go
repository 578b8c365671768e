package natskv

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/abgdnv/shopcart/internal/catalog"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/nats"
)

// skipIntegrationTests is the environment variable that controls whether to skip integration tests.
const skipIntegrationTests = "SHOPCART_SKIP_INTEGRATION_TESTS"
const natsImg = "nats:2.11.6-alpine"

// SourceSuite runs the kv source against a real JetStream server.
type SourceSuite struct {
	suite.Suite
	ctx           context.Context
	logger        *slog.Logger
	natsContainer *nats.NATSContainer
	nc            *natsgo.Conn
	js            jetstream.JetStream
}

func (s *SourceSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var err error
	s.natsContainer, err = nats.Run(s.ctx, natsImg)
	require.NoError(s.T(), err, "Failed to run NATS container")

	natsURL, err := s.natsContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err, "Failed to get NATS connection string")
	s.nc, err = natsgo.Connect(natsURL)
	require.NoError(s.T(), err, "Failed to connect to NATS")

	s.js, err = jetstream.New(s.nc)
	require.NoError(s.T(), err, "Failed to create JetStream context")
}

func (s *SourceSuite) TearDownSuite() {
	s.nc.Close()
	if err := testcontainers.TerminateContainer(s.natsContainer); err != nil {
		s.logger.Error("Failed to terminate NATS container", "error", err)
	}
}

func TestSourceIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(SourceSuite))
}

func (s *SourceSuite) TestCatalogFollowsBucket() {
	// given
	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()
	kv, err := s.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{Bucket: "Items"})
	s.Require().NoError(err)
	_, err = kv.Put(ctx, "widget", []byte(`{"name":"Widget","description":"A widget","price":9.99}`))
	s.Require().NoError(err)

	c := catalog.New()
	syncer := catalog.NewSyncer(c, s.logger)
	go func() { _ = syncer.Run(ctx, NewSource(s.js, "Items", s.logger)) }()

	// then the existing document is mirrored
	s.Require().Eventually(func() bool { return c.Len() == 1 }, 10*time.Second, 50*time.Millisecond)

	// when a malformed document is added
	_, err = kv.Put(ctx, "gadget", []byte(`{"description":"no name, no price"}`))
	s.Require().NoError(err)

	// then it is decoded with defaults
	s.Require().Eventually(func() bool { return c.Len() == 2 }, 10*time.Second, 50*time.Millisecond)
	product, err := c.FindByID(catalog.ProductID("gadget"))
	s.Require().NoError(err)
	s.Equal("", product.Name)
	s.Equal(0.0, product.Price)

	// when a document is removed
	s.Require().NoError(kv.Delete(ctx, "widget"))

	// then
	s.Require().Eventually(func() bool { return c.Len() == 1 }, 10*time.Second, 50*time.Millisecond)
	s.Equal("no name, no price", c.All()[0].Description)
}

func (s *SourceSuite) TestMissingBucket() {
	_, err := NewSource(s.js, "DoesNotExist", s.logger).Watch(s.ctx)
	s.Error(err)
}
