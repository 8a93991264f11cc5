//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	ledgerevents "doceo/contracts/ledger"
	"doceo/internal/ledger/models"
	"doceo/internal/ledger/store"
	"doceo/internal/sentinel"
	id "doceo/pkg/domain"
	"doceo/pkg/testutil"
	"doceo/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.Postgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.ResetLedger(ctx))

	// Events need a config row for the sequence counter.
	s.Require().NoError(s.store.PutConfig(ctx, &models.Config{
		Admin:        "admin",
		StorageFee:   500000,
		ExpiryWindow: 52560,
		MaxDocuments: 10,
	}))
}

func (s *PostgresStoreSuite) seedCredential(ctx context.Context, seed byte) *models.Credential {
	var hash id.DocumentHash
	for i := range hash {
		hash[i] = seed
	}
	credential := &models.Credential{
		Hash:         hash,
		Tutor:        "tutor-1",
		Title:        "TEFL Certificate",
		Description:  "120-hour course",
		MetadataURI:  "ipfs://QmExample",
		RegisteredAt: 100,
		Expiry:       100 + 52560,
	}
	s.Require().NoError(s.store.InsertCredential(ctx, credential))
	return credential
}

func (s *PostgresStoreSuite) TestCredentialRoundTrip() {
	ctx := context.Background()
	credential := s.seedCredential(ctx, 0xAB)

	fetched, err := s.store.GetCredential(ctx, credential.Hash)
	s.Require().NoError(err)
	s.Equal(credential.Tutor, fetched.Tutor)
	s.Equal(credential.Title, fetched.Title)
	s.Equal(credential.Description, fetched.Description)
	s.Equal(credential.MetadataURI, fetched.MetadataURI)
	s.Equal(credential.RegisteredAt, fetched.RegisteredAt)
	s.Equal(credential.Expiry, fetched.Expiry)
	s.False(fetched.Verified)
	s.True(fetched.Verifier.IsNil())
	s.Equal(uint64(0), fetched.RenewalCount)
}

func (s *PostgresStoreSuite) TestDuplicateInsertRejected() {
	ctx := context.Background()
	credential := s.seedCredential(ctx, 0xAB)

	err := s.store.InsertCredential(ctx, credential)
	s.Require().ErrorIs(err, sentinel.ErrAlreadyExists)
}

func (s *PostgresStoreSuite) TestUpdatePersistsMutableFields() {
	ctx := context.Background()
	credential := s.seedCredential(ctx, 0xAB)

	credential.MarkVerified("verifier-1")
	credential.Renew(200, 52560)
	s.Require().NoError(s.store.UpdateCredential(ctx, credential))

	fetched, err := s.store.GetCredential(ctx, credential.Hash)
	s.Require().NoError(err)
	s.True(fetched.Verified)
	s.Equal(id.Principal("verifier-1"), fetched.Verifier)
	s.Equal(id.Tick(200+52560), fetched.Expiry)
	s.Equal(uint64(1), fetched.RenewalCount)

	missing := &models.Credential{Hash: id.HashDocument([]byte("missing"))}
	s.Require().ErrorIs(s.store.UpdateCredential(ctx, missing), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestCredentialCountUpsert() {
	ctx := context.Background()

	count, err := s.store.CredentialCount(ctx, "tutor-9")
	s.Require().NoError(err)
	s.Equal(uint64(0), count)

	for want := uint64(1); want <= 3; want++ {
		count, err = s.store.IncrementCredentialCount(ctx, "tutor-9")
		s.Require().NoError(err)
		s.Equal(want, count)
	}

	count, err = s.store.CredentialCount(ctx, "tutor-9")
	s.Require().NoError(err)
	s.Equal(uint64(3), count)
}

func (s *PostgresStoreSuite) TestVerifierUpsert() {
	ctx := context.Background()

	_, err := s.store.GetVerifier(ctx, "verifier-1")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.PutVerifier(ctx, &models.VerifierEntry{Principal: "verifier-1", Active: true, AddedAt: 10}))
	s.Require().NoError(s.store.PutVerifier(ctx, &models.VerifierEntry{Principal: "verifier-1", Active: false, AddedAt: 20}))

	entry, err := s.store.GetVerifier(ctx, "verifier-1")
	s.Require().NoError(err)
	s.False(entry.Active)
	s.Equal(id.Tick(20), entry.AddedAt)
}

func (s *PostgresStoreSuite) TestConfigUpdateKeepsEventSequence() {
	ctx := context.Background()

	_, err := s.store.AppendEvent(ctx, ledgerevents.EventCredentialStored, "tutor-1:aa", 100)
	s.Require().NoError(err)

	config, err := s.store.GetConfig(ctx)
	s.Require().NoError(err)
	config.Paused = true
	s.Require().NoError(s.store.PutConfig(ctx, config))

	// Sequence continues after config overwrite.
	event, err := s.store.AppendEvent(ctx, ledgerevents.EventCredentialVerified, "tutor-1:aa", 110)
	s.Require().NoError(err)
	s.Equal(uint64(2), event.ID)

	fetched, err := s.store.GetConfig(ctx)
	s.Require().NoError(err)
	s.True(fetched.Paused)
}

func (s *PostgresStoreSuite) TestEventSequenceIsGapless() {
	ctx := context.Background()

	result := testutil.RunConcurrent(20, func(_ int) error {
		_, err := s.store.AppendEvent(ctx, ledgerevents.EventCredentialStored, "tutor:hash", 1)
		return err
	})
	s.Require().Equal(int32(20), result.Successes)

	events, err := s.store.ListEvents(ctx, 0, 0)
	s.Require().NoError(err)
	s.Require().Len(events, 20)
	for i, event := range events {
		s.Equal(uint64(i+1), event.ID)
	}
}

func (s *PostgresStoreSuite) TestPublishLifecycle() {
	ctx := context.Background()

	first, err := s.store.AppendEvent(ctx, ledgerevents.EventCredentialStored, "tutor-1:aa", 100)
	s.Require().NoError(err)
	_, err = s.store.AppendEvent(ctx, ledgerevents.EventCredentialVerified, "tutor-1:aa", 110)
	s.Require().NoError(err)

	pending, err := s.store.CountPending(ctx)
	s.Require().NoError(err)
	s.Equal(2, pending)

	unpublished, err := s.store.FetchUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(unpublished, 2)
	s.Equal(first.ID, unpublished[0].ID)

	s.Require().NoError(s.store.MarkPublished(ctx, first.ID, time.Now()))

	// Marking twice reports not found: the row is already claimed.
	s.Require().ErrorIs(s.store.MarkPublished(ctx, first.ID, time.Now()), sentinel.ErrNotFound)

	unpublished, err = s.store.FetchUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(unpublished, 1)

	events, err := s.store.ListEvents(ctx, 0, 0)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.NotNil(events[0].PublishedAt)
	s.Nil(events[1].PublishedAt)
}

func (s *PostgresStoreSuite) TestAppendEventWithoutConfigFails() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.ResetLedger(ctx))

	_, err := s.store.AppendEvent(ctx, ledgerevents.EventCredentialStored, "tutor:hash", 1)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
