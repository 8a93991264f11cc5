package seeder

import (
	"context"
	"fmt"
	"log/slog"

	"doceo/internal/ledger/models"
	id "doceo/pkg/domain"
	"doceo/pkg/platform/middleware/requesttick"
)

// Ledger defines the write operations used for seeding. All writes go through
// the real service so fees, counts and events behave exactly as they would
// for live traffic.
type Ledger interface {
	StoreCredential(ctx context.Context, caller id.Principal, hash id.DocumentHash, title, description, metadataURI string) (*models.Credential, error)
	VerifyCredential(ctx context.Context, caller id.Principal, hash id.DocumentHash) (*models.Credential, error)
	AddVerifier(ctx context.Context, caller, principal id.Principal) (*models.VerifierEntry, error)
}

// Bank defines methods for seeding tutor balances.
type Bank interface {
	Credit(account id.Principal, amount id.Amount)
}

// demoBalance covers several storage fees at the default rate.
const demoBalance = id.Amount(10_000_000)

// Seeder populates in-memory backends with demo data.
type Seeder struct {
	ledger Ledger
	bank   Bank
	admin  id.Principal
	ticks  requesttick.Source
	logger *slog.Logger
}

// New creates a new seeder
func New(ledger Ledger, bank Bank, admin id.Principal, ticks requesttick.Source, logger *slog.Logger) *Seeder {
	return &Seeder{
		ledger: ledger,
		bank:   bank,
		admin:  admin,
		ticks:  ticks,
		logger: logger,
	}
}

// SeedAll populates the ledger with demo data. The whole batch is stamped
// with a single tick, like one request would be.
func (s *Seeder) SeedAll(ctx context.Context) error {
	s.logger.Info("seeding demo data...")

	ctx = requesttick.WithTick(ctx, s.ticks.Current())

	tutors, err := s.seedTutors()
	if err != nil {
		return fmt.Errorf("failed to seed tutors: %w", err)
	}

	verifiers, err := s.seedVerifiers(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed verifiers: %w", err)
	}

	credentials, err := s.seedCredentials(ctx, tutors)
	if err != nil {
		return fmt.Errorf("failed to seed credentials: %w", err)
	}

	if err := s.verifySeeded(ctx, verifiers, credentials); err != nil {
		return fmt.Errorf("failed to verify seeded credentials: %w", err)
	}

	s.logger.Info("demo data seeded successfully",
		"tutors", len(tutors),
		"verifiers", len(verifiers),
		"credentials", len(credentials),
	)

	return nil
}

func (s *Seeder) seedTutors() ([]id.Principal, error) {
	names := []string{
		"tutor-alice",
		"tutor-bob",
		"tutor-chen",
		"tutor-diana",
		"tutor-emeka",
	}

	var tutors []id.Principal
	for _, name := range names {
		tutor, err := id.ParsePrincipal(name)
		if err != nil {
			return nil, err
		}

		s.bank.Credit(tutor, demoBalance)
		tutors = append(tutors, tutor)
	}

	return tutors, nil
}

func (s *Seeder) seedVerifiers(ctx context.Context) ([]id.Principal, error) {
	names := []string{
		"verifier-certcheck",
		"verifier-eduproof",
	}

	var verifiers []id.Principal
	for _, name := range names {
		verifier, err := id.ParsePrincipal(name)
		if err != nil {
			return nil, err
		}

		if _, err := s.ledger.AddVerifier(ctx, s.admin, verifier); err != nil {
			return nil, err
		}

		verifiers = append(verifiers, verifier)
	}

	return verifiers, nil
}

func (s *Seeder) seedCredentials(ctx context.Context, tutors []id.Principal) ([]*models.Credential, error) {
	demoCredentials := []struct {
		tutorIdx    int
		title       string
		description string
		metadataURI string
	}{
		{0, "TEFL Certificate", "120-hour TEFL course, Cambridge accredited", "https://docs.doceo.dev/demo/tefl-alice.pdf"},
		{0, "BSc Mathematics", "First class honours, University of Leeds", ""},
		{1, "Enhanced DBS Check", "Enhanced disclosure, issued March 2025", "https://docs.doceo.dev/demo/dbs-bob.pdf"},
		{1, "PGCE Secondary Science", "Qualified teacher status, physics specialism", ""},
		{2, "HSK Level 6", "Mandarin proficiency, Hanban certificate", ""},
		{3, "DELF B2", "French language diploma", "https://docs.doceo.dev/demo/delf-diana.pdf"},
		{3, "First Aid at Work", "Three-day course, valid to 2027", ""},
		{4, "MSc Computer Science", "Distinction, University of Lagos", ""},
	}

	var credentials []*models.Credential
	for _, c := range demoCredentials {
		if c.tutorIdx >= len(tutors) {
			continue
		}
		tutor := tutors[c.tutorIdx]

		// Demo documents have no real bytes; hashing the owner and title
		// gives stable addresses across restarts.
		hash := id.HashDocument([]byte(tutor.String() + "/" + c.title))

		credential, err := s.ledger.StoreCredential(ctx, tutor, hash, c.title, c.description, c.metadataURI)
		if err != nil {
			return nil, err
		}

		credentials = append(credentials, credential)
	}

	return credentials, nil
}

func (s *Seeder) verifySeeded(ctx context.Context, verifiers []id.Principal, credentials []*models.Credential) error {
	// Verify every other credential, alternating verifiers, so demo reads
	// show a mix of verified and pending documents.
	for i, credential := range credentials {
		if i%2 != 0 {
			continue
		}

		verifier := s.admin
		if len(verifiers) > 0 {
			verifier = verifiers[(i/2)%len(verifiers)]
		}

		if _, err := s.ledger.VerifyCredential(ctx, verifier, credential.Hash); err != nil {
			return err
		}
	}

	return nil
}
