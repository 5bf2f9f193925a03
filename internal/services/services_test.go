package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/agendametrics/apiserver/internal/auth"
	"github.com/agendametrics/apiserver/internal/store/memstore"
	"github.com/agendametrics/apiserver/types"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeVerifier struct {
	claims auth.FederatedClaims
	err    error
}

func (f fakeVerifier) Verify(context.Context, string) (auth.FederatedClaims, error) {
	return f.claims, f.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []types.RoutineEvent
	err    error
}

func (p *recordingPublisher) PublishRoutineEvent(_ context.Context, event types.RoutineEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) eventTypes() []types.RoutineEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.RoutineEventType, 0, len(p.events))
	for _, event := range p.events {
		out = append(out, event.Type)
	}
	return out
}

type recordingArchiver struct {
	archives []types.UserArchive
	err      error
}

func (a *recordingArchiver) ArchiveUser(_ context.Context, archive types.UserArchive) error {
	if a.err != nil {
		return a.err
	}
	a.archives = append(a.archives, archive)
	return nil
}

type fixture struct {
	store    *memstore.Store
	tokens   *auth.TokenIssuer
	events   *recordingPublisher
	archiver *recordingArchiver
	auth     *AuthService
	users    *UserService
	routines *RoutineService
}

func newFixture(t *testing.T, verifier FederatedVerifier) *fixture {
	t.Helper()

	tokens, err := auth.NewTokenIssuer("test-secret")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	s := memstore.New()
	events := &recordingPublisher{}
	archiver := &recordingArchiver{}
	if verifier == nil {
		verifier = fakeVerifier{err: auth.ErrInvalidFederatedToken}
	}

	return &fixture{
		store:    s,
		tokens:   tokens,
		events:   events,
		archiver: archiver,
		auth:     NewAuthService(s.Users, hasher, tokens, verifier, logger),
		users:    NewUserService(s.Users, s.Routines, hasher, archiver, events, logger),
		routines: NewRoutineService(s.Routines, events, logger),
	}
}

func (f *fixture) register(t *testing.T, username, email string) types.User {
	t.Helper()
	user, err := f.auth.RegisterUser(context.Background(), username, email, "password1")
	require.NoError(t, err)
	return user
}

func runInput() types.RoutineInput {
	return types.RoutineInput{
		Name:              "Run",
		Category:          types.CategoryExercise,
		Frequency:         types.Frequency{Type: types.FrequencyDaily},
		EstimatedDuration: 30,
	}
}

func ptr[T any](v T) *T {
	return &v
}

var errBroker = errors.New("broker unavailable")
