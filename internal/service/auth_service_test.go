package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"scms/internal/apperr"
	"scms/internal/auth"
	"scms/internal/model"
	"scms/internal/pubsub"
	"scms/internal/repository"
	"scms/internal/secrets"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []pubsub.Event
}

func (r *recordingEmitter) Emit(_ context.Context, e pubsub.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingEmitter) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type authFixture struct {
	svc    AuthService
	store  *repository.MemoryStore
	codec  *auth.TokenCodec
	events *recordingEmitter
	secret string
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{store: repository.NewMemoryStore(), events: &recordingEmitter{}, secret: "first-secret"}
	f.codec = auth.NewTokenCodec(func(context.Context) ([]byte, error) {
		if f.secret == "" {
			return nil, secrets.ErrNotConfigured
		}
		return []byte(f.secret), nil
	})
	f.svc = NewAuthService(f.store, auth.NewBcryptHasher(bcrypt.MinCost), f.codec, f.events)
	return f
}

func TestRegisterThenLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, RegisterInput{Name: " Ada ", Email: " Ada@Example.com ", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", reg.Student.Name)
	assert.Equal(t, "ada@example.com", reg.Student.Email)
	assert.NotEqual(t, "s3cret", reg.Student.PasswordHash)

	login, err := f.svc.Login(ctx, LoginInput{Email: "ADA@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, reg.Student.ID, login.Student.ID)
	assert.Equal(t, "Ada", login.Student.Name)
	assert.Empty(t, login.Student.PasswordHash)

	for _, token := range []string{reg.Token, login.Token} {
		id, err := f.codec.Verify(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, reg.Student.ID, id)
	}
	assert.Equal(t, []string{pubsub.StudentRegistered, pubsub.StudentLoggedIn}, f.events.types())
}

func TestRegisterMissingFields(t *testing.T) {
	f := newAuthFixture(t)
	cases := []RegisterInput{
		{Email: "a@b.com", Password: "pw"},
		{Name: "A", Password: "pw"},
		{Name: "A", Email: "a@b.com"},
		{Name: "   ", Email: "a@b.com", Password: "pw"},
	}
	for _, in := range cases {
		_, err := f.svc.Register(context.Background(), in)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperr.E(apperr.MissingFields)))
		assert.Equal(t, "Please provide name, email, and password", apperr.PublicMessage(err))
	}
}

func TestRegisterDuplicateEmailIgnoresCase(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, RegisterInput{Name: "A", Email: "A@B.com", Password: "pw"})
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, RegisterInput{Name: "B", Email: "a@b.com", Password: "pw2"})
	require.Error(t, err)
	assert.Equal(t, apperr.DuplicateEmail, apperr.KindOf(err))
	assert.Equal(t, "Email already registered", apperr.PublicMessage(err))
}

// raceStore hides the existing row from the pre-insert lookup, as a concurrent
// registration would.
type raceStore struct {
	*repository.MemoryStore
}

func (raceStore) GetStudentByEmail(context.Context, string) (*model.Student, error) {
	return nil, nil
}

func TestRegisterUniqueViolationIsDuplicateEmail(t *testing.T) {
	store := repository.NewMemoryStore()
	require.NoError(t, store.CreateStudent(context.Background(), &model.Student{Name: "A", Email: "a@b.com", PasswordHash: "x"}))

	codec := auth.NewTokenCodec(func(context.Context) ([]byte, error) { return []byte("k"), nil })
	svc := NewAuthService(raceStore{store}, auth.NewBcryptHasher(bcrypt.MinCost), codec, nil)

	_, err := svc.Register(context.Background(), RegisterInput{Name: "B", Email: "a@b.com", Password: "pw"})
	assert.Equal(t, apperr.DuplicateEmail, apperr.KindOf(err))
	assert.Equal(t, "email_unique_violation", apperr.ReasonOf(err))
}

func TestRegisterPasswordTooLong(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), RegisterInput{Name: "A", Email: "a@b.com", Password: strings.Repeat("x", 73)})
	assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))
}

func TestRegisterWithoutSecret(t *testing.T) {
	f := newAuthFixture(t)
	f.secret = ""

	_, err := f.svc.Register(context.Background(), RegisterInput{Name: "A", Email: "a@b.com", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, apperr.Configuration, apperr.KindOf(err))
	assert.Equal(t, 500, apperr.Status(err))
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, RegisterInput{Name: "A", Email: "a@b.com", Password: "right"})
	require.NoError(t, err)

	_, wrongPassword := f.svc.Login(ctx, LoginInput{Email: "a@b.com", Password: "wrong"})
	_, unknownEmail := f.svc.Login(ctx, LoginInput{Email: "ghost@b.com", Password: "right"})

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, 401, apperr.Status(wrongPassword))
	assert.Equal(t, apperr.Status(wrongPassword), apperr.Status(unknownEmail))
	assert.Equal(t, apperr.PublicMessage(wrongPassword), apperr.PublicMessage(unknownEmail))
	assert.Equal(t, "password_mismatch", apperr.ReasonOf(wrongPassword))
	assert.Equal(t, "unknown_email", apperr.ReasonOf(unknownEmail))
}

func TestLoginMissingFields(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Login(context.Background(), LoginInput{Email: "a@b.com"})
	assert.Equal(t, apperr.MissingFields, apperr.KindOf(err))
	assert.Equal(t, "Please provide email and password", apperr.PublicMessage(err))
}

func TestAuthenticate(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, RegisterInput{Name: "A", Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	student, err := f.svc.Authenticate(ctx, reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.Student.ID, student.ID)
	assert.Empty(t, student.PasswordHash)
}

func TestAuthenticateAfterSecretChange(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, RegisterInput{Name: "A", Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	f.secret = "rotated-secret"
	_, err = f.svc.Authenticate(ctx, reg.Token)
	assert.Equal(t, apperr.InvalidToken, apperr.KindOf(err))
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestAuthenticateUnknownStudent(t *testing.T) {
	f := newAuthFixture(t)
	token, err := f.codec.Issue(context.Background(), "missing-student")
	require.NoError(t, err)

	_, err = f.svc.Authenticate(context.Background(), token)
	assert.Equal(t, apperr.PrincipalNotFound, apperr.KindOf(err))
	assert.Equal(t, "Not authorized, student not found", apperr.PublicMessage(err))
}

type stalledPublisher struct{}

func (stalledPublisher) Publish(ctx context.Context, _ []byte) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestRegisterDoesNotWaitOnStalledEvents(t *testing.T) {
	codec := auth.NewTokenCodec(func(context.Context) ([]byte, error) { return []byte("k"), nil })
	events := pubsub.NewPublisherEmitter(stalledPublisher{}, zerolog.Nop()).WithPublishTimeout(50 * time.Millisecond)
	svc := NewAuthService(repository.NewMemoryStore(), auth.NewBcryptHasher(bcrypt.MinCost), codec, events)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	start := time.Now()
	_, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)
	_, err = svc.Login(ctx, LoginInput{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

type countingHasher struct {
	*auth.BcryptHasher
	mu       sync.Mutex
	hashes   int
	verified []string
}

func (h *countingHasher) Hash(plaintext string) (string, error) {
	h.mu.Lock()
	h.hashes++
	h.mu.Unlock()
	return h.BcryptHasher.Hash(plaintext)
}

func (h *countingHasher) Verify(plaintext, digest string) bool {
	h.mu.Lock()
	h.verified = append(h.verified, digest)
	h.mu.Unlock()
	return h.BcryptHasher.Verify(plaintext, digest)
}

func TestUnknownEmailComparesAgainstPrecomputedDigest(t *testing.T) {
	hasher := &countingHasher{BcryptHasher: auth.NewBcryptHasher(bcrypt.MinCost)}
	codec := auth.NewTokenCodec(func(context.Context) ([]byte, error) { return []byte("k"), nil })
	svc := NewAuthService(repository.NewMemoryStore(), hasher, codec, nil)
	require.Equal(t, 1, hasher.hashes)

	for range 2 {
		_, err := svc.Login(context.Background(), LoginInput{Email: "ghost@b.com", Password: "pw"})
		assert.Equal(t, "unknown_email", apperr.ReasonOf(err))
	}

	assert.Equal(t, 1, hasher.hashes)
	require.Len(t, hasher.verified, 2)
	assert.NotEmpty(t, hasher.verified[0])
	assert.Equal(t, hasher.verified[0], hasher.verified[1])
}
