package facade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/allergozyme/internal/buildinfo"
	"github.com/dmitrijs2005/allergozyme/internal/client/adapter"
	"github.com/dmitrijs2005/allergozyme/internal/client/client"
	"github.com/dmitrijs2005/allergozyme/internal/client/config"
	"github.com/dmitrijs2005/allergozyme/internal/client/models"
	"github.com/dmitrijs2005/allergozyme/internal/client/store"
	"github.com/dmitrijs2005/allergozyme/internal/common"
	"github.com/dmitrijs2005/allergozyme/internal/events"
	"github.com/dmitrijs2005/allergozyme/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabasePath = ":memory:"
	cfg.OutboxInterval = config.Duration{Duration: time.Hour}
	cfg.OutboxBackoff = config.Duration{Duration: time.Millisecond}
	cfg.OutboxMaxAttempts = 2
	return cfg
}

func remoteConfig() *config.Config {
	cfg := testConfig()
	cfg.Backend = config.BackendRemote
	cfg.RemoteDSN = "postgres://localhost/allergozyme"
	cfg.JWTSecret = "secret"
	return cfg
}

func dialStub(svc client.Service) Dialer {
	return func(context.Context, *config.Config, logging.Logger) (client.Service, error) {
		return svc, nil
	}
}

func newFacade(t *testing.T, opts Options) *Facade {
	t.Helper()
	f, err := New(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func signUp(t *testing.T, f *Facade, email, first string) *models.PublicUser {
	t.Helper()
	u, err := f.Auth().CreateUser(context.Background(), models.NewUser{
		Email:    email,
		Password: "secret1",
		Profile:  models.Profile{Firstname: first},
	})
	require.NoError(t, err)
	return u
}

func addReview(t *testing.T, f *Facade, name string, note float64) *models.Review {
	t.Helper()
	r, err := f.Reviews().AddReview(context.Background(), models.NewReview{
		Name: name, Category: "restaurant", Note: note, Address: name + ", Paris",
		Lat: models.CoordinateOf(48.85), Lng: models.CoordinateOf(2.35),
	})
	require.NoError(t, err)
	return r
}

func TestNew_LocalByDefault(t *testing.T) {
	pub := &fakePublisher{}
	var readyVersion string
	f := newFacade(t, Options{
		Config:    testConfig(),
		Publisher: pub,
		OnReady:   func(v string) { readyVersion = v },
	})

	assert.Equal(t, ModeLocal, f.Mode())
	assert.Nil(t, f.Editor())
	assert.Nil(t, f.Outbox())
	assert.Nil(t, f.Backup())
	assert.IsType(t, &store.SQLiteStore{}, f.Store())
	assert.NotNil(t, f.Geocoder())
	assert.NotNil(t, f.Transfer())
	assert.Equal(t, buildinfo.Version, readyVersion)
	assert.Equal(t, []string{events.Ready}, pub.Names())
	assert.Equal(t, map[string]string{"version": buildinfo.Version}, pub.events[0].payload)

	v, err := f.WaitReady(context.Background())
	require.NoError(t, err)
	assert.Equal(t, buildinfo.Version, v)

	select {
	case <-f.Ready():
	default:
		t.Fatal("ready channel not closed")
	}
}

func TestNew_NilConfigUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	f := newFacade(t, Options{})
	assert.Equal(t, ModeLocal, f.Mode())
	assert.Equal(t, buildinfo.Version, f.Version())
}

func TestNew_RemoteFallsBackToLocal(t *testing.T) {
	tests := []struct {
		name string
		cfg  func() *config.Config
		dial Dialer
	}{
		{
			name: "no dialer",
			cfg:  remoteConfig,
		},
		{
			name: "missing secret",
			cfg: func() *config.Config {
				c := remoteConfig()
				c.JWTSecret = ""
				return c
			},
			dial: dialStub(newStubService()),
		},
		{
			name: "dial error",
			cfg:  remoteConfig,
			dial: func(context.Context, *config.Config, logging.Logger) (client.Service, error) {
				return nil, errors.New("connection refused")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFacade(t, Options{Config: tt.cfg(), DialRemote: tt.dial, Publisher: &fakePublisher{}})
			assert.Equal(t, ModeLocal, f.Mode())
			assert.Nil(t, f.Editor())
		})
	}
}

func TestNew_Remote(t *testing.T) {
	svc := newStubService()
	f := newFacade(t, Options{Config: remoteConfig(), DialRemote: dialStub(svc), Publisher: &fakePublisher{}})

	assert.Equal(t, ModeRemote, f.Mode())
	assert.NotNil(t, f.Editor())
	assert.NotNil(t, f.Outbox())
	assert.IsType(t, &adapter.ReconcilingStore{}, f.Store())

	require.NoError(t, f.Close())
	assert.True(t, svc.closed)
}

func TestNew_PublishFailureDoesNotBlockReady(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	f := newFacade(t, Options{Config: testConfig(), Publisher: pub})

	_, err := f.WaitReady(context.Background())
	require.NoError(t, err)
}

func TestReviews_AddPublishes(t *testing.T) {
	pub := &fakePublisher{}
	f := newFacade(t, Options{Config: testConfig(), Publisher: pub})
	signUp(t, f, "ana@example.com", "Ana")

	r := addReview(t, f, "Chez Ana", 5)

	assert.Equal(t, []string{events.Ready, events.ReviewAdded}, pub.Names())
	assert.Equal(t, r, pub.events[1].payload)
}

func TestReviews_AddFailureNotPublished(t *testing.T) {
	pub := &fakePublisher{}
	f := newFacade(t, Options{Config: testConfig(), Publisher: pub})

	_, err := f.Reviews().AddReview(context.Background(), models.NewReview{Name: "x", Note: 3})
	require.Error(t, err)
	assert.Equal(t, []string{events.Ready}, pub.Names())
}

func TestUpdateReview_Local(t *testing.T) {
	pub := &fakePublisher{}
	f := newFacade(t, Options{Config: testConfig(), Publisher: pub})
	ctx := context.Background()
	signUp(t, f, "ana@example.com", "Ana")
	r := addReview(t, f, "Chez Ana", 5)

	note := 2.0
	got, err := f.UpdateReview(ctx, r.ID, models.ReviewPatch{Note: &note})
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.Note)
	assert.Equal(t, "Chez Ana", got.Name)

	all, err := f.Reviews().GetReviews(ctx, models.ReviewFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 2.0, all[0].Note)

	assert.Equal(t, []string{events.Ready, events.ReviewAdded, events.ReviewUpdated}, pub.Names())
	up := pub.events[2].payload.(updatedPayload)
	assert.Equal(t, r.ID, up.ID)
	require.NotNil(t, up.Patch.Note)
	assert.Equal(t, 2.0, *up.Patch.Note)
}

func TestDeleteReview_Local(t *testing.T) {
	pub := &fakePublisher{}
	f := newFacade(t, Options{Config: testConfig(), Publisher: pub})
	ctx := context.Background()
	signUp(t, f, "ana@example.com", "Ana")
	keep := addReview(t, f, "Chez Ana", 5)
	drop := addReview(t, f, "Le Snack", 1)

	require.NoError(t, f.DeleteReview(ctx, drop.ID))

	all, err := f.Reviews().GetReviews(ctx, models.ReviewFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, keep.ID, all[0].ID)
	assert.Equal(t, deletedPayload{ID: drop.ID}, pub.events[len(pub.events)-1].payload)
}

func TestEditReviews_OwnerCheck(t *testing.T) {
	f := newFacade(t, Options{Config: testConfig(), Publisher: &fakePublisher{}})
	ctx := context.Background()
	signUp(t, f, "ana@example.com", "Ana")
	r := addReview(t, f, "Chez Ana", 5)

	require.NoError(t, f.Auth().SignOut(ctx))
	err := f.DeleteReview(ctx, r.ID)
	assert.ErrorIs(t, err, common.ErrAuth)

	signUp(t, f, "bob@example.com", "Bob")
	err = f.DeleteReview(ctx, r.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.EqualError(t, err, "review not found")

	err = f.DeleteReview(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	all, err := f.Reviews().GetReviews(ctx, models.ReviewFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEditReviews_FnErrorLeavesStore(t *testing.T) {
	f := newFacade(t, Options{Config: testConfig(), Publisher: &fakePublisher{}})
	ctx := context.Background()
	signUp(t, f, "ana@example.com", "Ana")
	addReview(t, f, "Chez Ana", 5)

	boom := errors.New("boom")
	err := f.EditReviews(ctx, func([]models.Review) ([]models.Review, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	all, err := f.Reviews().GetReviews(ctx, models.ReviewFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDeleteReview_RemoteReconciles(t *testing.T) {
	svc := newStubService()
	pub := &fakePublisher{}
	f := newFacade(t, Options{Config: remoteConfig(), DialRemote: dialStub(svc), Publisher: pub})
	ctx := context.Background()
	signUp(t, f, "ana@example.com", "Ana")
	r := addReview(t, f, "Chez Ana", 5)

	require.NoError(t, f.DeleteReview(ctx, r.ID))

	// удаление уходит в сервис через outbox
	require.Eventually(t, func() bool {
		return len(svc.Deleted()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{r.ID}, svc.Deleted())

	rows, err := svc.ListReviews(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Contains(t, pub.Names(), events.ReviewDeleted)
}

func TestWaitReady_ContextDone(t *testing.T) {
	f := &Facade{ready: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.WaitReady(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
