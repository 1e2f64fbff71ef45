// Package facade is the single entry point pages (CLI commands) use. New
// selects the local or the remote backend once, wires the supporting
// services and then signals readiness.
package facade

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/allergozyme/internal/buildinfo"
	"github.com/dmitrijs2005/allergozyme/internal/client/adapter"
	"github.com/dmitrijs2005/allergozyme/internal/client/client"
	"github.com/dmitrijs2005/allergozyme/internal/client/config"
	"github.com/dmitrijs2005/allergozyme/internal/client/geocode"
	"github.com/dmitrijs2005/allergozyme/internal/client/models"
	"github.com/dmitrijs2005/allergozyme/internal/client/objstore"
	"github.com/dmitrijs2005/allergozyme/internal/client/repositories/outbox"
	"github.com/dmitrijs2005/allergozyme/internal/client/services"
	"github.com/dmitrijs2005/allergozyme/internal/client/store"
	"github.com/dmitrijs2005/allergozyme/internal/events"
	"github.com/dmitrijs2005/allergozyme/internal/logging"
)

// Auth is the account and session capability.
type Auth interface {
	CreateUser(ctx context.Context, in models.NewUser) (*models.PublicUser, error)
	SignIn(ctx context.Context, email, password string) (*models.PublicUser, error)
	SignOut(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.PublicUser, error)
	RequireAuth(ctx context.Context, redirect string) bool
	UpdateUser(ctx context.Context, patch models.UserPatch) (*models.PublicUser, error)
}

// Reviews is the review capability.
type Reviews interface {
	AddReview(ctx context.Context, in models.NewReview) (*models.Review, error)
	GetReviews(ctx context.Context, filter models.ReviewFilter) ([]models.Review, error)
}

// ReviewEditor changes reviews on the hosted service right away. Only the
// remote backend has one.
type ReviewEditor interface {
	UpdateReview(ctx context.Context, id string, patch models.ReviewPatch) (*models.Review, error)
	DeleteReview(ctx context.Context, id string) error
	RefreshReviews(ctx context.Context) error
}

// Mode is the backend a facade runs on.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// Dialer opens the hosted service.
type Dialer func(ctx context.Context, cfg *config.Config, logger logging.Logger) (client.Service, error)

// Options configures New. Only Config is required.
type Options struct {
	Config    *config.Config
	Logger    logging.Logger
	Navigator services.Navigator

	// DialRemote opens the hosted service in remote mode. Without it the
	// facade stays local.
	DialRemote Dialer
	// Publisher overrides the one built from Config.
	Publisher events.Publisher
	// Backup overrides the object storage built from Config.
	Backup objstore.Backend
	// OnReady runs with the version right before the ready signal fires.
	OnReady func(version string)
}

// Facade is immutable once New returns.
type Facade struct {
	version string
	mode    Mode
	logger  logging.Logger

	db        *sql.DB
	local     *store.SQLiteStore
	store     store.Store
	auth      Auth
	reviews   Reviews
	editor    ReviewEditor
	geocoder  *geocode.Client
	transfer  *services.TransferService
	backup    *services.BackupService
	outbox    *adapter.Outbox
	remote    client.Service
	publisher events.Publisher

	ready chan struct{}
}

// New opens the local database, selects the backend and wires the
// services. Remote mode needs Backend "remote", a DSN, a JWT secret and a
// dialer; when any of it is missing or dialing fails the facade falls
// back to local and logs a warning.
func New(ctx context.Context, opts Options) (*Facade, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{}
		cfg.LoadDefaults()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.With("component", "facade")
	nav := opts.Navigator
	if nav == nil {
		nav = services.NopNavigator{}
	}

	db, err := client.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	f := &Facade{
		version: buildinfo.Version,
		mode:    ModeLocal,
		logger:  logger,
		db:      db,
		local:   store.NewSQLiteStore(db),
		ready:   make(chan struct{}),
	}

	localAuth := services.NewAuthService(f.local, nav, cfg.PasswordAlgorithm, logger)
	localReviews := services.NewReviewService(f.local, localAuth.CurrentUser, logger)
	f.store, f.auth, f.reviews = f.local, localAuth, localReviews

	if svc := f.dialRemote(ctx, cfg, opts.DialRemote, logger); svc != nil {
		remote := adapter.NewRemote(svc, f.local, nav, logger)
		f.outbox = adapter.NewOutbox(outbox.NewSQLiteRepository(db), remote, adapter.OutboxOptions{
			MaxAttempts: cfg.OutboxMaxAttempts,
			Backoff:     cfg.OutboxBackoff.Duration,
			Interval:    cfg.OutboxInterval.Duration,
		}, logger)
		f.store = adapter.NewReconcilingStore(f.local, remote, f.outbox, logger)
		f.auth, f.reviews, f.editor = remote, remote, remote
		f.remote, f.mode = svc, ModeRemote

		remote.Restore(ctx)
		f.outbox.Start(context.WithoutCancel(ctx))
	} else if _, err := localReviews.Migrate(ctx); err != nil {
		logger.Warn(ctx, "review migration failed", "error", err)
	}

	f.geocoder = geocode.New(geocode.Options{
		Endpoint:      cfg.GeocodeEndpoint,
		UserAgent:     cfg.GeocodeUserAgent,
		RatePerSecond: cfg.GeocodeRatePerSecond,
	}, logger)
	f.transfer = services.NewTransferService(f.local, localReviews, f.version, logger)

	backend := opts.Backup
	if backend == nil {
		backend = f.openBackup(ctx, cfg)
	}
	if backend != nil {
		f.backup = services.NewBackupService(backend, f.transfer, logger)
	}

	f.publisher = opts.Publisher
	if f.publisher == nil {
		f.publisher = f.openPublisher(ctx, cfg)
	}
	f.reviews = &publishingReviews{Reviews: f.reviews, facade: f}

	logger.Info(ctx, "data layer ready", "version", f.version, "mode", f.mode)
	f.publish(ctx, events.Ready, map[string]string{"version": f.version})
	if opts.OnReady != nil {
		opts.OnReady(f.version)
	}
	close(f.ready)
	return f, nil
}

func (f *Facade) dialRemote(ctx context.Context, cfg *config.Config, dial Dialer, logger logging.Logger) client.Service {
	if cfg.Backend != config.BackendRemote {
		return nil
	}
	if !cfg.RemoteConfigured() {
		logger.Warn(ctx, "remote backend requested but not configured, using local storage")
		return nil
	}
	if dial == nil {
		logger.Warn(ctx, "no remote dialer, using local storage")
		return nil
	}
	svc, err := dial(ctx, cfg, logger)
	if err != nil {
		logger.Warn(ctx, "remote backend unavailable, using local storage", "error", err)
		return nil
	}
	return svc
}

func (f *Facade) openBackup(ctx context.Context, cfg *config.Config) objstore.Backend {
	b, err := objstore.New(ctx, objstore.Config{
		Provider:  cfg.BackupProvider,
		Endpoint:  cfg.BackupEndpoint,
		Region:    cfg.BackupRegion,
		Bucket:    cfg.BackupBucket,
		AccessKey: cfg.BackupAccessKey,
		SecretKey: cfg.BackupSecretKey,
		UseSSL:    cfg.BackupUseSSL,
	})
	if errors.Is(err, objstore.ErrDisabled) {
		return nil
	}
	if err != nil {
		f.logger.Warn(ctx, "backup storage unavailable", "error", err)
		return nil
	}
	return b
}

func (f *Facade) openPublisher(ctx context.Context, cfg *config.Config) events.Publisher {
	p, err := events.New(ctx, events.Config{
		Provider: cfg.EventsProvider,
		URL:      cfg.EventsURL,
		Topic:    cfg.EventsTopic,
	}, f.logger)
	if err != nil {
		f.logger.Warn(ctx, "event publisher unavailable", "error", err)
		return events.NopPublisher{}
	}
	return p
}

// publish never fails the caller.
func (f *Facade) publish(ctx context.Context, name string, payload any) {
	if err := f.publisher.Publish(ctx, name, payload); err != nil {
		f.logger.Warn(ctx, "event not published", "event", name, "error", err)
	}
}

func (f *Facade) Version() string { return f.version }

func (f *Facade) Mode() Mode { return f.mode }

func (f *Facade) Auth() Auth { return f.auth }

// Reviews publishes review.added after each successful AddReview.
func (f *Facade) Reviews() Reviews { return f.reviews }

// Store is the key/value store pages should use: the local one, or its
// reconciling wrapper in remote mode.
func (f *Facade) Store() store.Store { return f.store }

func (f *Facade) Geocoder() *geocode.Client { return f.geocoder }

func (f *Facade) Transfer() *services.TransferService { return f.transfer }

// Backup is nil when no object storage is configured.
func (f *Facade) Backup() *services.BackupService { return f.backup }

// Outbox is nil in local mode.
func (f *Facade) Outbox() *adapter.Outbox { return f.outbox }

// Editor is nil in local mode.
func (f *Facade) Editor() ReviewEditor { return f.editor }

// Ready is closed once the facade is usable.
func (f *Facade) Ready() <-chan struct{} { return f.ready }

// WaitReady blocks until the facade is ready and returns its version.
func (f *Facade) WaitReady(ctx context.Context) (string, error) {
	select {
	case <-f.ready:
		return f.version, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close stops the outbox worker and releases connections.
func (f *Facade) Close() error {
	var errs []error
	if f.outbox != nil {
		errs = append(errs, f.outbox.Close())
	}
	if f.publisher != nil {
		errs = append(errs, f.publisher.Close())
	}
	if f.remote != nil {
		errs = append(errs, f.remote.Close())
	}
	errs = append(errs, f.db.Close())
	return errors.Join(errs...)
}
