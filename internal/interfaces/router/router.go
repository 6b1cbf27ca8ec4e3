package router

import (
	"context"
	"io"
	"net/http"

	authsvc "hub-backend/internal/application/auth"
	"hub-backend/internal/application/billing"
	invsvc "hub-backend/internal/application/invitations"
	"hub-backend/internal/application/mailer"
	productsvc "hub-backend/internal/application/products"
	"hub-backend/internal/application/registration"
	subsvc "hub-backend/internal/application/subscriptions"
	usersvc "hub-backend/internal/application/user"
	"hub-backend/internal/config"
	"hub-backend/internal/constants"
	"hub-backend/internal/infrastructure/database"
	authhandler "hub-backend/internal/interfaces/handlers/auth"
	healthhandler "hub-backend/internal/interfaces/handlers/health"
	invhandler "hub-backend/internal/interfaces/handlers/invitations"
	producthandler "hub-backend/internal/interfaces/handlers/products"
	subhandler "hub-backend/internal/interfaces/handlers/subscriptions"
	userhandler "hub-backend/internal/interfaces/handlers/user"
	"hub-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Deps are the collaborators the app is built from.
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Rdb     *redis.Client
	Mailer  mailer.Mailer
	Billing billing.Provider
}

// Runtime exposes what the process owns beyond the HTTP app.
type Runtime struct {
	DB           *gorm.DB
	Rdb          *redis.Client
	Dispatcher   *mailer.Dispatcher
	Mailer       mailer.Mailer
	Registration *registration.Service
	Products     *productsvc.Service
}

// CreateApp opens the store, Redis, mail transport and billing provider from
// cfg and builds the app.
func CreateApp(cfg *config.Config) (*fiber.App, *Runtime, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, errors.Wrap(err, "migrate")
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "parse REDIS_URL")
	}
	rdb := redis.NewClient(opt)

	m, err := mailer.New(mailer.Settings{
		Transport:        cfg.MailTransport,
		From:             cfg.MailFrom,
		SendinblueAPIKey: cfg.SendinblueAPIKey,
		SendgridAPIKey:   cfg.SendgridAPIKey,
		KafkaBroker:      cfg.KafkaBroker,
		KafkaTopic:       cfg.KafkaTopic,
		KafkaUsername:    cfg.KafkaUsername,
		KafkaPassword:    cfg.KafkaPassword,
	})
	if err != nil {
		return nil, nil, err
	}

	var provider billing.Provider
	switch cfg.BillingProvider {
	case "stripe":
		if cfg.StripeSecretKey == "" {
			return nil, nil, errors.New("stripe billing needs STRIPE_SECRET_KEY")
		}
		provider = billing.NewStripeProvider(cfg.StripeSecretKey)
	case "", "local":
		provider = &billing.LocalProvider{}
	default:
		return nil, nil, errors.Errorf("unknown billing provider %q", cfg.BillingProvider)
	}

	return NewApp(Deps{Config: cfg, DB: db, Rdb: rdb, Mailer: m, Billing: provider})
}

// NewApp wires services, middleware and routes onto a Fiber app.
func NewApp(d Deps) (*fiber.App, *Runtime, error) {
	cfg := d.Config
	if cfg.SessionSecret == "" {
		if cfg.IsProduction() {
			return nil, nil, errors.New("SESSION_SECRET is required in production")
		}
		log.Warn().Msg("SESSION_SECRET not set; using an insecure development secret")
		cfg.SessionSecret = "dev-insecure-secret"
	}

	renderer, err := mailer.NewInvitationRenderer(cfg.InvitationTemplate, cfg.InvitationSubject)
	if err != nil {
		return nil, nil, err
	}

	products := productsvc.NewService(d.DB)
	if err := products.Seed(context.Background(), productsvc.DefaultCatalogue()); err != nil {
		return nil, nil, err
	}
	reg := &registration.Service{DB: d.DB, TTL: cfg.NewUserTTL}
	dispatcher := &mailer.Dispatcher{
		DB:          d.DB,
		Mailer:      d.Mailer,
		MaxAttempts: cfg.MailMaxAttempts,
		Interval:    cfg.MailPollInterval,
		OnTick: func(ctx context.Context) {
			if _, err := reg.PurgeExpired(ctx); err != nil {
				log.Error().Err(err).Msg("Staged registration purge failed")
			}
		},
	}

	auth := &authsvc.Service{DB: d.DB, Rdb: d.Rdb, Secret: []byte(cfg.SessionSecret)}
	users := &usersvc.Service{DB: d.DB, Rdb: d.Rdb, Billing: d.Billing, DefaultInvitations: cfg.DefaultInvitations}
	invitations := &invsvc.Service{DB: d.DB, Renderer: renderer, Notifier: dispatcher}
	subs := &subsvc.Service{DB: d.DB, Products: products, Billing: d.Billing}

	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
		Immutable:               true,
	})
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.HealthMarker(d.Rdb))
	app.Use(middleware.Authenticate(auth))

	hh := &healthhandler.Handlers{Rdb: d.Rdb, DB: d.DB, MaxMailAttempts: cfg.MailMaxAttempts}
	app.Get("/health/json", hh.JSON)

	ah := &authhandler.Handlers{Auth: auth, Registration: reg}
	ih := &invhandler.Handlers{Service: invitations}
	uh := &userhandler.Handlers{Service: users}
	sh := &subhandler.Handlers{Service: subs}
	ph := &producthandler.Handlers{Service: products}

	// Anonymous
	app.Put("/prospects/:email", ih.Prospect)
	app.Put("/login/openid/register/:token", ah.RegisterOpenID)

	// gate authenticates the caller and checks the permission's rule before h.
	gate := func(permission string, h fiber.Handler) []fiber.Handler {
		return []fiber.Handler{middleware.RequireAuth(), middleware.AuthorizePermission(permission), h}
	}
	app.Get("/login", gate(constants.IdentifyCaller, ah.Login)...)
	app.Delete("/login", gate(constants.IdentifyCaller, ah.Logout)...)
	app.Get("/products", gate(constants.ViewProducts, ph.List)...)

	app.Post("/users", gate(constants.RegisterUser, uh.CreateUser)...)
	app.Get("/users/:id/connections", gate(constants.ViewConnections, uh.ListConnections)...)
	app.Put("/users/:id/connections/:otherId", gate(constants.ManageConnections, uh.Connect)...)
	app.Put("/users/:id/invite/:email", gate(constants.InviteUser, ih.Invite)...)

	app.Post("/users/:id/subscription", gate(constants.ManageSubscription, sh.Create)...)
	app.Get("/users/:id/subscription", gate(constants.ViewSubscription, sh.Get)...)
	app.Put("/users/:id/subscription", gate(constants.ManageSubscription, sh.Update)...)
	app.Delete("/users/:id/subscription", gate(constants.ManageSubscription, sh.Delete)...)

	app.Get("/users/:email", gate(constants.ReadProfile, uh.Profile)...)
	app.Delete("/users/:id", gate(constants.RemoveUser, uh.RemoveUser)...)

	return app, &Runtime{DB: d.DB, Rdb: d.Rdb, Dispatcher: dispatcher, Mailer: d.Mailer, Registration: reg, Products: products}, nil
}

// Close releases the mail transport, when it holds connections, then Redis
// and the database.
func (rt *Runtime) Close() {
	if c, ok := rt.Mailer.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Error().Err(err).Msg("mail transport close")
		}
	}
	_ = rt.Rdb.Close()
	if sqlDB, err := rt.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Handler adapts the app to net/http for serverless entry points.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
