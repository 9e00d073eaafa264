package server

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bluesky-social/indigo/util"
	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/oceanprotocol/oceanlib/aquarius"
	"github.com/oceanprotocol/oceanlib/did"
	"github.com/oceanprotocol/oceanlib/provider"
	"github.com/oceanprotocol/oceanlib/store"
	slogecho "github.com/samber/slog-echo"
)

type Server struct {
	http       *http.Client
	httpd      *http.Server
	echo       *echo.Echo
	drafts     *store.DraftStore
	draftLocks *draftLocks
	aquarius   *aquarius.Client
	provider   *provider.Client
	passport   *aquarius.Passport
	logger     *slog.Logger
	config     *config
	privateKey *ecdsa.PrivateKey
}

type Args struct {
	Addr             string
	DbName           string
	Logger           *slog.Logger
	Version          string
	AquariusURL      string
	ProviderURL      string
	ChainID          int64
	JwkPath          string
	CacheSize        int
	CacheTTL         time.Duration
	SkipConnectivity bool
	// HTTPClient defaults to util.RobustHTTPClient.
	HTTPClient *http.Client
}

type config struct {
	Version          string
	ChainID          int64
	SkipConnectivity bool
}

type CustomValidator struct {
	validator *validator.Validate
}

type ValidationError struct {
	error
	Field string
	Tag   string
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		var validateErrors validator.ValidationErrors
		if errors.As(err, &validateErrors) && len(validateErrors) > 0 {
			first := validateErrors[0]
			return ValidationError{
				error: err,
				Field: first.Field(),
				Tag:   first.Tag(),
			}
		}

		return err
	}

	return nil
}

func New(args *Args) (*Server, error) {
	if args.Addr == "" {
		return nil, fmt.Errorf("addr must be set")
	}

	if args.DbName == "" {
		return nil, fmt.Errorf("db name must be set")
	}

	if args.AquariusURL == "" {
		return nil, fmt.Errorf("aquarius url must be set")
	}

	if args.JwkPath == "" {
		return nil, fmt.Errorf("jwk path must be set")
	}

	if args.ChainID <= 0 {
		return nil, fmt.Errorf("chain id must be positive")
	}

	if args.CacheSize <= 0 {
		args.CacheSize = 10_000
	}

	if args.Logger == nil {
		args.Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))
	}

	e := echo.New()
	e.HideBanner = true

	e.Pre(middleware.RemoveTrailingSlash())
	e.Pre(slogecho.New(args.Logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{"*"},
		AllowMethods: []string{"*"},
		MaxAge:       100_000_000,
	}))

	vdtor := validator.New()
	vdtor.RegisterValidation("ocean-did", func(fl validator.FieldLevel) bool {
		d, err := did.Parse(fl.Field().String())
		return err == nil && d.Method == did.DefaultMethod
	})

	e.Validator = &CustomValidator{validator: vdtor}

	httpd := &http.Server{
		Addr:    args.Addr,
		Handler: e,
	}

	db, err := store.Open(args.DbName)
	if err != nil {
		return nil, err
	}

	h := args.HTTPClient
	if h == nil {
		h = util.RobustHTTPClient()
	}

	aqua, err := aquarius.NewClient(&aquarius.ClientArgs{
		Service: args.AquariusURL,
		Client:  h,
		Logger:  args.Logger,
	})
	if err != nil {
		return nil, err
	}

	pkey, err := LoadPrivateJwk(args.JwkPath)
	if err != nil {
		return nil, err
	}

	s := &Server{
		http:       h,
		httpd:      httpd,
		echo:       e,
		drafts:     store.New(db),
		draftLocks: newDraftLocks(),
		aquarius:   aqua,
		provider: provider.NewClient(&provider.ClientArgs{
			Service: args.ProviderURL,
			Client:  h,
			Logger:  args.Logger,
		}),
		passport:   aquarius.NewPassport(aqua, aquarius.NewMemCache(args.CacheSize, args.CacheTTL)),
		logger:     args.Logger,
		privateKey: pkey,
		config: &config{
			Version:          args.Version,
			ChainID:          args.ChainID,
			SkipConnectivity: args.SkipConnectivity,
		},
	}

	s.addRoutes()

	return s, nil
}

func (s *Server) addRoutes() {
	s.echo.GET("/_health", s.handleHealth)

	// public
	s.echo.GET("/api/v1/did", s.handleComputeDid)
	s.echo.GET("/api/v1/assets/:did", s.handleGetAsset)
	s.echo.GET("/api/v1/assets/:did/consumable", s.handleIsConsumable)
	s.echo.GET("/api/v1/assets/:did/services/:serviceId/trusted-algorithms/:algoDid", s.handleVerifyAlgorithm)

	// drafts
	s.echo.GET("/api/v1/drafts", s.handleListDrafts, s.handleAdminMiddleware)
	s.echo.POST("/api/v1/drafts", s.handleImportDraft, s.handleAdminMiddleware)
	s.echo.GET("/api/v1/drafts/:did", s.handleGetDraft, s.handleAdminMiddleware)
	s.echo.DELETE("/api/v1/drafts/:did", s.handleDeleteDraft, s.handleAdminMiddleware)
	s.echo.POST("/api/v1/drafts/:did/credentials", s.handleDraftCredentials, s.handleAdminMiddleware)
	s.echo.POST("/api/v1/drafts/:did/services/:serviceId/trusted-algorithms", s.handleDraftTrustedAlgorithms, s.handleAdminMiddleware)
	s.echo.POST("/api/v1/drafts/:did/services/:serviceId/trusted-publishers", s.handleDraftTrustedPublishers, s.handleAdminMiddleware)
	s.echo.POST("/api/v1/drafts/:did/validate", s.handleValidateDraft, s.handleAdminMiddleware)
}

func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting ocean server", "addr", s.httpd.Addr, "chainId", s.config.ChainID)

	errs := make(chan error, 1)
	go func() {
		if err := s.httpd.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.httpd.Shutdown(shutdownCtx)
}
