package cmd

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/gskelton/gatehouse/api"
	"github.com/gskelton/gatehouse/auth"
	"github.com/gskelton/gatehouse/crypto"
	"github.com/gskelton/gatehouse/email"
	"github.com/gskelton/gatehouse/internal/config"
	"github.com/gskelton/gatehouse/session"
	bboltstore "github.com/gskelton/gatehouse/store/bbolt"
	"github.com/gskelton/gatehouse/store/memory"
	pgstore "github.com/gskelton/gatehouse/store/postgres"
	redisstore "github.com/gskelton/gatehouse/store/redis"
	"github.com/gskelton/gatehouse/token"
)

var configPath string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the authentication service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
		ctx := cmd.Context()

		hasher := crypto.NewHasher(int64(cfg.Hash.Workers))

		users, cleanup, err := buildUserStore(ctx, cfg, hasher)
		if err != nil {
			return err
		}
		defer cleanup()

		ttl := time.Duration(cfg.JWT.TTLMinutes) * time.Minute
		banned, codes := buildEphemeralStores(cfg, ttl)

		tokens, err := token.NewService([]byte(cfg.JWT.Secret), banned, token.WithTTL(ttl))
		if err != nil {
			return err
		}

		sender, err := buildEmailSender(ctx, cfg, logger)
		if err != nil {
			return err
		}

		sessions := session.New(users, codes, tokens, hasher,
			session.WithEmailSender(sender),
			session.WithLogger(logger),
		)

		apiOpts := []api.Option{api.WithLogger(logger)}
		if cfg.Recaptcha.Secret != "" {
			apiOpts = append(apiOpts, api.WithRecaptcha(api.NewGoogleRecaptcha(cfg.Recaptcha.Secret)))
		}
		a := api.New(sessions, apiOpts...)

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		r.Mount("/", a.Router())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		useTLS := cfg.Server.TLSCert != "" && cfg.Server.TLSKey != ""
		if useTLS {
			cert, err := tls.LoadX509KeyPair(cfg.Server.TLSCert, cfg.Server.TLSKey)
			if err != nil {
				return fmt.Errorf("failed to load TLS key pair: %w", err)
			}
			server.TLSConfig = &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			}
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			var err error
			if useTLS {
				err = server.ListenAndServeTLS("", "")
			} else {
				err = server.ListenAndServe()
			}
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		printBanner()
		fmt.Printf("Starting server on port %d (store: %s)...\n", cfg.Server.Port, cfg.Store.Backend)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			fmt.Printf("\nReceived %s, shutting down...\n", sig)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func buildUserStore(ctx context.Context, cfg *config.Config, hasher *crypto.Hasher) (auth.UserStore, func(), error) {
	switch cfg.Store.Backend {
	case "memory":
		return memory.NewUserStore(hasher), func() {}, nil
	case "bbolt":
		if err := os.MkdirAll(cfg.Store.DataDir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		store, err := bboltstore.NewUserStoreFromFile(cfg.Store.DataDir+"/users.db", hasher, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open user store: %w", err)
		}
		return store, func() { store.Close() }, nil
	case "postgres":
		store, err := pgstore.NewUserStoreFromDSN(ctx, cfg.Store.PostgresDSN, hasher)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return store, func() { store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func buildEphemeralStores(cfg *config.Config, tokenTTL time.Duration) (auth.BannedTokenStore, auth.TwoFACodeStore) {
	if cfg.Redis.Addr == "" {
		return memory.NewBannedTokenStore(tokenTTL), memory.NewTwoFACodeStore(auth.ChallengeTTL)
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return redisstore.NewBannedTokenStore(rdb, tokenTTL), redisstore.NewTwoFACodeStore(rdb, auth.ChallengeTTL)
}

func buildEmailSender(ctx context.Context, cfg *config.Config, logger *slog.Logger) (email.Sender, error) {
	switch cfg.Email.Sender {
	case "log":
		return email.NewLogSender(logger), nil
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		return email.NewSESSender(sesv2.NewFromConfig(awsCfg), cfg.Email.From), nil
	default:
		return nil, fmt.Errorf("unknown email sender %q", cfg.Email.Sender)
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
}
