package app

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"storefront/pkg/catalog"
	"storefront/pkg/httpapi"
	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/pkg/order"
	"storefront/pkg/storefront"
	"storefront/pkg/version"
)

const shutdownTimeout = 5 * time.Second

// EnvFileKey names an optional dotenv file. Its values only fill variables
// the process environment leaves unset.
const EnvFileKey = "STOREFRONT_ENV_FILE"

// Config is read from the environment first and then from CLI flags, so a
// flag always wins over its variable.
type Config struct {
	Port        int    `env:"STOREFRONT_PORT" envDefault:"8765"`
	CatalogPath string `env:"STOREFRONT_CATALOG"`
	SeedOrders  int    `env:"STOREFRONT_SEED_ORDERS" envDefault:"25"`
	RandomSeed  uint64 `env:"STOREFRONT_RANDOM_SEED" envDefault:"0"`
	LogLevel    string `env:"STOREFRONT_LOG_LEVEL" envDefault:"info"`

	showVersion bool
}

// Run loads configuration, wires the storefront and serves HTTP until ctx
// is cancelled.
func Run(ctx context.Context, args []string) error {
	environment, err := withEnvFile(environ())
	if err != nil {
		return err
	}
	cfg, err := loadConfig(args, environment)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	log := logger.New(cfg.LogLevel)
	defer log.Sync()

	if cfg.showVersion {
		log.Info("storefront version", zap.String("version", version.Version()))
		return nil
	}

	shop, handler, err := build(cfg, log)
	if err != nil {
		return err
	}
	defer shop.Close()

	server := &http.Server{
		Addr:         cfg.address(),
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("storefront is running", zap.String("addr", server.Addr), zap.String("version", version.Version()))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped unexpectedly: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// build assembles the catalog, the command loop and the HTTP handler.
func build(cfg Config, log *zap.Logger) (*storefront.Service, http.Handler, error) {
	c, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, nil, err
	}
	log.Info("catalog loaded",
		zap.Int("products", c.Len()),
		zap.Strings("categories", c.Categories()),
		zap.String("source", catalogSource(cfg.CatalogPath)))

	reg := metrics.NewRegistry()
	sessionCfg := storefront.SessionConfig{}
	if cfg.SeedOrders > 0 {
		seeder := order.NewDemoSeeder(newRand(cfg.RandomSeed))
		seeder.Count = cfg.SeedOrders
		sessionCfg.Seeder = seeder
	}

	shop := storefront.NewService(storefront.Config{
		Catalog: c,
		Session: sessionCfg,
		Logger:  log,
		Metrics: reg,
	})
	return shop, httpapi.New(shop, reg, log).Handler(), nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		c, err := catalog.Default()
		if err != nil {
			return nil, fmt.Errorf("load embedded catalog: %w", err)
		}
		return c, nil
	}
	c, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}

func catalogSource(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

// newRand seeds PCG from the configured seed, or from crypto/rand when the
// seed is zero.
func newRand(seed uint64) *rand.Rand {
	if seed != 0 {
		return rand.New(rand.NewPCG(seed, seed))
	}
	var buf [16]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return rand.New(rand.NewPCG(binary.LittleEndian.Uint64(buf[:8]), binary.LittleEndian.Uint64(buf[8:])))
}

func (c Config) address() string {
	return ":" + strconv.Itoa(c.Port)
}

// loadConfig uses a dedicated FlagSet so Run can be called from multiple
// entry points and from tests.
func loadConfig(args []string, environment map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environment}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	set := flag.NewFlagSet("storefront", flag.ContinueOnError)
	set.SetOutput(io.Discard)
	set.BoolVar(&cfg.showVersion, "version", false, "Show the application version")
	set.IntVar(&cfg.Port, "port", cfg.Port, "Port for the HTTP server.")
	set.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "Path to a catalog JSON file; the embedded catalog is used when empty.")
	set.IntVar(&cfg.SeedOrders, "seed-orders", cfg.SeedOrders, "Historical orders generated for each new session; 0 disables seeding.")
	set.Uint64Var(&cfg.RandomSeed, "random-seed", cfg.RandomSeed, "Seed for generated orders; 0 picks a random seed.")
	set.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error.")

	if err := set.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.SeedOrders < 0 {
		return Config{}, fmt.Errorf("invalid seed-orders %d", cfg.SeedOrders)
	}
	return cfg, nil
}

func environ() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}

// withEnvFile merges the dotenv file named by EnvFileKey under environment.
func withEnvFile(environment map[string]string) (map[string]string, error) {
	path := environment[EnvFileKey]
	if path == "" {
		return environment, nil
	}
	fromFile, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	for k, v := range fromFile {
		if _, set := environment[k]; !set {
			environment[k] = v
		}
	}
	return environment, nil
}
