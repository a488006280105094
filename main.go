package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"boardify-api/api"
	"boardify-api/domain"
	"boardify-api/storage"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		log.Fatal("missing DATABASE_URL")
	}
	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		log.Fatal("missing SECRET_KEY")
	}

	opts, err := poolOptions()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	store, err := storage.New(ctx, connStr, opts)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("storage: %v", err)
	}

	bcryptCost := 10
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("invalid BCRYPT_COST: %v", err)
		}
		bcryptCost = n
	}
	registrationEnabled := true
	if v := os.Getenv("DISABLE_REGISTRATION"); v != "" {
		disabled, err := strconv.ParseBool(v)
		if err != nil {
			log.Fatalf("invalid DISABLE_REGISTRATION: %v", err)
		}
		registrationEnabled = !disabled
	}
	users, err := domain.NewUserService(store, domain.NewBCryptHasher(bcryptCost), registrationEnabled)
	if err != nil {
		log.Fatalf("users: %v", err)
	}

	auth := api.NewAuth([]byte(secret), durationEnv("ACCESS_TOKEN_TTL", api.DefaultTokenTTL), users)

	var (
		boards  api.BoardService  = domain.NewBoardService(store)
		tickets api.TicketService = domain.NewTicketService(store)
		deduper api.Deduper
	)
	if redisConn := os.Getenv("REDIS_CONNECTION_STRING"); redisConn != "" {
		rc := redis.NewClient(redisOptions(redisConn))
		defer rc.Close()
		cache := storage.NewCache(boards, tickets, rc, durationEnv("CACHE_TTL", 5*time.Minute))
		boards, tickets = cache, cache
		deduper = api.NewRedisDeduper(rc, durationEnv("DEDUPER_TTL", 24*time.Hour))
	} else {
		log.Info("REDIS_CONNECTION_STRING not set; board cache and idempotency keys disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Idempotency-Key"},
	}))
	e.Use(api.GzipRequestMiddleware())

	logger := log.New()
	logger.SetLevel(log.GetLevel())
	api.Register(e, api.Services{
		Boards:  boards,
		Tickets: tickets,
		Users:   users,
		Auth:    auth,
		Deduper: deduper,
		Health:  store,
	}, logger)

	listenAddr := ":8000"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}

// durationEnv reads a positive duration, except that CACHE_TTL may be 0 to disable caching.
func durationEnv(name string, def time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 || (d == 0 && name != "CACHE_TTL") {
		log.Fatalf("invalid %s: %q", name, v)
	}
	return d
}

// redisOptions accepts a redis:// URL or the "host:port,password=...,ssl=true" form.
func redisOptions(conn string) *redis.Options {
	if opts, err := redis.ParseURL(conn); err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts := &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		switch strings.ToLower(k) {
		case "password":
			opts.Password = v
		case "ssl":
			if strings.EqualFold(v, "true") {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}

// poolOptions reads DB_MAX_CONNS and DB_MIN_CONNS. Unset values keep the pgx defaults.
func poolOptions() (storage.Options, error) {
	var opts storage.Options
	for _, f := range []struct {
		name string
		dst  *int32
	}{
		{"DB_MAX_CONNS", &opts.MaxConns},
		{"DB_MIN_CONNS", &opts.MinConns},
	} {
		v := os.Getenv(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n <= 0 {
			return storage.Options{}, fmt.Errorf("invalid %s: %q", f.name, v)
		}
		*f.dst = int32(n)
	}
	if opts.MaxConns > 0 && opts.MinConns > opts.MaxConns {
		return storage.Options{}, fmt.Errorf("DB_MIN_CONNS %d exceeds DB_MAX_CONNS %d", opts.MinConns, opts.MaxConns)
	}
	return opts, nil
}
