package config // package config loads application configuration from environment variables

import (
    "log"
    "os"
    "strconv"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Broker and Redis settings are read by
// their own constructors so those subsystems can degrade gracefully
// when unset.
type Config struct {
    Env          string // application environment (e.g. "dev", "prod")
    Port         string // HTTP port to listen on
    MongoURI     string // MongoDB connection string
    MongoDB      string // database name
    JWTSecret    string // secret used to verify JWTs
    AccessTTLMin int    // access token time-to-live in minutes (seedadmin)
    BcryptCost   int    // bcrypt cost for password hashing (seedadmin)
    HistoryLimit int    // bids replayed to a joining participant
}

// Load reads configuration values from environment variables and
// returns a Config. Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:          must("APP_ENV"),
        Port:         must("APP_PORT"),
        MongoURI:     must("MONGODB_URI"),
        MongoDB:      envStr("MONGODB_DB", "stubble_market"),
        JWTSecret:    must("JWT_SECRET"),
        AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 60),
        BcryptCost:   envInt("BCRYPT_COST", 10),
        HistoryLimit: envInt("BID_HISTORY_LIMIT", 10),
    }
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

func envStr(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func envInt(key string, def int) int {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    if n, err := strconv.Atoi(v); err == nil {
        return n
    }
    return def
}
