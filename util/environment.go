package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

var environmentLogger = log.With().Str("logger_name", "util::environment").Logger()

type tableServerEnvironment struct {
	ListenAddr    string
	HTTPAddr      string
	TableCode     string
	PersistMethod string
	RedisHost     string
	RedisPort     string
	RedisPW       string
	RedisDB       string
	NatsURL       string
	LogLevel      string
}

// Env is a helper object for accessing environment variables.
var Env = &tableServerEnvironment{
	ListenAddr:    "LISTEN_ADDR",
	HTTPAddr:      "HTTP_ADDR",
	TableCode:     "TABLE_CODE",
	PersistMethod: "PERSIST_METHOD",
	RedisHost:     "REDIS_HOST",
	RedisPort:     "REDIS_PORT",
	RedisPW:       "REDIS_PW",
	RedisDB:       "REDIS_DB",
	NatsURL:       "NATS_URL",
	LogLevel:      "LOG_LEVEL",
}

func (e *tableServerEnvironment) GetListenAddr() string {
	v := os.Getenv(e.ListenAddr)
	if v == "" {
		return ":5000"
	}
	return v
}

func (e *tableServerEnvironment) GetHTTPAddr() string {
	v := os.Getenv(e.HTTPAddr)
	if v == "" {
		return ":8080"
	}
	return v
}

func (e *tableServerEnvironment) GetTableCode() string {
	v := os.Getenv(e.TableCode)
	if v == "" {
		return "main"
	}
	return v
}

func (e *tableServerEnvironment) GetPersistMethod() string {
	v := os.Getenv(e.PersistMethod)
	if v == "" {
		return "memory"
	}
	return strings.ToLower(v)
}

func (e *tableServerEnvironment) GetRedisHost() string {
	host := os.Getenv(e.RedisHost)
	if host == "" {
		msg := fmt.Sprintf("%s is not defined", e.RedisHost)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return host
}

func (e *tableServerEnvironment) GetRedisPort() int {
	portStr := os.Getenv(e.RedisPort)
	if portStr == "" {
		return 6379
	}
	portNum, err := strconv.Atoi(portStr)
	if err != nil {
		msg := fmt.Sprintf("Invalid Redis port %s", portStr)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return portNum
}

func (e *tableServerEnvironment) GetRedisPW() string {
	return os.Getenv(e.RedisPW)
}

func (e *tableServerEnvironment) GetRedisDB() int {
	dbStr := os.Getenv(e.RedisDB)
	if dbStr == "" {
		return 0
	}
	dbNum, err := strconv.Atoi(dbStr)
	if err != nil {
		msg := fmt.Sprintf("Invalid Redis db %s", dbStr)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return dbNum
}

func (e *tableServerEnvironment) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", e.GetRedisHost(), e.GetRedisPort())
}

// GetNatsURL returns an empty string when the NATS mirror is disabled.
func (e *tableServerEnvironment) GetNatsURL() string {
	return os.Getenv(e.NatsURL)
}

func (e *tableServerEnvironment) GetLogLevel() string {
	v := os.Getenv(e.LogLevel)
	if v == "" {
		return "info"
	}
	return v
}
