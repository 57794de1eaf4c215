// Package redis is a convenience layer above the lower level redis library to provide
// some more user friendly common functions
package redis

import (
	"errors"
	"time"

	"github.com/garyburd/redigo/redis"
	"go.uber.org/zap"
)

type (
	// Conn is a proxied redigo connection so that client services don't have
	// to also import redigo
	Conn = redis.Conn
	// Pool is a proxied redigo pool
	Pool = redis.Pool
)

// ErrNil is returned when a key does not exist.
var ErrNil = redis.ErrNil

// Logger reports connection attempts. Services replace it at startup.
var Logger = zap.NewNop()

// NewPool creates a connection pool for the redis instance at uri. Pooled
// connections are checked with PING when they have been idle for a while.
func NewPool(uri string, maxIdle int) *Pool {
	return &redis.Pool{
		MaxIdle:     maxIdle,
		IdleTimeout: 4 * time.Minute,
		Dial: func() (redis.Conn, error) {
			return redis.DialURL(uri)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// ConnectWithRetry will repeatedly try to reach the redis instance behind the
// pool at the specified intervals, returning once a PING succeeds
func ConnectWithRetry(pool *Pool, retryInterval time.Duration) {
	for {
		err := Ping(pool.Get())
		if err == nil {
			Logger.Info("Established connection to redis")
			return
		}
		Logger.Warn("Failed to connect to redis - retrying", zap.Error(err))
		time.Sleep(retryInterval)
	}
}

// Ping checks the connection and closes it.
func Ping(conn Conn) error {
	defer conn.Close()
	_, err := conn.Do("PING")
	return err
}

// Set sets a simple key in redis (key does not set explict expiry)
func Set(key, value string, conn Conn) error {
	_, err := conn.Do("SET", key, value)
	return err
}

// GetBytes retrieves a simple key in redis. A missing key returns ErrNil.
func GetBytes(key string, conn Conn) ([]byte, error) {
	return redis.Bytes(conn.Do("GET", key))
}

// Exists reports whether key is set.
func Exists(key string, conn Conn) (bool, error) {
	return redis.Bool(conn.Do("EXISTS", key))
}

// AddToSet adds member to the set at key.
func AddToSet(key, member string, conn Conn) error {
	_, err := conn.Do("SADD", key, member)
	return err
}

// SetMembers returns the members of the set at key. A missing key is an
// empty set.
func SetMembers(key string, conn Conn) ([]string, error) {
	return redis.Strings(conn.Do("SMEMBERS", key))
}

// IsNil reports whether err means a missing key.
func IsNil(err error) bool {
	return errors.Is(err, redis.ErrNil)
}
