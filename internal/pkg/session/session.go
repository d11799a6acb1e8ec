package session

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"
	goredis "github.com/redis/go-redis/v9"

	"github.com/trendhack/dashboard/internal/pkg/env"
	"github.com/trendhack/dashboard/internal/pkg/usercontext"
)

// RedisConfig derives a storage config for the given DB index from the
// connection options of the cache client.
func RedisConfig(client *goredis.Client, database int) redis.Config {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if client != nil {
		addr := client.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		// Prefer password from the underlying client if present
		if p := client.Options().Password; p != "" {
			password = p
		}
	}
	return redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: database,
		Reset:    false,
	}
}

// NewSessionStore creates the app session store on Redis database 1 (cache uses DB 0).
func NewSessionStore(client *goredis.Client) *session.Store {
	storage := redis.New(RedisConfig(client, 1))

	return session.New(session.Config{
		Storage:        storage,
		CookieHTTPOnly: true,
		CookieSecure:   !env.IsDev(),
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		Expiration:     time.Hour * 24 * 7,
		KeyLookup:      "cookie:session_id",
	})
}

// Identity is what the session remembers about a signed-in user.
type Identity struct {
	UserID  uint
	Name    string
	Email   string
	Avatar  string
	IsAdmin bool
}

// Login rotates the session id and stores the identity.
func Login(store *session.Store, c *fiber.Ctx, id Identity) error {
	sess, err := store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("failed to regenerate session: %w", err)
	}
	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, id.UserID)
	sess.Set(usercontext.KeyUsername, id.Name)
	sess.Set(usercontext.KeyEmail, id.Email)
	sess.Set(usercontext.KeyAvatar, id.Avatar)
	sess.Set(usercontext.KeyIsAdmin, id.IsAdmin)
	return sess.Save()
}

// Logout destroys the session. A missing session is not an error.
func Logout(store *session.Store, c *fiber.Ctx) error {
	sess, err := store.Get(c)
	if err != nil {
		return nil
	}
	return sess.Destroy()
}

// Lookup reads the identity, reporting false for anonymous sessions.
func Lookup(store *session.Store, c *fiber.Ctx) (Identity, bool) {
	sess, err := store.Get(c)
	if err != nil {
		return Identity{}, false
	}
	uid, ok := sess.Get(usercontext.KeyUserID).(uint)
	if !ok || uid == 0 {
		return Identity{}, false
	}
	id := Identity{UserID: uid}
	id.Name, _ = sess.Get(usercontext.KeyUsername).(string)
	id.Email, _ = sess.Get(usercontext.KeyEmail).(string)
	id.Avatar, _ = sess.Get(usercontext.KeyAvatar).(string)
	id.IsAdmin, _ = sess.Get(usercontext.KeyIsAdmin).(bool)
	return id, true
}
