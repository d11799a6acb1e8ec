package controllers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/markbates/goth"
	gothfiber "github.com/shareed2k/goth_fiber"
	"gorm.io/gorm"

	"github.com/trendhack/dashboard/app/models"
	"github.com/trendhack/dashboard/app/repository"
	"github.com/trendhack/dashboard/internal/pkg/avatar"
	"github.com/trendhack/dashboard/internal/pkg/flash"
	"github.com/trendhack/dashboard/internal/pkg/oauth"
	"github.com/trendhack/dashboard/internal/pkg/session"
)

// OAuthController runs the social login flow through goth.
type OAuthController struct {
	users    repository.UserRepository
	sessions *fibersession.Store
	now      func() time.Time
	// complete is gothfiber.CompleteUserAuth outside of tests.
	complete func(c *fiber.Ctx) (goth.User, error)
}

func NewOAuthController(users repository.UserRepository, sessions *fibersession.Store, now func() time.Time) *OAuthController {
	return &OAuthController{
		users:    users,
		sessions: sessions,
		now:      now,
		complete: func(c *fiber.Ctx) (goth.User, error) { return gothfiber.CompleteUserAuth(c) },
	}
}

// HandleBegin redirects to the provider's consent screen.
func (oc *OAuthController) HandleBegin(c *fiber.Ctx) error {
	if !oauth.Enabled(c.Params("provider")) {
		return flash.Error(c, "Login social indisponível.").Redirect(loginPath, fiber.StatusSeeOther)
	}
	return gothfiber.BeginAuthHandler(c)
}

// HandleCallback completes the provider flow and logs the user in
func (oc *OAuthController) HandleCallback(c *fiber.Ctx) error {
	u, err := oc.complete(c)
	if err != nil {
		log.Warnf("[OAuth] Completing %s login failed: %v", c.Params("provider"), err)
		return flash.Error(c, "Não foi possível entrar com a rede social.").Redirect(loginPath, fiber.StatusSeeOther)
	}

	user, err := oc.resolveUser(c, u)
	if err != nil {
		log.Errorf("[OAuth] Linking %s account %s failed: %v", u.Provider, u.UserID, err)
		return flash.Error(c, msgSomethingWrong).Redirect(loginPath, fiber.StatusSeeOther)
	}
	if user.Status == models.STATUS_DISABLED {
		return flash.Error(c, "Esta conta está desativada.").Redirect(loginPath, fiber.StatusSeeOther)
	}

	err = session.Login(oc.sessions, c, session.Identity{
		UserID:  user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Avatar:  avatar.URL(user.AvatarURL, user.Email, 80),
		IsAdmin: user.Role == models.ROLE_ADMIN,
	})
	if err != nil {
		log.Errorf("[OAuth] Session for user %d failed: %v", user.ID, err)
		return flash.Error(c, msgSomethingWrong).Redirect(loginPath, fiber.StatusSeeOther)
	}

	now := oc.now()
	user.LastLoginAt = &now
	if err := oc.users.Update(c.UserContext(), user); err != nil {
		log.Warnf("[OAuth] Updating last login of user %d failed: %v", user.ID, err)
	}

	return c.Redirect(dashboardPath, fiber.StatusSeeOther)
}

// resolveUser finds the user linked to the provider identity. Unknown
// identities are matched by email, otherwise a new active user is created.
func (oc *OAuthController) resolveUser(c *fiber.Ctx, u goth.User) (*models.User, error) {
	ctx := c.UserContext()

	account, err := oc.users.GetProviderAccount(ctx, u.Provider, u.UserID)
	switch {
	case err == nil:
		account.AccessToken = u.AccessToken
		account.RefreshToken = u.RefreshToken
		account.ExpiresAt = expiry(u)
		if err := oc.users.SaveProviderAccount(ctx, account); err != nil {
			return nil, fmt.Errorf("update tokens: %w", err)
		}
		return oc.users.GetByID(ctx, account.UserID)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	var user *models.User
	if u.Email != "" {
		user, err = oc.users.GetByEmail(ctx, u.Email)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if user == nil {
		user, err = oc.createUser(c, u)
		if err != nil {
			return nil, err
		}
	}

	link := &models.ProviderAccount{
		UserID:         user.ID,
		Provider:       u.Provider,
		ProviderUserID: u.UserID,
		AccessToken:    u.AccessToken,
		RefreshToken:   u.RefreshToken,
		ExpiresAt:      expiry(u),
	}
	if err := oc.users.SaveProviderAccount(ctx, link); err != nil {
		return nil, fmt.Errorf("link provider: %w", err)
	}
	return user, nil
}

func (oc *OAuthController) createUser(c *fiber.Ctx, u goth.User) (*models.User, error) {
	// The password is never used; it only satisfies the model validation.
	placeholder := make([]byte, 24)
	if _, err := rand.Read(placeholder); err != nil {
		return nil, err
	}
	hash, err := models.HashPassword(hex.EncodeToString(placeholder))
	if err != nil {
		return nil, err
	}

	email := u.Email
	if email == "" {
		// TikTok does not share an address; keep the unique index satisfied.
		email = fmt.Sprintf("%s_%s@%s.oauth.local", u.Provider, u.UserID, u.Provider)
	}
	user := &models.User{
		Name:      firstNonEmpty(u.Name, u.NickName, u.Email, "Usuário"),
		Email:     email,
		Password:  hash,
		Role:      models.ROLE_USER,
		Status:    models.STATUS_ACTIVE,
		AvatarURL: u.AvatarURL,
	}
	if err := oc.users.Create(c.UserContext(), user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func expiry(u goth.User) *time.Time {
	if u.ExpiresAt.IsZero() {
		return nil
	}
	t := u.ExpiresAt
	return &t
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
