package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"gorm.io/gorm"

	"github.com/trendhack/dashboard/app/models"
	"github.com/trendhack/dashboard/app/repository"
	"github.com/trendhack/dashboard/internal/pkg/avatar"
	"github.com/trendhack/dashboard/internal/pkg/flash"
	"github.com/trendhack/dashboard/internal/pkg/hcaptcha"
	"github.com/trendhack/dashboard/internal/pkg/mail"
	"github.com/trendhack/dashboard/internal/pkg/session"
	"github.com/trendhack/dashboard/internal/pkg/usercontext"
)

const (
	loginPath     = "/login"
	dashboardPath = "/dashboard"

	msgLoginFailed    = "E-mail ou senha inválidos."
	msgInvalidCode    = "Link inválido ou expirado. Faça login novamente."
	msgSomethingWrong = "Algo deu errado. Tente novamente."
)

// CaptchaVerifier checks the challenge answer of the register form.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// AuthController handles the form login, registration, password reset and
// the emailed callback link.
type AuthController struct {
	users    repository.UserRepository
	sessions *fibersession.Store
	mailer   mail.Mailer
	captcha  CaptchaVerifier
	baseURL  string
	now      func() time.Time
}

// NewAuthController builds the controller. A nil captcha skips the check.
func NewAuthController(users repository.UserRepository, sessions *fibersession.Store, mailer mail.Mailer, captcha CaptchaVerifier, baseURL string, now func() time.Time) *AuthController {
	return &AuthController{users: users, sessions: sessions, mailer: mailer, captcha: captcha, baseURL: baseURL, now: now}
}

func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	ctx := c.UserContext()

	// notice: the message never tells which of email or password was wrong
	user, err := ac.users.GetByEmail(ctx, c.FormValue("email"))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("[Auth] Login lookup failed: %v", err)
		}
		return flash.Error(c, msgLoginFailed).Redirect(loginPath, fiber.StatusSeeOther)
	}
	if !user.CheckPassword(c.FormValue("password")) {
		return flash.Error(c, msgLoginFailed).Redirect(loginPath, fiber.StatusSeeOther)
	}
	if !user.IsActive() {
		return flash.Error(c, "Sua conta ainda não foi ativada. Verifique seu e-mail.").Redirect(loginPath, fiber.StatusSeeOther)
	}

	return ac.signIn(c, user)
}

func (ac *AuthController) HandleRegister(c *fiber.Ctx) error {
	ctx := c.UserContext()
	registerPath := "/register"

	if ac.captcha != nil {
		if err := ac.captcha.Verify(ctx, c.FormValue(hcaptcha.FormField), ClientIP(c)); err != nil {
			log.Infof("[Auth] Captcha rejected: %v", err)
			return flash.Error(c, "Confirme que você não é um robô.").Redirect(registerPath, fiber.StatusSeeOther)
		}
	}
	if c.FormValue("password") != c.FormValue("password_confirm") {
		return flash.Error(c, "As senhas não conferem.").Redirect(registerPath, fiber.StatusSeeOther)
	}

	user, err := models.CreateUser(c.FormValue("name"), c.FormValue("email"), c.FormValue("password"))
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return flash.Error(c, "Verifique os dados informados: "+validationMessage(err)).Redirect(registerPath, fiber.StatusSeeOther)
		}
		log.Errorf("[Auth] Building user failed: %v", err)
		return flash.Error(c, msgSomethingWrong).Redirect(registerPath, fiber.StatusSeeOther)
	}
	if err := user.GenerateActivationToken(); err != nil {
		log.Errorf("[Auth] Activation token failed: %v", err)
		return flash.Error(c, msgSomethingWrong).Redirect(registerPath, fiber.StatusSeeOther)
	}

	if err := ac.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return flash.Error(c, "Este e-mail já está cadastrado.").Redirect(registerPath, fiber.StatusSeeOther)
		}
		log.Errorf("[Auth] Creating user failed: %v", err)
		return flash.Error(c, msgSomethingWrong).Redirect(registerPath, fiber.StatusSeeOther)
	}

	link := ac.baseURL + "/auth/callback?code=" + user.ActivationToken
	if err := ac.mailer.Send(user.Email, "Ative sua conta Trend Hack", mail.ActivationBody(user.Name, link)); err != nil {
		log.Warnf("[Auth] Activation email to user %d failed: %v", user.ID, err)
	}

	return flash.Success(c, "Cadastro realizado! Enviamos um link de ativação para o seu e-mail.").Redirect(loginPath, fiber.StatusSeeOther)
}

// HandleCallback exchanges a one-time emailed code for a session.
func (ac *AuthController) HandleCallback(c *fiber.Ctx) error {
	ctx := c.UserContext()
	code := c.Query("code")
	if code == "" {
		return flash.Error(c, msgInvalidCode).Redirect(loginPath, fiber.StatusSeeOther)
	}

	user, err := ac.users.GetByActivationToken(ctx, code)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("[Auth] Callback lookup failed: %v", err)
		}
		return flash.Error(c, msgInvalidCode).Redirect(loginPath, fiber.StatusSeeOther)
	}
	if !user.IsActivationTokenValid(code, ac.now()) || user.Status == models.STATUS_DISABLED {
		return flash.Error(c, msgInvalidCode).Redirect(loginPath, fiber.StatusSeeOther)
	}

	user.Activate()
	if err := ac.users.Update(ctx, user); err != nil {
		log.Errorf("[Auth] Activating user %d failed: %v", user.ID, err)
		return flash.Error(c, msgSomethingWrong).Redirect(loginPath, fiber.StatusSeeOther)
	}

	return ac.signIn(c, user)
}

func (ac *AuthController) HandleLogout(c *fiber.Ctx) error {
	if err := session.Logout(ac.sessions, c); err != nil {
		log.Warnf("[Auth] Destroying session failed: %v", err)
	}
	usercontext.Set(c, usercontext.UserContext{})
	return flash.Success(c, "Você saiu da sua conta.").Redirect(loginPath, fiber.StatusSeeOther)
}

// HandleForgotPassword mails a reset code. The answer is the same whether or
// not the address exists.
func (ac *AuthController) HandleForgotPassword(c *fiber.Ctx) error {
	ctx := c.UserContext()
	done := func() error {
		return flash.Success(c, "Se o e-mail estiver cadastrado, você receberá um código de redefinição.").Redirect("/password/reset", fiber.StatusSeeOther)
	}

	user, err := ac.users.GetByEmail(ctx, c.FormValue("email"))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("[Auth] Password reset lookup failed: %v", err)
		}
		return done()
	}
	if user.Status == models.STATUS_DISABLED {
		return done()
	}

	if err := user.GenerateResetToken(); err != nil {
		log.Errorf("[Auth] Reset token failed: %v", err)
		return done()
	}
	if err := ac.users.Update(ctx, user); err != nil {
		log.Errorf("[Auth] Saving reset token for user %d failed: %v", user.ID, err)
		return done()
	}
	if err := ac.mailer.Send(user.Email, "Redefinição de senha Trend Hack", mail.ResetBody(user.Name, user.ResetToken)); err != nil {
		log.Warnf("[Auth] Reset email to user %d failed: %v", user.ID, err)
	}
	return done()
}

func (ac *AuthController) HandleResetPassword(c *fiber.Ctx) error {
	ctx := c.UserContext()
	resetPath := "/password/reset"
	code := c.FormValue("code")
	password := c.FormValue("password")

	if password != c.FormValue("password_confirm") {
		return flash.Error(c, "As senhas não conferem.").Redirect(resetPath, fiber.StatusSeeOther)
	}
	if len(password) < 6 {
		return flash.Error(c, "A senha deve ter pelo menos 6 caracteres.").Redirect(resetPath, fiber.StatusSeeOther)
	}

	user, err := ac.users.GetByResetToken(ctx, code)
	if err != nil || !user.IsResetTokenValid(code, ac.now()) {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("[Auth] Reset lookup failed: %v", err)
		}
		return flash.Error(c, "Código inválido ou expirado.").Redirect(resetPath, fiber.StatusSeeOther)
	}

	if err := user.SetPassword(password); err != nil {
		log.Errorf("[Auth] Hashing password failed: %v", err)
		return flash.Error(c, msgSomethingWrong).Redirect(resetPath, fiber.StatusSeeOther)
	}
	if err := ac.users.Update(ctx, user); err != nil {
		log.Errorf("[Auth] Saving password for user %d failed: %v", user.ID, err)
		return flash.Error(c, msgSomethingWrong).Redirect(resetPath, fiber.StatusSeeOther)
	}

	return flash.Success(c, "Senha alterada. Faça login com a nova senha.").Redirect(loginPath, fiber.StatusSeeOther)
}

// HandleSession reports the signed-in identity with the CSRF token the web
// client echoes in X-Csrf-Token.
func (ac *AuthController) HandleSession(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	csrfToken, _ := c.Locals("csrf").(string)

	resp := fiber.Map{
		"is_logged_in": userCtx.IsLoggedIn,
		"csrf_token":   csrfToken,
	}
	if msg := flash.Get(c); msg != nil {
		resp["flash"] = fiber.Map{"type": msg["type"], "message": msg["message"]}
	}
	if !userCtx.IsLoggedIn {
		return c.JSON(resp)
	}

	resp["user"] = fiber.Map{
		"id":       userCtx.UserID,
		"name":     userCtx.Username,
		"email":    userCtx.Email,
		"avatar":   userCtx.Avatar,
		"is_admin": userCtx.IsAdmin,
	}
	return c.JSON(resp)
}

// signIn stores the session, stamps the login time and sends the browser to
// the dashboard.
func (ac *AuthController) signIn(c *fiber.Ctx, user *models.User) error {
	err := session.Login(ac.sessions, c, session.Identity{
		UserID:  user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Avatar:  avatar.URL(user.AvatarURL, user.Email, 80),
		IsAdmin: user.Role == models.ROLE_ADMIN,
	})
	if err != nil {
		log.Errorf("[Auth] Session for user %d failed: %v", user.ID, err)
		return flash.Error(c, msgSomethingWrong).Redirect(loginPath, fiber.StatusSeeOther)
	}

	ac.touchLastLogin(c.UserContext(), user)

	return c.Redirect(dashboardPath, fiber.StatusSeeOther)
}

func (ac *AuthController) touchLastLogin(ctx context.Context, user *models.User) {
	now := ac.now()
	user.LastLoginAt = &now
	if err := ac.users.Update(ctx, user); err != nil {
		log.Warnf("[Auth] Updating last login of user %d failed: %v", user.ID, err)
	}
}
