package account

import (
	"net/http"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

type AuthControllerRoutes struct {
	Login          string
	Me             string
	Register       string
	ResendConfirm  string
	Confirm        string
	ForgetPassword string
	ResetPassword  string
}

type AuthController struct {
	Service    Lifecycle
	Logger     Logger
	Routes     *AuthControllerRoutes
	ContextKey string
	// Protected guards routes that need a session, see ProtectedRoute
	Protected router.MiddlewareFunc
	// Throttle, when set, runs before the mail dispatching routes
	Throttle     router.MiddlewareFunc
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithProtectedRoute(h router.MiddlewareFunc, contextKey string) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Protected = h
		if contextKey != "" {
			c.ContextKey = contextKey
		}
		return c
	}
}

func WithThrottle(h router.MiddlewareFunc) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Throttle = h
		return c
	}
}

// WithErrorHandler replaces the handler that renders failed requests
func WithErrorHandler(h router.ErrorHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.ErrorHandler = h
		return c
	}
}

func NewAuthController(service Lifecycle, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Service:    service,
		Logger:     defLogger{},
		ContextKey: "user",
		Routes: &AuthControllerRoutes{
			Login:          "/login",
			Me:             "/me",
			Register:       "/register",
			ResendConfirm:  "/resend-confirm",
			Confirm:        "/confirm/:confirmToken",
			ForgetPassword: "/forget-password",
			ResetPassword:  "/reset-password/:resetToken",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Service == nil {
		panic("Missing Lifecycle service in auth controller...")
	}

	if c.Protected == nil {
		panic("Missing protected route middleware in auth controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = NewErrorHandler(c.Logger)
	}

	return c
}

// RegisterAuthRoutes mounts the account routes on app
func RegisterAuthRoutes[T any](app router.Router[T], service Lifecycle, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(service, opts...)

	var throttle []router.MiddlewareFunc
	if controller.Throttle != nil {
		throttle = append(throttle, controller.Throttle)
	}

	app.Post(controller.Routes.Login, controller.Login).SetName("login.post")
	app.Get(controller.Routes.Me, controller.Me, controller.Protected).SetName("me.get")
	app.Post(controller.Routes.Register, controller.Register).SetName("register.post")
	app.Post(controller.Routes.ResendConfirm, controller.ResendConfirm, throttle...).SetName("resend-confirm.post")
	app.Post(controller.Routes.Confirm, controller.Confirm).SetName("confirm.post")
	app.Post(controller.Routes.ForgetPassword, controller.ForgetPassword, throttle...).SetName("forget-password.post")
	app.Post(controller.Routes.ResetPassword, controller.ResetPassword).SetName("reset-password.post")
	app.Get(controller.Routes.ResetPassword, controller.CheckResetLink).SetName("reset-password.get")

	return controller
}

func (a *AuthController) Login(ctx router.Context) error {
	payload := new(LoginRequest)
	if err := bindAndValidate(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	result, err := a.Service.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, result)
}

func (a *AuthController) Me(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.ContextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrTokenMalformed)
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return a.ErrorHandler(ctx, ErrTokenMalformed)
	}

	user, err := a.Service.Me(ctx.Context(), id)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, NewUserView(user))
}

func (a *AuthController) Register(ctx router.Context) error {
	payload := new(RegisterRequest)
	if err := bindAndValidate(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	user, err := a.Service.Register(ctx.Context(), payload.Message())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, NewUserView(user))
}

func (a *AuthController) ResendConfirm(ctx router.Context) error {
	payload := new(EmailRequest)
	if err := bindAndValidate(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	user, err := a.Service.ResendConfirmation(ctx.Context(), payload.Email)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, NewUserView(user))
}

func (a *AuthController) Confirm(ctx router.Context) error {
	user, err := a.Service.ConfirmAccount(ctx.Context(), ctx.Param("confirmToken"))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, NewUserView(user))
}

func (a *AuthController) ForgetPassword(ctx router.Context) error {
	payload := new(EmailRequest)
	if err := bindAndValidate(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	user, err := a.Service.ForgotPassword(ctx.Context(), payload.Email)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, NewUserView(user))
}

func (a *AuthController) ResetPassword(ctx router.Context) error {
	payload := new(ResetPasswordRequest)
	if err := bindAndValidate(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	user, err := a.Service.ResetPassword(ctx.Context(), ctx.Param("resetToken"), payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, NewUserView(user))
}

func (a *AuthController) CheckResetLink(ctx router.Context) error {
	user, err := a.Service.CheckResetLink(ctx.Context(), ctx.Param("resetToken"))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, NewUserView(user))
}

type validatable interface {
	Validate() error
}

func bindAndValidate(ctx router.Context, payload validatable) error {
	if err := ctx.Bind(payload); err != nil {
		return ErrInvalidRequestBody
	}
	if err := payload.Validate(); err != nil {
		return NewValidationError(err)
	}
	return nil
}
