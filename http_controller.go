package auth

import (
	"github.com/goliatone/go-router"
)

// SignupResponse is returned by a successful signup
type SignupResponse struct {
	Message string    `json:"message"`
	User    *UserView `json:"user"`
	Token   string    `json:"token"`
}

// LoginResponse is returned by a successful login. The identity fields are
// inlined next to the token.
type LoginResponse struct {
	Message string `json:"message"`
	UserView
	Token string `json:"token"`
}

// CheckResponse is returned by the session check endpoint
type CheckResponse struct {
	Message string    `json:"message"`
	User    *UserView `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Signup, controller.Signup).SetName("auth.signup")
	app.Post(controller.Routes.Login, controller.Login).SetName("auth.login")
	app.Post(controller.Routes.Logout, controller.Logout).SetName("auth.logout")

	protected := controller.HTTP.ProtectedRoute()
	app.Get(controller.Routes.Check, controller.Check, protected).SetName("auth.check")
	app.Get(controller.Routes.User, controller.User, protected).SetName("auth.user")

	return controller
}

type AuthControllerRoutes struct {
	Signup string
	Login  string
	Logout string
	Check  string
	User   string
}

type AuthController struct {
	Logger Logger
	Routes *AuthControllerRoutes
	Auther *Auther
	HTTP   *RouteAuthenticator
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		if logger != nil {
			ac.Logger = logger
		}
		return ac
	}
}

func WithAuther(auther *Auther) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Auther = auther
		return ac
	}
}

func WithHTTPAuthenticator(h *RouteAuthenticator) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.HTTP = h
		return ac
	}
}

func WithRoutes(routes *AuthControllerRoutes) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		if routes != nil {
			ac.Routes = routes
		}
		return ac
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Signup: "/signup",
			Login:  "/login",
			Logout: "/logout",
			Check:  "/check",
			User:   "/user",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Auther in auth controller...")
	}

	if c.HTTP == nil {
		panic("Missing RouteAuthenticator in auth controller...")
	}

	return c
}

func (a *AuthController) Signup(ctx router.Context) error {
	payload := new(SignupRequest)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Debug("Signup payload parse error", "error", err)
		return a.HTTP.ErrorHandler(ctx, withCause(ErrValidation, err))
	}

	session, err := a.Auther.Signup(ctx.Context(), *payload)
	if err != nil {
		return a.HTTP.ErrorHandler(ctx, err)
	}

	a.HTTP.SetSessionCookie(ctx, session.Cookie)

	return ctx.JSON(router.StatusCreated, SignupResponse{
		Message: "User created successfully",
		User:    session.User,
		Token:   session.Token,
	})
}

func (a *AuthController) Login(ctx router.Context) error {
	payload := new(LoginRequest)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Debug("Login payload parse error", "error", err)
		return a.HTTP.ErrorHandler(ctx, withCause(errLoginFieldsRequired, err))
	}

	session, err := a.Auther.Login(ctx.Context(), *payload)
	if err != nil {
		return a.HTTP.ErrorHandler(ctx, err)
	}

	a.HTTP.SetSessionCookie(ctx, session.Cookie)

	return ctx.JSON(router.StatusOK, LoginResponse{
		Message:  "Login successful",
		UserView: *session.User,
		Token:    session.Token,
	})
}

func (a *AuthController) Logout(ctx router.Context) error {
	a.HTTP.SetSessionCookie(ctx, a.Auther.Logout(ctx.Context()))

	return ctx.JSON(router.StatusOK, MessageResponse{
		Message: "Logged out successfully",
	})
}

func (a *AuthController) Check(ctx router.Context) error {
	identity, err := a.identity(ctx)
	if err != nil {
		return a.HTTP.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, CheckResponse{
		Message: "User is authenticated",
		User:    identity,
	})
}

func (a *AuthController) User(ctx router.Context) error {
	identity, err := a.identity(ctx)
	if err != nil {
		return a.HTTP.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, identity)
}

// identity reads the gate's result. Reaching a handler without one means
// the route was registered without ProtectedRoute.
func (a *AuthController) identity(ctx router.Context) (*UserView, error) {
	ac, ok := GetRouterAuthContext(ctx, a.HTTP.ContextKey())
	if !ok {
		return nil, ErrNoToken
	}
	if !ac.Authenticated() {
		if ac.Err != nil {
			return nil, ac.Err
		}
		return nil, ErrNoToken
	}
	return ac.Identity, nil
}
