package identity

import (
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// Middleware captures what the controller needs from the route gate.
type Middleware interface {
	Login(ctx router.Context, email, password string) (string, error)
	Logout(ctx router.Context)
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
	MakeAuthErrorHandler(optional bool) func(router.Context, error) error
}

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

type AuthControllerRoutes struct {
	Signup string
	Login  string
	Logout string
	Role   string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Routes       *AuthControllerRoutes
	Auther       Authenticator
	Middleware   Middleware
	Config       Config
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerMiddleware(mw Middleware) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Middleware = mw
		return c
	}
}

func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Routes: &AuthControllerRoutes{
			Signup: "/auth/signup",
			Login:  "/auth/login",
			Logout: "/auth/logout",
			Role:   "/auth/role",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Middleware == nil {
		panic("Missing route middleware in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the JSON endpoints. Role routes go behind the
// token gate; signup and login stay open.
func RegisterAuthRoutes(app RouteRegistrar, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	protected := controller.Middleware.ProtectedRoute(
		controller.Config,
		controller.Middleware.MakeAuthErrorHandler(false),
	)

	app.Post(controller.Routes.Signup, controller.SignupPost)
	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Post(controller.Routes.Logout, controller.LogoutPost)
	app.Post(controller.Routes.Role, controller.RoleSelectPost, protected)
	app.Get(controller.Routes.Role, controller.RoleGet, protected)

	return controller
}

// SignupRequest payload
type SignupRequest struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Phone    string `form:"phone_number" json:"phone_number"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 128)),
	)
}

func (a *AuthController) SignupPost(ctx router.Context) error {
	payload := new(SignupRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("signup parse payload: ", "error", err)
		return a.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "Error parsing body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("signup validate payload: ", "error", err)
		return ctx.JSON(http.StatusUnprocessableEntity, map[string]any{
			"error":      "Error validating payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		fmt.Println("======= AUTH SIGNUP ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("==========================")
	}

	req := RegisterUserMessage{
		Name:     payload.Name,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Password: payload.Password,
	}

	registerUser := NewRegisterUserHandler(a.Repo)
	user, err := registerUser.RegisterUser(ctx.Context(), req)
	if err != nil {
		a.Logger.Error("signup register error: ", "error", err)
		return a.renderError(ctx, err)
	}

	token, err := a.Auther.IssueFor(ctx.Context(), NewIdentityFromUser(user))
	if err != nil {
		a.Logger.Error("signup token error: ", "error", err)
		return a.renderError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, map[string]any{
		"token": token,
		"user":  userView(user),
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Email
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: ", "error", err)
		return a.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "Error parsing body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(http.StatusUnprocessableEntity, map[string]any{
			"error":      "Error validating payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	token, err := a.Middleware.Login(ctx, payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"token": token,
	})
}

func (a *AuthController) LogoutPost(ctx router.Context) error {
	a.Middleware.Logout(ctx)
	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
	})
}

// SelectRoleRequest payload
type SelectRoleRequest struct {
	Role string `form:"role" json:"role"`
}

// Validate will run validation rules
func (r SelectRoleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Role,
			validation.Required,
			validation.In(string(RoleUser), string(RoleOperator), string(RolePartner)),
		),
	)
}

// RoleSelectPost assigns the authenticated user their account role. The
// subject comes from the validated token, never from the payload.
func (a *AuthController) RoleSelectPost(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.Config.GetContextKey())
	if !ok {
		return a.renderError(ctx, ErrTokenMissing)
	}

	payload := new(SelectRoleRequest)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("role select parse payload: ", "error", err)
		return a.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "Error parsing body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(http.StatusUnprocessableEntity, map[string]any{
			"error":      "Error validating payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	req := SelectRoleMessage{
		UserID: claims.UserID(),
		Role:   payload.Role,
		Actor: ActorRef{
			ID:   claims.UserID(),
			Type: "user",
		},
	}

	selectRole := NewSelectRoleHandler(a.Repo)
	user, err := selectRole.SelectRole(ctx.Context(), req)
	if err != nil {
		a.Logger.Error("role select error: ", "error", err)
		return a.renderError(ctx, err)
	}

	// mint a fresh token so the new role takes effect immediately
	token, err := a.Auther.IssueFor(ctx.Context(), NewIdentityFromUser(user))
	if err != nil {
		a.Logger.Error("role select token error: ", "error", err)
		return a.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"token": token,
		"user":  userView(user),
	})
}

// RoleGet reports role assignment state straight from the token claims.
func (a *AuthController) RoleGet(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.Config.GetContextKey())
	if !ok {
		return a.renderError(ctx, ErrTokenMissing)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"role":          claims.Role(),
		"role_selected": claims.RoleSelected(),
	})
}

func (a *AuthController) renderError(ctx router.Context, err error) error {
	if a.ErrorHandler != nil {
		return a.ErrorHandler(ctx, err)
	}
	return defaultErrHandler(ctx, err)
}

func userView(user *User) map[string]any {
	return map[string]any{
		"id":            user.ID.String(),
		"email":         user.Email,
		"name":          user.Name,
		"role":          string(user.Role),
		"role_selected": user.RoleSelected,
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors to field messages.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["error"] = err.Error()
	return out
}

func defaultErrHandler(c router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		status = router.StatusInternalServerError
	}

	return c.JSON(status, map[string]any{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}
