package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/copo/core"
	"github.com/trezcool/copo/core/user"
)

const (
	contextTokenKey = "userToken"
	contextUserKey  = "user"
	tokenType       = "bearer"
)

// Claims represents the authorization claims transmitted via a JWT.
// The subject is the principal's email.
type Claims struct {
	jwt.StandardClaims
	Role string `json:"role,omitempty"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

func GetUserClaims(conf *core.Config, usr user.User) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   usr.Email,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Role: usr.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	jwtConf := newJWTConfig(conf)
	token := jwt.NewWithClaims(jwt.GetSigningMethod(jwtConf.SigningMethod), claims)

	ss, err := token.SignedString(jwtConf.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}

// authenticate resolves the principal named by the token; it runs after the JWT middleware.
// A principal deleted after the token was issued is rejected.
func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		usr, err := s.deps.UserSvc.GetByEmail(ctx.Request().Context(), claims.Subject)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				return errUnauthorized
			}
			return errors.Wrap(err, "finding user by email")
		}
		ctx.Set(contextUserKey, usr)
		return next(ctx)
	}
}

func (s *Server) registerAuthAPI(g *echo.Group, authenticated []echo.MiddlewareFunc) {
	g.POST("/register", s.register)
	g.POST("/login", s.login)
	g.GET("/me", s.me, authenticated...)
}

func (s *Server) issueToken(ctx echo.Context, usr user.User) error {
	token, err := GenerateToken(s.deps.Conf, GetUserClaims(s.deps.Conf, usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: tokenType})
}

func (s *Server) register(ctx echo.Context) error {
	var nu user.NewUser
	if err := s.bind(ctx, &nu); err != nil {
		return err
	}
	if err := nu.Validate(s.deps.Validate); err != nil {
		return err
	}
	usr, err := s.deps.UserSvc.Register(ctx.Request().Context(), nu)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	return s.issueToken(ctx, usr)
}

func (s *Server) login(ctx echo.Context) error {
	var data loginRequest
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := s.deps.Validate.Struct(data); err != nil {
		return err
	}
	usr, err := s.deps.UserSvc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating user")
	}
	return s.issueToken(ctx, usr)
}

func (s *Server) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

// bind decodes the request body; decoding failures are client errors.
func (s *Server) bind(ctx echo.Context, dest interface{}) error {
	if err := ctx.Bind(dest); err != nil {
		if herr, ok := err.(*echo.HTTPError); ok {
			return herr
		}
		return core.NewValidationError(errors.Wrap(err, "invalid request body"))
	}
	return nil
}
