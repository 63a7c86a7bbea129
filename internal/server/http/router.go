package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/server/domain"
	"github.com/aussiebroadwan/tokengate/internal/server/service"
	"github.com/aussiebroadwan/tokengate/internal/server/store"
	"github.com/aussiebroadwan/tokengate/pkg/httpx"
	"github.com/aussiebroadwan/tokengate/pkg/jwtauth"
	"github.com/aussiebroadwan/tokengate/pkg/slogx"

	_ "github.com/aussiebroadwan/tokengate/api/tokengate" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	auth         *jwtauth.Middleware
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store       store.Store
	UserService *service.UserService
}

func NewRouter(auth *jwtauth.Middleware, buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		auth:         auth,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerTokens()
	r.registerSystem()
	r.registerProtected()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title						tokengate API
//	@version					0.1.0
//	@description				Reference server for the jwtauth middleware. Tokens are HMAC-signed JWTs issued
//	@description				for a username and password and refreshed within a configurable leeway after expiry.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/tokengate
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerTokens() {
	cfg := r.auth.Config()

	// Issuance: strict limit by IP + identification field.
	r.handlePost(cfg.IssuanceEndpoint,
		httpx.Chain(r.auth.IssueHandler(),
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, cfg.IdentificationField),
		),
	)

	r.handlePost(cfg.RefreshEndpoint,
		httpx.Chain(r.auth.RefreshHandler(),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

// handlePost registers path with and without a trailing slash.
func (r *Router) handlePost(path string, h http.Handler) {
	r.Mux.Handle("POST "+path, h)
	r.Mux.Handle("POST "+path+"/{$}", h)
}

func (r *Router) registerSystem() {
	// Monitoring systems may poll frequently.
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

// registerProtected mounts everything else behind the gate. Unknown paths
// still need a valid token before they 404.
func (r *Router) registerProtected() {
	protected := http.NewServeMux()

	protected.Handle("GET /v1/me",
		httpx.Chain(http.HandlerFunc(MeHandler),
			withSubjectLogger,
			httpx.RateLimitByKey(httpx.LenientLimit, requestSubject),
		),
	)

	protected.Handle("GET /v1/users/{username}",
		httpx.Chain(&UserHandler{UserService: r.UserService},
			withSubjectLogger,
			httpx.RateLimitByKey(httpx.ModerateLimit, requestSubject),
			httpx.RequireAnyOf(requestRoles, domain.RoleAdmin),
		),
	)

	r.Mux.Handle("/", r.auth.Gate(protected))
}

// withSubjectLogger tags the request logger with the token subject.
func withSubjectLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if sub := requestSubject(req); sub != "" {
			req = req.WithContext(slogx.With(req.Context(), "sub", sub))
		}
		next.ServeHTTP(w, req)
	})
}
