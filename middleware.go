package aclkit

import (
	"net/http"
)

// Middleware provides HTTP middleware for gating handlers behind role
// membership. It speaks the guard's vocabulary (RoleID/Principal), so the
// host only has to say how to derive the caller from a request.
type Middleware struct {
	guard        *Guard
	getCaller    func(*http.Request) Principal
	errorHandler func(http.ResponseWriter, *http.Request, error)
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance.
//
// Example:
//
//	mw := aclkit.NewMiddleware(guard,
//	    aclkit.WithCallerExtractor(func(r *http.Request) aclkit.Principal {
//	        return aclkit.PrincipalFromString(r.Header.Get("X-User"))
//	    }),
//	)
func NewMiddleware(guard *Guard, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		guard:        guard,
		getCaller:    defaultGetCaller,
		errorHandler: defaultErrorHandler,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// WithCallerExtractor sets a custom function to extract the caller from a
// request. The default reads the caller from the request context (see
// WithCaller).
func WithCallerExtractor(fn func(*http.Request) Principal) MiddlewareOption {
	return func(m *Middleware) {
		m.getCaller = fn
	}
}

// WithErrorHandler sets a custom error handler for middleware.
func WithErrorHandler(fn func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *Middleware) {
		m.errorHandler = fn
	}
}

func defaultGetCaller(r *http.Request) Principal {
	return GetCaller(r.Context())
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	if IsAccessDenied(err) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if IsNoCaller(err) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// RoleExtractor derives the required role from an HTTP request. Use it when
// the gated role depends on the route.
type RoleExtractor func(*http.Request) (RoleID, error)

// StaticRole creates a RoleExtractor that always returns the same role.
//
// Example:
//
//	mw.RequireRoleFrom(aclkit.StaticRole(adminRole))
func StaticRole(role RoleID) RoleExtractor {
	return func(r *http.Request) (RoleID, error) {
		return role, nil
	}
}

// RoleFromHeader creates a RoleExtractor that derives the role from a header
// carrying a role name (see RoleFromName).
//
// Example:
//
//	mw.RequireRoleFrom(aclkit.RoleFromHeader("X-Required-Role"))
func RoleFromHeader(headerName string) RoleExtractor {
	return func(r *http.Request) (RoleID, error) {
		name := r.Header.Get(headerName)
		if name == "" {
			return 0, NewError(ErrAccessDenied, "role name not found in header")
		}
		return RoleFromName(name), nil
	}
}

// RequireRole creates middleware that only passes requests whose caller is a
// member of role.
//
// Example:
//
//	router.With(mw.RequireRole(minterRole)).Post("/mint", mintHandler)
func (m *Middleware) RequireRole(role RoleID) func(http.Handler) http.Handler {
	return m.RequireRoleFrom(StaticRole(role))
}

// RequireRoleFrom creates middleware that gates requests behind a role
// derived from the request itself.
func (m *Middleware) RequireRoleFrom(extractor RoleExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := m.getCaller(r)
			if caller.IsZero() {
				m.errorHandler(w, r, ErrNoCaller)
				return
			}

			role, err := extractor(r)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}

			if err := m.guard.RequireRole(role, caller); err != nil {
				m.errorHandler(w, r, err)
				return
			}

			// Make the caller available to the handler and the guard's
			// context-authenticated methods.
			ctx := WithCaller(r.Context(), caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAnyRole creates middleware that passes requests whose caller is a
// member of at least one of the given roles.
//
// Example:
//
//	router.With(mw.RequireAnyRole(adminRole, operatorRole)).
//	    Delete("/assets/{id}", deleteAssetHandler)
func (m *Middleware) RequireAnyRole(roles ...RoleID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := m.getCaller(r)
			if caller.IsZero() {
				m.errorHandler(w, r, ErrNoCaller)
				return
			}

			var err error
			for _, role := range roles {
				if err = m.guard.RequireRole(role, caller); err == nil {
					break
				}
			}
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}

			ctx := WithCaller(r.Context(), caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// InjectAuditContext creates middleware that extracts audit information from
// the request and adds it to the context, so grants and revokes performed by
// the handler carry request metadata in the audit log.
//
// Example:
//
//	router.Use(mw.InjectAuditContext())
func (m *Middleware) InjectAuditContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Extract IP address
			ip := r.Header.Get("X-Forwarded-For")
			if ip == "" {
				ip = r.Header.Get("X-Real-IP")
			}
			if ip == "" {
				ip = r.RemoteAddr
			}
			ctx = WithIPAddress(ctx, ip)

			// Extract User Agent
			ctx = WithUserAgent(ctx, r.UserAgent())

			// Extract Request ID (commonly set by other middleware)
			requestID := r.Header.Get("X-Request-ID")
			if requestID != "" {
				ctx = WithRequestID(ctx, requestID)
			}

			// Make the caller available to context-authenticated guard methods
			caller := m.getCaller(r)
			if !caller.IsZero() {
				ctx = WithCaller(ctx, caller)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
