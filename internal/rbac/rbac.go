// Package rbac maps roles to permission strings and exposes chi middlewares
// enforcing them. Roles are resident, evaluator and admin; the "is evaluator"
// decision lives here at the edge, never inside the calculators.
package rbac

import (
	"context"
	"net/http"
	"strings"
)

var RolePermissions = map[string][]string{
	"resident": {
		"grades:view-own",
		"attempt:create",
		"acta:view-own",
		"acta:sign-own",
		"titulation:view-own",
	},
	"evaluator": {
		"residents:list",
		"grades:view",
		"grades:override",
		"acta:generate",
		"acta:view",
		"acta:sign",
		"exam:evaluate",
		"titulation:view",
		"surveys:view",
	},
	"admin": {
		"*", // everything
	},
}

type Checker struct {
	rolePermissions map[string][]string
}

func NewChecker(rp map[string][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	return &Checker{rolePermissions: rp}
}

func (c *Checker) Has(role, perm string) bool {
	for _, p := range c.rolePermissions[role] {
		if p == "*" || p == perm {
			return true
		}
		if strings.HasSuffix(p, "*") && strings.HasPrefix(perm, strings.TrimSuffix(p, "*")) {
			return true
		}
	}
	return false
}

func (c *Checker) Any(role string, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

// ---- identity in context ----

type ctxKey int

const (
	ctxKeySubject ctxKey = iota
	ctxKeyRole
)

func WithIdentity(ctx context.Context, subject, role string) context.Context {
	ctx = context.WithValue(ctx, ctxKeySubject, subject)
	return context.WithValue(ctx, ctxKeyRole, role)
}

func SubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeySubject).(string)
	return s
}

func RoleFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeyRole).(string)
	return s
}

// ---- middlewares ----

var defaultChecker = NewChecker(nil)

// Require enforces a single permission.
func Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" || !defaultChecker.Has(role, perm) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAny enforces that the role has at least one of the permissions.
func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" || !defaultChecker.Any(role, perms...) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnerOr lets the owner through on ownPerm and everyone else on
// perm. Used for resident-owned reads and acta signing.
func RequireOwnerOr(ownPerm, perm string, isOwner func(r *http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if isOwner(r) && defaultChecker.Has(role, ownPerm) {
				next.ServeHTTP(w, r)
				return
			}
			if defaultChecker.Has(role, perm) {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "forbidden", http.StatusForbidden)
		})
	}
}
