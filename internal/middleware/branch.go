package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// RequireBranch reads the branch id placed on the request by the upstream
// gateway after it has authorized the session. Requests without a valid
// positive id are refused; the branch is never taken from the body or query.
func RequireBranch(header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(header))
			if raw == "" {
				writeError(w, r, http.StatusUnauthorized, "branch_required", "Branch context is required", nil)
				return
			}
			branchID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || branchID <= 0 {
				writeError(w, r, http.StatusBadRequest, "invalid_branch", "Branch id must be a positive integer", map[string]any{"header": header})
				return
			}
			if sw, ok := w.(*statusResponseWriter); ok {
				sw.branchID = branchID
			}
			next.ServeHTTP(w, r.WithContext(WithBranch(r.Context(), branchID)))
		})
	}
}
