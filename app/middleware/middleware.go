package appMiddleware

import (
	"net/http"
)

// BlockInProduction guards development-only surfaces such as the profiler
// console. In production-like deployments the guarded routes answer 403
// instead of being silently absent, so probes get an explicit denial.
func BlockInProduction(isProduction bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProduction {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
