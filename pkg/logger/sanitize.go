package logger

import "strings"

// SanitizedEmail masks an email address for logging (e.g., "u***@***.com")
func SanitizedEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return "[invalid-email]"
	}

	if len(local) > 1 {
		local = string(local[0]) + strings.Repeat("*", len(local)-1)
	}

	if parts := strings.Split(domain, "."); len(parts) > 1 {
		for i := 0; i < len(parts)-1; i++ {
			parts[i] = strings.Repeat("*", len(parts[i]))
		}
		domain = strings.Join(parts, ".")
	}

	return local + "@" + domain
}

var sensitiveParams = []string{
	"password",
	"token",
	"secret",
	"email",
	"auth",
	"session",
}

// SanitizeQueryString reports whether a query string contains sensitive
// parameters and should be redacted wholesale from request logs.
func SanitizeQueryString(rawQuery string) bool {
	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
