package talknote

const (
	HeaderUserAgent   = "User-Agent"
	HeaderAuthToken   = "X-TALKNOTE-OAUTH-TOKEN"
	HeaderContentType = "Content-Type"

	ContentTypeForm = "application/x-www-form-urlencoded"
)

// UserAgent identifies this client and its version.
func UserAgent() string { return clientName + "/" + Version }

// buildHeaders returns the header set sent with every request: identity,
// auth token and form content type, with cfg.Headers applied on top.
func buildHeaders(cfg Config, auth AuthContext) map[string]string {
	defaults := map[string]string{
		HeaderUserAgent:   UserAgent(),
		HeaderAuthToken:   auth.AccessToken,
		HeaderContentType: ContentTypeForm,
	}
	return mergeHeaders(defaults, cfg.Headers)
}
