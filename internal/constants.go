package internal

const (
	COOKIE_ACCESS_TOKEN_NAME = "obraflow_access_token"
	COOKIE_REDIRECT_NAME     = "obraflow_redirect"
)
