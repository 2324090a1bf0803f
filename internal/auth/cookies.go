package auth

import (
	"encoding/base64"
	"net/http"

	"obraflow/internal"

	"github.com/gorilla/securecookie"
)

// CookieCodec encrypts the access token into the session cookie.
type CookieCodec struct {
	cookie *securecookie.SecureCookie
}

func NewCookieCodec(hashKeyB64, blockKeyB64 string) *CookieCodec {
	hashKey, _ := base64.StdEncoding.DecodeString(hashKeyB64)
	blockKey, _ := base64.StdEncoding.DecodeString(blockKeyB64)

	return &CookieCodec{cookie: securecookie.New(hashKey, blockKey)}
}

// Issue sets the httpOnly session cookie holding the access token.
func (c *CookieCodec) Issue(w http.ResponseWriter, accessToken string, maxAgeSec int) error {

	encrypted, err := c.cookie.Encode(internal.COOKIE_ACCESS_TOKEN_NAME, accessToken)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_ACCESS_TOKEN_NAME,
		Value:    encrypted,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAgeSec,
		Path:     "/",
	})

	return nil
}

// Read decrypts the access token from the request's session cookie.
func (c *CookieCodec) Read(r *http.Request) (string, error) {

	cookie, err := r.Cookie(internal.COOKIE_ACCESS_TOKEN_NAME)
	if err != nil {
		return "", err
	}

	var accessToken string
	if err := c.cookie.Decode(internal.COOKIE_ACCESS_TOKEN_NAME, cookie.Value, &accessToken); err != nil {
		return "", err
	}

	return accessToken, nil
}

// Clear expires the session cookie; any state -> signed out.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_ACCESS_TOKEN_NAME,
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}
