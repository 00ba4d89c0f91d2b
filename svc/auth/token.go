package auth

import (
	"crypto/subtle"
	"strings"

	"sealbin/cfg"
	"sealbin/pkg/domain"
	"sealbin/svc/util"
)

// Authority checks request credentials against the two static token tiers
// configured at startup: the single shared API token and the admin token set.
// Tokens never rotate at runtime; there is no session state.
type Authority struct {
	apiToken    []byte
	adminTokens [][]byte
}

func NewAuthority(c *cfg.Cfg) *Authority {
	a := &Authority{apiToken: []byte(c.APIToken.Value())}
	for _, t := range c.AdminTokens {
		if v := t.Value(); v != "" {
			a.adminTokens = append(a.adminTokens, []byte(v))
		}
	}
	return a
}

// AuthorizeAPI distinguishes "no attempt" from "failed attempt": an absent
// credential is Unauthorized, a mismatched one is Forbidden.
func (a *Authority) AuthorizeAPI(credential string) error {
	if credential == "" {
		return domain.ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(credential), a.apiToken) != 1 {
		return domain.ErrForbidden
	}
	return nil
}

// AuthorizeAdmin runs a membership test over the admin token set. Absent and
// mismatched credentials are deliberately indistinguishable here.
func (a *Authority) AuthorizeAdmin(bearer string) error {
	token, ok := ParseBearer(bearer)
	if !ok {
		return domain.ErrUnauthorized
	}
	authorized := 0
	for _, admin := range a.adminTokens {
		authorized |= subtle.ConstantTimeCompare([]byte(token), admin)
	}
	if authorized != 1 {
		return domain.ErrUnauthorized
	}
	return nil
}

// Wipe zeroes the token material. Call on shutdown, after the server has
// stopped accepting requests.
func (a *Authority) Wipe() {
	util.Wipe(a.apiToken)
	for _, t := range a.adminTokens {
		util.Wipe(t)
	}
}

func ParseBearer(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := header[len(prefix):]
	return token, token != ""
}
