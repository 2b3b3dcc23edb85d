package vault

import (
	"context"

	"github.com/xkilldash9x/formscript/api/schemas"
)

// Fill completes the login fields of profile from the first credential the
// vault holds for pageURL. Fields the profile already carries are kept. The
// profile is returned unchanged when v is nil, pageURL is empty, both login
// fields are already set or nothing matches.
func Fill(ctx context.Context, v schemas.CredentialVault, pageURL string, profile schemas.UserProfile) (schemas.UserProfile, error) {
	if v == nil || pageURL == "" || (profile.Username != "" && profile.Password != "") {
		return profile, nil
	}
	creds, err := v.CredentialsFor(ctx, pageURL)
	if err != nil {
		return profile, err
	}
	if len(creds) == 0 {
		return profile, nil
	}

	c := creds[0]
	if profile.Username == "" {
		profile.Username = c.Username
	}
	if profile.Password == "" {
		profile.Password = c.Password
	}
	return profile, nil
}
