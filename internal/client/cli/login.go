package cli

import (
	"context"
	"fmt"

	"github.com/example/fieldentry/internal/client/models"
)

// Login prompts for a token bundle and stores it. Empty answers leave the
// corresponding stored field untouched, so a user can paste a fresh ID token
// without re-entering the refresh material.
func (a *App) Login(ctx context.Context) error {

	idToken, err := GetSecret("Enter ID token", a.out)
	if err != nil {
		a.log.Error(ctx, "reading ID token", "error", err)
		return err
	}

	accessToken, err := GetSecret("Enter access token (optional)", a.out)
	if err != nil {
		a.log.Error(ctx, "reading access token", "error", err)
		return err
	}

	refreshMaterial, err := GetSecret("Enter refresh material (optional)", a.out)
	if err != nil {
		a.log.Error(ctx, "reading refresh material", "error", err)
		return err
	}

	err = a.creds.Save(ctx, models.StoredCredential{
		IDToken:         string(idToken),
		AccessToken:     string(accessToken),
		RefreshMaterial: string(refreshMaterial),
	})
	if err != nil {
		a.log.Error(ctx, "saving tokens", "error", err)
		return err
	}

	fmt.Fprintln(a.out, "Tokens stored.")
	return nil
}

// Logout discards any stored tokens.
func (a *App) Logout(ctx context.Context) error {
	a.creds.Clear(ctx)
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}
