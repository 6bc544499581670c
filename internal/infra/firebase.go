// README: Firebase ID-token verification for API callers (uid plus the custom "role" claim).
package infra

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Caller roles carried in the "role" custom claim.
const (
	RoleStaff  = "staff"
	RoleClient = "client"
)

type FirebaseToken struct {
	UID    string
	Claims map[string]interface{}
}

// Claim returns a string custom claim, or "" when absent.
func (t *FirebaseToken) Claim(name string) string {
	if t == nil || t.Claims == nil {
		return ""
	}
	v, _ := t.Claims[name].(string)
	return v
}

// Role is the caller's role claim; tokens without one are treated as clients.
func (t *FirebaseToken) Role() string {
	if r := t.Claim("role"); r != "" {
		return r
	}
	return RoleClient
}

type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*FirebaseToken, error)
}

type firebaseVerifier struct {
	client       *auth.Client
	checkRevoked bool
}

// NewFirebaseVerifier verifies ID tokens issued for projectID. An empty
// credentialsFile falls back to application-default credentials. With
// checkRevoked every verification also asks Firebase whether the session
// was revoked, which costs one network round trip.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string, checkRevoked bool) (TokenVerifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase app.Auth: %w", err)
	}
	return &firebaseVerifier{client: client, checkRevoked: checkRevoked}, nil
}

func (v *firebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*FirebaseToken, error) {
	var (
		token *auth.Token
		err   error
	)
	if v.checkRevoked {
		token, err = v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	} else {
		token, err = v.client.VerifyIDToken(ctx, idToken)
	}
	if err != nil {
		return nil, err
	}
	return &FirebaseToken{UID: token.UID, Claims: token.Claims}, nil
}
