package paypal

import (
	"context"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/gebv/invoicer"
)

const tokenPath = "/v1/oauth2/token"

// Session holds the bearer token of the application.
//
// The token is obtained by Login and is never refreshed automatically: when
// it expires every protected call fails with an unauthorized APIError until
// Login is called again.
type Session struct {
	tokenURL   string
	httpClient *http.Client
	l          *zap.Logger

	mu    sync.RWMutex
	token string
}

func NewSession(tokenURL string, httpClient *http.Client) *Session {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Session{
		tokenURL:   tokenURL,
		httpClient: httpClient,
		l:          zap.L().Named("paypal_session"),
	}
}

// Login exchanges client credentials for a bearer token (OAuth2 client
// credentials grant, credentials in the Basic auth header).
// On failure the previous token is dropped.
func (s *Session) Login(ctx context.Context, creds invoicer.ClientCredentials) (string, error) {
	cfg := clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     s.tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	ctx = context.WithValue(withEndpoint(ctx, endpointToken), oauth2.HTTPClient, s.httpClient)
	tok, err := cfg.Token(ctx)
	if err != nil {
		s.setToken("")
		fields := []zap.Field{zap.String("url", s.tokenURL), zap.Error(err)}
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			fields = append(fields, zap.Int("status", re.Response.StatusCode))
		}
		s.l.Warn("Failed token exchange", fields...)
		return "", errors.Wrapf(invoicer.ErrAuth, "token exchange: %v", err)
	}
	if tok.AccessToken == "" {
		s.setToken("")
		return "", errors.Wrap(invoicer.ErrAuth, "token exchange: empty access_token")
	}
	s.setToken(tok.AccessToken)
	s.l.Info("Logged in.", zap.String("token_type", tok.TokenType), zap.Time("expiry", tok.Expiry))
	return tok.AccessToken, nil
}

// Token current bearer token, empty when not logged in.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) setToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}
