package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	ytapi "google.golang.org/api/youtube/v3"

	"vidlingo/internal/fileutil"
	"vidlingo/internal/services"
)

// OAuthConfig returns the Google OAuth client used for channel uploads.
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     endpoints.Google,
		Scopes:       []string{ytapi.YoutubeUploadScope},
	}
}

// ConsentURL returns the URL an operator visits to authorise channel. The
// channel name travels as the OAuth state.
func ConsentURL(cfg *oauth2.Config, channel string) string {
	return cfg.AuthCodeURL(channel, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// TokenStore reads and writes channel tokens.
type TokenStore struct {
	dir    string
	oauth  *oauth2.Config
	saveMu sync.Mutex
}

// NewTokenStore returns a store rooted at dir.
func NewTokenStore(dir string, cfg *oauth2.Config) *TokenStore {
	return &TokenStore{dir: dir, oauth: cfg}
}

// Path returns the token file for channel.
func (s *TokenStore) Path(channel string) (string, error) {
	channel = strings.TrimSpace(channel)
	if channel == "" || strings.ContainsAny(channel, `/\`) || channel == "." || channel == ".." {
		return "", fmt.Errorf("invalid channel name %q", channel)
	}
	return filepath.Join(s.dir, channel+".json"), nil
}

// Has reports whether channel has a stored token.
func (s *TokenStore) Has(channel string) bool {
	path, err := s.Path(channel)
	if err != nil {
		return false
	}
	ok, err := fileutil.RegularFileExists(path)
	return err == nil && ok
}

// List returns the channels with stored tokens.
func (s *TokenStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var channels []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		channels = append(channels, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(channels)
	return channels, nil
}

// Load reads channel's token.
func (s *TokenStore) Load(channel string) (*oauth2.Token, error) {
	path, err := s.Path(channel)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "publish", "load token", "", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrConfiguration, "publish", "load token",
				fmt.Sprintf("no credentials for channel %s; run `vidlingo channel setup %s`", channel, channel), nil)
		}
		return nil, services.Wrap(services.ErrConfiguration, "publish", "load token", path, err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "decode token", path, err)
	}
	return &token, nil
}

// Save writes channel's token with owner-only permissions.
func (s *TokenStore) Save(channel string, token *oauth2.Token) error {
	if token == nil {
		return errors.New("save token: nil token")
	}
	path, err := s.Path(channel)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return fileutil.WriteFileAtomic(path, data, 0o600)
}

// Exchange trades an authorization code for a token and stores it.
func (s *TokenStore) Exchange(ctx context.Context, channel, code string) (*oauth2.Token, error) {
	if s.oauth == nil {
		return nil, services.Wrap(services.ErrConfiguration, "channel", "exchange", "youtube client id and secret are required", nil)
	}
	token, err := s.oauth.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, services.Wrap(services.ErrDelegate, "channel", "exchange", "authorization code rejected", err)
	}
	if err := s.Save(channel, token); err != nil {
		return nil, err
	}
	return token, nil
}

// TokenSource returns a source for channel that persists refreshed tokens.
func (s *TokenStore) TokenSource(ctx context.Context, channel string) (oauth2.TokenSource, error) {
	if s.oauth == nil {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "token source", "youtube client id and secret are required", nil)
	}
	token, err := s.Load(channel)
	if err != nil {
		return nil, err
	}
	return &persistingSource{
		base:    s.oauth.TokenSource(ctx, token),
		store:   s,
		channel: channel,
		last:    token.AccessToken,
	}, nil
}

type persistingSource struct {
	base    oauth2.TokenSource
	store   *TokenStore
	channel string

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	token, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if token.AccessToken != p.last {
		if err := p.store.Save(p.channel, token); err != nil {
			return nil, fmt.Errorf("persist refreshed token: %w", err)
		}
		p.last = token.AccessToken
	}
	return token, nil
}
