package client

import (
	"context"
	"net/url"

	"github.com/rs/zerolog/log"
)

// clientAuthKey is the fixed application key the Echo Mobile web client
// sends alongside credentials (extracted from echomobile.org/dist/src/app.build.js).
const clientAuthKey = "JXEIUOVNQLKJDDHA2J"

// Login authenticates with the given user credentials. On success the
// decoded login context (organisation key, account timezone) is stored on
// the session, replacing any context from an earlier Login.
func (s *Session) Login(ctx context.Context, username, password string) error {
	log.Debug().Str("username", username).Msg("logging in")

	var resp loginResponse
	err := s.do(ctx, "POST", "authenticate/simple", url.Values{
		"_login":           {username},
		"_pw":              {password},
		"auth":             {clientAuthKey},
		"populate_session": {"1"},
	}, &resp)
	if err != nil {
		return err
	}

	s.login = &resp.LoginContext

	log.Debug().
		Str("enterprise", resp.Enterprise.Name).
		Str("tz", resp.TZ).
		Msg("logged in")
	return nil
}

// Accounts returns the linked accounts available to the logged-in user,
// in the order the server reports them.
func (s *Session) Accounts(ctx context.Context) ([]Account, error) {
	var resp accountsResponse
	err := s.do(ctx, "GET", "cms/account/me", url.Values{"with_linked": {"1"}}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Linked, nil
}

// Groups returns the contact groups available to the active account.
func (s *Session) Groups(ctx context.Context) ([]Group, error) {
	var resp groupsResponse
	if err := s.do(ctx, "GET", "cms/group", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Groups, nil
}

// Surveys returns the active surveys available to the active account.
func (s *Session) Surveys(ctx context.Context) ([]Survey, error) {
	var resp surveysResponse
	if err := s.do(ctx, "GET", "cms/survey", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Surveys, nil
}

// AccountKeyForName resolves an account name to its server key.
// The listing is fetched fresh; nothing is cached across calls.
func (s *Session) AccountKeyForName(ctx context.Context, name string) (string, error) {
	accounts, err := s.Accounts(ctx)
	if err != nil {
		return "", err
	}
	names := make([]string, len(accounts))
	keys := make([]string, len(accounts))
	for i, a := range accounts {
		names[i], keys[i] = a.Name, a.Key
	}
	return keyForName("account", name, names, keys)
}

// GroupKeyForName resolves a group name to its server key.
func (s *Session) GroupKeyForName(ctx context.Context, name string) (string, error) {
	groups, err := s.Groups(ctx)
	if err != nil {
		return "", err
	}
	names := make([]string, len(groups))
	keys := make([]string, len(groups))
	for i, g := range groups {
		names[i], keys[i] = g.Name, g.Key
	}
	return keyForName("group", name, names, keys)
}

// SurveyKeyForName resolves a survey name to its server key.
func (s *Session) SurveyKeyForName(ctx context.Context, name string) (string, error) {
	surveys, err := s.Surveys(ctx)
	if err != nil {
		return "", err
	}
	names := make([]string, len(surveys))
	keys := make([]string, len(surveys))
	for i, sv := range surveys {
		names[i], keys[i] = sv.Name, sv.Key
	}
	return keyForName("survey", name, names, keys)
}

// keyForName finds the key whose name matches exactly. Zero matches is a
// *NotFoundError carrying the available names; more than one match is an
// *AmbiguousNameError, fatal because platform names are assumed unique.
func keyForName(kind, name string, names, keys []string) (string, error) {
	key := ""
	matches := 0
	for i, n := range names {
		if n == name {
			key = keys[i]
			matches++
		}
	}
	switch matches {
	case 0:
		return "", &NotFoundError{Kind: kind, Name: name, Available: names}
	case 1:
		log.Debug().Str(kind, name).Str("key", key).Msg("resolved name")
		return key, nil
	default:
		return "", &AmbiguousNameError{Kind: kind, Name: name, Matches: matches}
	}
}

// UseAccountWithKey switches this session's server-side active account.
// Equivalent to choosing an account from the User -> Switch Accounts page.
func (s *Session) UseAccountWithKey(ctx context.Context, accountKey string) error {
	log.Debug().Str("account_key", accountKey).Msg("switching account")
	return s.do(ctx, "POST", "authenticate/linked", url.Values{"acckey": {accountKey}}, nil)
}

// UseAccountWithName switches to the linked account with the given name.
func (s *Session) UseAccountWithName(ctx context.Context, name string) error {
	key, err := s.AccountKeyForName(ctx, name)
	if err != nil {
		return err
	}
	return s.UseAccountWithKey(ctx, key)
}
