package handlers

import (
	"net/url"
	"strings"

	apperrors "github.com/sarychlabs/sarychdb/pkg/errors"
)

// Target is a parsed sarych request target: which database, which
// operation, and optionally a query string and inline credentials.
type Target struct {
	Username  string
	Password  string
	Database  string
	Operation string
	Query     string
}

const sarychScheme = "sarychdb://"

// ParseTarget parses the url parameter of the /sarych endpoint. Two forms
// are accepted:
//
//	/database/operation[?query=...]
//	sarychdb://username@password/database/operation[?query=...]
//
// Credentials embedded in the sarychdb:// form are carried along but lose
// to header credentials when both are present.
func ParseTarget(raw string) (*Target, error) {
	switch {
	case raw == "":
		return nil, apperrors.NewBadRequestError("Missing 'url' parameter")
	case strings.HasPrefix(raw, sarychScheme):
		return parseSarychURL(strings.TrimPrefix(raw, sarychScheme))
	case strings.HasPrefix(raw, "/"):
		return parsePathTarget(raw)
	default:
		return nil, apperrors.NewBadRequestError("Target must be '/database/operation' or a sarychdb:// URL")
	}
}

func parseSarychURL(rest string) (*Target, error) {
	main, query, err := splitQuery(rest)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(main, "/")
	if len(parts) < 3 {
		return nil, apperrors.NewBadRequestError("Invalid format. Use: sarychdb://username@password/database/operation")
	}

	authPart := parts[0]
	username, password, found := strings.Cut(authPart, "@")
	if !found || username == "" || password == "" {
		return nil, apperrors.NewBadRequestError("Invalid authentication format. Use: username@password")
	}

	return &Target{
		Username:  username,
		Password:  password,
		Database:  parts[1],
		Operation: parts[2],
		Query:     query,
	}, nil
}

func parsePathTarget(raw string) (*Target, error) {
	main, query, err := splitQuery(raw)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(strings.Trim(main, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, apperrors.NewBadRequestError("Invalid target. Use: /database/operation")
	}

	return &Target{
		Database:  parts[0],
		Operation: parts[1],
		Query:     query,
	}, nil
}

// splitQuery separates the main part from the query string and extracts
// the "query" parameter, URL-decoded.
func splitQuery(raw string) (main, query string, err error) {
	main, queryString, found := strings.Cut(raw, "?")
	if !found {
		return main, "", nil
	}

	values, parseErr := url.ParseQuery(queryString)
	if parseErr != nil {
		return "", "", apperrors.NewBadRequestError("Invalid query string")
	}
	return main, values.Get("query"), nil
}
