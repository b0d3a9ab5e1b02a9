// Package tfs talks to a Team Foundation Server / Azure DevOps Server project
// collection: its REST API for history and identities, and the tf
// command-line client for workspaces.
package tfs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/masmgr/tfs2git/internal/errors"
	"github.com/masmgr/tfs2git/internal/identity"
	"golang.org/x/oauth2"
)

const (
	apiVersion         = "5.0"
	identityAPIVersion = "1.0"
	defaultPageSize    = 256
	descriptorBatch    = 100
	// maxCommentLength asks the server for comments in full.
	maxCommentLength = 1 << 20
)

// ValidUsersGroup is the collection-wide group every user belongs to.
const ValidUsersGroup = "Project Collection Valid Users"

// Client is a connection to one project collection.
type Client struct {
	collection    *url.URL
	http          *http.Client
	pageSize      int
	validUsers    string
	authenticated bool
}

// NewHTTPClient returns an HTTP client that sends token as a personal access
// token. An empty token yields http.DefaultClient, relying on ambient
// credentials (e.g. a proxy that performs integrated authentication).
func NewHTTPClient(ctx context.Context, token string) *http.Client {
	if token == "" {
		return http.DefaultClient
	}
	basic := base64.StdEncoding.EncodeToString([]byte(":" + token))
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: basic,
		TokenType:   "Basic",
	}))
}

// NewClient creates a client for the collection at collectionURI, e.g.
// https://tfsserver/tfs/AcmeCorp.
func NewClient(collectionURI string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(collectionURI))
	if err != nil {
		return nil, fmt.Errorf("invalid collection URI %q: %w", collectionURI, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid collection URI %q: expected an absolute http(s) URL", collectionURI)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		collection: u,
		http:       httpClient,
		pageSize:   defaultPageSize,
		validUsers: ValidUsersGroup,
	}, nil
}

// WithValidUsersGroup overrides the group expanded by ValidUsers.
func (c *Client) WithValidUsersGroup(name string) *Client {
	if name != "" {
		c.validUsers = name
	}
	return c
}

// URI returns the collection URI.
func (c *Client) URI() string {
	return c.collection.String()
}

// EnsureAuthenticated verifies the credentials once; later calls are no-ops.
func (c *Client) EnsureAuthenticated(ctx context.Context) error {
	if c.authenticated {
		return nil
	}
	var data struct {
		AuthenticatedUser struct {
			ProviderDisplayName string `json:"providerDisplayName"`
		} `json:"authenticatedUser"`
	}
	if err := c.getJSON(ctx, "_apis/connectionData", nil, &data); err != nil {
		return fmt.Errorf("authenticate against %s: %w", c.URI(), err)
	}
	c.authenticated = true
	return nil
}

// QueryHistory returns the ids of every changeset touching serverPath or
// anything beneath it, in the order the server reports them.
func (c *Client) QueryHistory(ctx context.Context, serverPath string) ([]int, error) {
	var ids []int
	for skip := 0; ; skip += c.pageSize {
		q := url.Values{}
		q.Set("searchCriteria.itemPath", serverPath)
		q.Set("$top", strconv.Itoa(c.pageSize))
		q.Set("$skip", strconv.Itoa(skip))

		var page changesetList
		if err := c.getJSON(ctx, "_apis/tfvc/changesets", q, &page); err != nil {
			return nil, fmt.Errorf("query history of %s: %w", serverPath, err)
		}
		for _, cs := range page.Value {
			ids = append(ids, cs.ChangesetID)
		}
		if len(page.Value) < c.pageSize {
			return ids, nil
		}
	}
}

// GetChangeset fetches the full metadata of one changeset.
func (c *Client) GetChangeset(ctx context.Context, id int) (Changeset, error) {
	q := url.Values{}
	q.Set("maxCommentLength", strconv.Itoa(maxCommentLength))

	var dto changesetDTO
	if err := c.getJSON(ctx, "_apis/tfvc/changesets/"+strconv.Itoa(id), q, &dto); err != nil {
		return Changeset{}, fmt.Errorf("get changeset %d: %w", id, err)
	}
	return dto.toChangeset(), nil
}

// ValidUsers expands the valid users group and returns its non-group members.
func (c *Client) ValidUsers(ctx context.Context) ([]identity.Member, error) {
	q := url.Values{}
	q.Set("searchFilter", "AccountName")
	q.Set("filterValue", c.validUsers)
	q.Set("queryMembership", "Expanded")

	var groups identityList
	if err := c.getJSONVersion(ctx, "_apis/identities", q, identityAPIVersion, &groups); err != nil {
		return nil, fmt.Errorf("read group %q: %w", c.validUsers, err)
	}
	if len(groups.Value) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("group %q", c.validUsers))
	}

	descriptors := groups.Value[0].Members
	var members []identity.Member
	for start := 0; start < len(descriptors); start += descriptorBatch {
		end := start + descriptorBatch
		if end > len(descriptors) {
			end = len(descriptors)
		}

		q := url.Values{}
		q.Set("descriptors", strings.Join(descriptors[start:end], ","))
		q.Set("queryMembership", "None")

		var batch identityList
		if err := c.getJSONVersion(ctx, "_apis/identities", q, identityAPIVersion, &batch); err != nil {
			return nil, fmt.Errorf("read members of %q: %w", c.validUsers, err)
		}
		for _, id := range batch.Value {
			if id.IsContainer {
				continue
			}
			members = append(members, identity.Member{
				UniqueName:  id.uniqueName(),
				DisplayName: id.displayName(),
				Mail:        id.property("Mail"),
			})
		}
	}
	return members, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	return c.getJSONVersion(ctx, path, query, apiVersion, v)
}

func (c *Client) getJSONVersion(ctx context.Context, path string, query url.Values, version string, v any) error {
	u := *c.collection
	u.Path = c.collection.Path + "/" + path
	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", version)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.NewUnauthorizedError(fmt.Sprintf("GET %s: %s", u.Path, resp.Status))
	// A sign-in page instead of JSON means the credentials were not accepted.
	case resp.StatusCode == http.StatusNonAuthoritativeInfo:
		return apperrors.NewUnauthorizedError(fmt.Sprintf("GET %s: redirected to sign-in", u.Path))
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NewNotFoundError(u.Path)
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: %s: %s", u.Path, resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", u.Path, err)
	}
	return nil
}

// Compile-time interface conformance check.
var _ identity.Directory = (*Client)(nil)
