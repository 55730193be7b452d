package platform

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	serrors "principal-sync/core/errors"
	"principal-sync/core/model"

	"go.uber.org/zap"
)

// API paths under the platform root. The v1 public API lives under
// /callosum/v1; deletion goes through the session API.
const (
	loginPath          = "/callosum/v1/tspublic/v1/session/login"
	listPath           = "/callosum/v1/tspublic/v1/user/list"
	syncPath           = "/callosum/v1/tspublic/v1/user/sync"
	updatePasswordPath = "/callosum/v1/tspublic/v1/user/updatepassword"
	transferPath       = "/callosum/v1/tspublic/v1/user/transfer/ownership"
	deleteUsersPath    = "/callosum/v1/session/user/deleteusers"
	deleteGroupsPath   = "/callosum/v1/session/group/deletegroups"
	userHeadersPath    = "/callosum/v1/tspublic/v1/metadata/listobjectheaders?type=USER&batchsize=-1"
	groupHeadersPath   = "/callosum/v1/tspublic/v1/metadata/listobjectheaders?type=USER_GROUP&batchsize=-1"
)

// SyncResult reports what the bulk sync endpoint changed.
type SyncResult struct {
	UsersAdded    []string `json:"usersAdded"`
	UsersUpdated  []string `json:"usersUpdated"`
	UsersDeleted  []string `json:"usersDeleted"`
	GroupsAdded   []string `json:"groupsAdded"`
	GroupsUpdated []string `json:"groupsUpdated"`
	GroupsDeleted []string `json:"groupsDeleted"`
}

// Client defines the platform operations used by the sync features.
type Client interface {
	// FetchUsersAndGroups downloads all principals as a snapshot.
	FetchUsersAndGroups(ctx context.Context) (*model.Snapshot, error)
	// SyncPrincipals uploads the snapshot to the bulk sync endpoint.
	// With applyChanges false the platform only reports what would change.
	SyncPrincipals(ctx context.Context, snap *model.Snapshot, applyChanges, removeDeleted bool) (*SyncResult, error)
	// DeleteUsers deletes users by login name. Unknown names are skipped.
	DeleteUsers(ctx context.Context, names []string) error
	// DeleteGroups deletes groups by name. Unknown names are skipped.
	DeleteGroups(ctx context.Context, names []string) error
	// TransferOwnership moves all objects owned by one user to another.
	TransferOwnership(ctx context.Context, fromUser, toUser string) error
	// UpdateUserPassword sets a new password for a single user.
	UpdateUserPassword(ctx context.Context, name, password string) error
}

type restClient struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger

	loggedIn bool
}

// NewClient creates a REST client for the configured platform. No network
// call happens here; login is performed lazily on the first request.
func NewClient(cfg Config, log *zap.Logger) (Client, error) {
	if cfg.URL == "" {
		return nil, serrors.NewMissingOption("url", "platform")
	}
	if log == nil {
		log = zap.NewNop()
	}

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 120
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration, // Connection setup timeout
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration, // TLS Handshake timeout
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeoutDuration, // Wait for first response byte timeout
	}
	if cfg.DisableSSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &restClient{
		cfg: cfg,
		http: &http.Client{
			Jar:       jar,
			Transport: transport,
		},
		log: log,
	}, nil
}

func (c *restClient) endpoint(path string) string {
	return strings.TrimSuffix(c.cfg.URL, "/") + path
}

func (c *restClient) login(ctx context.Context) error {
	form := url.Values{}
	form.Set("username", c.cfg.Username)
	form.Set("password", c.cfg.Password)
	form.Set("rememberme", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(loginPath), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return serrors.NewTargetUnavailable(c.cfg.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return serrors.NewTargetUnavailable(c.cfg.URL,
			fmt.Errorf("login failed for %q (%d)", c.cfg.Username, resp.StatusCode))
	}

	c.loggedIn = true
	c.log.Debug("Logged into platform", zap.String("url", c.cfg.URL), zap.String("username", c.cfg.Username))
	return nil
}

// send builds the request through the factory, logging in first if needed.
// A 401 response invalidates the session and triggers one re-login and retry.
func (c *restClient) send(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	if !c.loggedIn {
		if err := c.login(ctx); err != nil {
			return nil, err
		}
	}

	req, err := build()
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, serrors.NewTargetUnavailable(c.cfg.URL, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		c.loggedIn = false
		if err := c.login(ctx); err != nil {
			return nil, err
		}
		req, err = build()
		if err != nil {
			return nil, err
		}
		resp, err = c.http.Do(req)
		if err != nil {
			return nil, serrors.NewTargetUnavailable(c.cfg.URL, err)
		}
	}

	return resp, nil
}

func (c *restClient) FetchUsersAndGroups(ctx context.Context) (*model.Snapshot, error) {
	resp, err := c.send(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(listPath), nil)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, serrors.NewTargetUnavailable(c.cfg.URL, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, serrors.NewTargetUnavailable(c.cfg.URL,
			fmt.Errorf("error getting users and groups (%d)", resp.StatusCode))
	}

	// The platform can legitimately return duplicates across principal
	// types; later entries win.
	snap, err := model.ParsePrincipals(body, model.DuplicateOverwrite)
	if err != nil {
		return nil, serrors.NewSourceFormat(c.cfg.URL, "principal list", err)
	}

	c.log.Debug("Fetched principals",
		zap.Int("users", snap.UserCount()),
		zap.Int("groups", snap.GroupCount()),
	)
	return snap, nil
}

func (c *restClient) SyncPrincipals(ctx context.Context, snap *model.Snapshot, applyChanges, removeDeleted bool) (*SyncResult, error) {
	if issues := snap.Validate(); len(issues) > 0 {
		return nil, serrors.NewSourceFormat(c.cfg.URL, strings.Join(issues, "; "), nil)
	}

	payload, err := model.MarshalPrincipals(snap)
	if err != nil {
		return nil, err
	}

	build := func() (*http.Request, error) {
		var buf strings.Builder
		w := multipart.NewWriter(&buf)

		part, err := w.CreateFormFile("principals", "principals.json")
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(payload); err != nil {
			return nil, err
		}
		if err := w.WriteField("applyChanges", fmt.Sprintf("%t", applyChanges)); err != nil {
			return nil, err
		}
		if err := w.WriteField("removeDeleted", fmt.Sprintf("%t", removeDeleted)); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(syncPath), strings.NewReader(buf.String()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", w.FormDataContentType())
		return req, nil
	}

	start := time.Now()
	resp, err := c.send(ctx, build)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, serrors.NewTargetUnavailable(c.cfg.URL, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, serrors.NewTargetUnavailable(c.cfg.URL,
			fmt.Errorf("error syncing users and groups (%d): %s", resp.StatusCode, body))
	}

	var result SyncResult
	if err := json.Unmarshal(body, &result); err != nil {
		// Some platform versions answer with plain text on success.
		c.log.Debug("Sync response is not JSON", zap.ByteString("body", body))
	}

	c.log.Info("Synced users and groups",
		zap.Bool("apply_changes", applyChanges),
		zap.Bool("remove_deleted", removeDeleted),
		zap.Duration("took", time.Since(start)),
	)
	return &result, nil
}

// objectHeader is one entry from the metadata headers endpoint.
type objectHeader struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c *restClient) resolveIDs(ctx context.Context, headersPath string, names []string) ([]string, error) {
	resp, err := c.send(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(headersPath), nil)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, serrors.NewTargetUnavailable(c.cfg.URL, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, serrors.NewTargetUnavailable(c.cfg.URL,
			fmt.Errorf("error getting metadata headers (%d)", resp.StatusCode))
	}

	var headers []objectHeader
	if err := json.Unmarshal(body, &headers); err != nil {
		return nil, serrors.NewSourceFormat(c.cfg.URL, "metadata headers", err)
	}

	byName := make(map[string]string, len(headers))
	for _, h := range headers {
		byName[h.Name] = h.ID
	}

	ids := make([]string, 0, len(names))
	for _, name := range names {
		id, ok := byName[name]
		if !ok {
			c.log.Warn("Principal not found, skipping delete", zap.String("name", name))
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *restClient) deleteByID(ctx context.Context, deletePath string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	encoded, err := json.Marshal(ids)
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, func() (*http.Request, error) {
		form := url.Values{}
		form.Set("ids", string(encoded))

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(deletePath), strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return serrors.NewTargetUnavailable(c.cfg.URL,
			fmt.Errorf("error deleting principals (%d): %s", resp.StatusCode, body))
	}
	return nil
}

func (c *restClient) DeleteUsers(ctx context.Context, names []string) error {
	ids, err := c.resolveIDs(ctx, userHeadersPath, names)
	if err != nil {
		return err
	}
	if err := c.deleteByID(ctx, deleteUsersPath, ids); err != nil {
		return err
	}
	c.log.Info("Deleted users", zap.Int("count", len(ids)))
	return nil
}

func (c *restClient) DeleteGroups(ctx context.Context, names []string) error {
	ids, err := c.resolveIDs(ctx, groupHeadersPath, names)
	if err != nil {
		return err
	}
	if err := c.deleteByID(ctx, deleteGroupsPath, ids); err != nil {
		return err
	}
	c.log.Info("Deleted groups", zap.Int("count", len(ids)))
	return nil
}

func (c *restClient) TransferOwnership(ctx context.Context, fromUser, toUser string) error {
	resp, err := c.send(ctx, func() (*http.Request, error) {
		q := url.Values{}
		q.Set("fromUserName", fromUser)
		q.Set("toUserName", toUser)

		return http.NewRequestWithContext(ctx, http.MethodPost,
			c.endpoint(transferPath)+"?"+q.Encode(), nil)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return serrors.NewTargetUnavailable(c.cfg.URL,
			fmt.Errorf("error transferring ownership to %q (%d): %s", toUser, resp.StatusCode, body))
	}

	c.log.Info("Transferred ownership", zap.String("from", fromUser), zap.String("to", toUser))
	return nil
}

func (c *restClient) UpdateUserPassword(ctx context.Context, name, password string) error {
	resp, err := c.send(ctx, func() (*http.Request, error) {
		form := url.Values{}
		form.Set("name", name)
		form.Set("currentpassword", c.cfg.Password)
		form.Set("password", password)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(updatePasswordPath), strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		c.log.Debug("Updated password", zap.String("name", name))
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusInternalServerError &&
		strings.Contains(string(body), "New password cannot be the same as current password") {
		c.log.Warn("Password unchanged, skipping update", zap.String("name", name))
		return nil
	}

	return serrors.NewTargetUnavailable(c.cfg.URL,
		fmt.Errorf("error updating password for %q (%d): %s", name, resp.StatusCode, body))
}
