package handlers

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/specialistvlad/algogrid/internal/datastore"
)

// DefaultRemoteTimeout bounds a single request to a remote document.
const DefaultRemoteTimeout = 30 * time.Second

// RemoteFactory returns a factory for JSON or YAML documents served over
// HTTP with client.
//
// Inputs are fetched once, when the container is opened, and served
// read-only. Their codec follows the response Content-Type and falls back
// to the extension of the URL path. Outputs start empty and every Set
// uploads the whole document with PUT, the way pre-signed object store
// URLs expect; their codec follows the URL extension.
func RemoteFactory(client *http.Client) Factory {
	return func(loc datastore.Location) (datastore.Handler, error) {
		if loc.Mode != datastore.ModeInput {
			c, err := remoteCodec(loc.Path, "")
			if err != nil {
				return nil, err
			}
			f := &File{loc: loc, codec: c, root: make(map[string]any)}
			f.save = func(data []byte) error { return upload(client, loc.Path, c.contentType, data) }
			return f, nil
		}
		return fetch(client, loc)
	}
}

func fetch(client *http.Client, loc datastore.Location) (*File, error) {
	req, err := http.NewRequest(http.MethodGet, loc.Path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", ContentTypeJSON+", "+ContentTypeYAML+";q=0.9")

	slog.Debug("Fetching remote document.", "url", loc.Path)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected response status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	c, err := remoteCodec(loc.Path, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	root, err := decodeDocument(body, c)
	if err != nil {
		return nil, err
	}
	slog.Debug("Remote document fetched.", "url", loc.Path, "status", resp.Status, "bytes", len(body))
	return &File{loc: loc, codec: c, root: root}, nil
}

func upload(client *http.Client, rawURL, contentType string, data []byte) error {
	req, err := http.NewRequest(http.MethodPut, rawURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.ContentLength = int64(len(data))
	req.Header.Set("Content-Type", contentType)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upload failed with status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	slog.Debug("Remote document uploaded.", "url", rawURL, "bytes", len(data))
	return nil
}

func remoteCodec(rawURL, contentType string) (codec, error) {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch {
		case mt == ContentTypeJSON || strings.HasSuffix(mt, "+json"):
			return jsonCodec, nil
		case mt == ContentTypeYAML || mt == "application/x-yaml" || mt == "text/yaml":
			return yamlCodec, nil
		}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return codec{}, err
	}
	switch strings.ToLower(path.Ext(u.Path)) {
	case ".json":
		return jsonCodec, nil
	case ".yaml", ".yml":
		return yamlCodec, nil
	}
	return codec{}, fmt.Errorf("%w: cannot tell the format of '%s' (content type '%s')", ErrHandlerNotFound, rawURL, contentType)
}
