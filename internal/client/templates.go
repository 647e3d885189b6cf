package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/joestump/joe-writer/internal/catalog"
)

// FetchTemplates loads the backend's catalog, optionally filtered by query.
// Failures are *Error values.
func FetchTemplates(ctx context.Context, baseURL, query string, opts ...Option) (*catalog.Catalog, error) {
	o := buildOptions(DefaultGenerateTimeout, opts)
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	u := endpoint(baseURL, "/templates")
	if query != "" {
		u += "?" + url.Values{"q": {query}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	o.applyHeaders(req)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, transportOrUnknown(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportOrUnknown(fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, requestFailed(resp.StatusCode, backendError(body))
	}

	var out struct {
		Templates []catalog.TemplateDoc `json:"templates"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, malformed(fmt.Errorf("decode response: %w", err))
	}
	cat, err := catalog.FromDocs(out.Templates)
	if err != nil {
		return nil, malformed(err)
	}
	return cat, nil
}
