package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gebv/invoicer"
)

const maxErrorBody = 1024

type client struct {
	httpClient *http.Client
	session    *Session
}

func newClient(httpClient *http.Client, session *Session) *client {
	return &client{
		httpClient: httpClient,
		session:    session,
	}
}

func (c *client) GETAndUnmarshalJson(ctx context.Context, endpoint, link string, out interface{}) (json.RawMessage, error) {
	return c.do(ctx, endpoint, http.MethodGet, link, nil, out)
}

func (c *client) POSTAndUnmarshalJson(ctx context.Context, endpoint, link string, in, out interface{}) (json.RawMessage, error) {
	return c.do(ctx, endpoint, http.MethodPost, link, in, out)
}

// do performs an authorized request. Out is filled only from a non-empty
// success body; the raw body is returned as is.
func (c *client) do(ctx context.Context, endpoint, method, link string, in, out interface{}) (json.RawMessage, error) {
	token := c.session.Token()
	if token == "" {
		return nil, errors.Wrapf(invoicer.ErrAuth, "%s: not logged in", endpoint)
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, errors.Wrap(err, "Failed marshal")
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(withEndpoint(ctx, endpoint), method, link, body)
	if err != nil {
		return nil, errors.Wrap(err, "Failed new request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if method == http.MethodPost {
		req.Header.Set("PayPal-Request-Id", uuid.NewString())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &invoicer.APIError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()
	b, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, &invoicer.APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: errors.Wrap(err, "Failed read all body")}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(b) > maxErrorBody {
			b = b[:maxErrorBody]
		}
		return nil, &invoicer.APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(b)}
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}
	if out != nil {
		if err := json.Unmarshal(b, out); err != nil {
			return nil, errors.Wrapf(invoicer.ErrAPI, "%s: malformed body: %v", endpoint, err)
		}
	}
	return json.RawMessage(b), nil
}
