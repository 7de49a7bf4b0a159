package rest

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Client is the Client Binder: given a [Contract] and a base URL, it
// builds requests, serializes parameters, and parses responses for every
// operation.
//
// Client does not itself implement a user interface — Go cannot synthesize
// an arbitrary interface's underlying type purely via reflection. Instead
// [Client.Bind] takes a pointer to a plain struct whose exported fields are
// func-typed, one per operation (named after [Operation.GoMethod]), and
// fills each with a reflect.MakeFunc closure; sub-contract operations bind
// to a pointer-to-struct field instead, populated eagerly. This is the
// idiomatic-Go shape of "reflective client proxy".
type Client struct {
	httpClient *http.Client
	codec      Codec
	filter     func(*http.Request) error
}

// ClientOption configures a [Client].
type ClientOption func(*Client)

// WithHTTPClient overrides the *http.Client used to issue requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithRequestFilter installs a hook that may mutate every outgoing request
// (for example, to add an Authorization header) before it is sent.
func WithRequestFilter(f func(*http.Request) error) ClientOption {
	return func(c *Client) { c.filter = f }
}

// WithClientCodec overrides the wire codec (default [JSON]).
func WithClientCodec(codec Codec) ClientOption {
	return func(c *Client) { c.codec = codec }
}

// NewClient builds a Client Binder.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{httpClient: http.DefaultClient, codec: JSON()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bind populates target (a pointer to a struct) with one reflect.MakeFunc
// closure per non-sub-contract operation in contract, and one recursively
// bound child struct per sub-contract operation, rooted at baseURL joined
// with contract's own derived root path.
func (c *Client) Bind(target any, baseURL string, contract *Contract) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("rest: Bind target must be a pointer to struct, got %T", target)
	}
	root := joinURL(baseURL, NormalizeRootPath(contract))
	return c.bindStruct(v.Elem(), root, contract)
}

func (c *Client) bindStruct(structVal reflect.Value, baseURL string, contract *Contract) error {
	for _, op := range contract.Operations {
		field := structVal.FieldByName(op.GoMethod)
		if !field.IsValid() {
			continue
		}

		if op.Sub != nil {
			if field.Kind() != reflect.Ptr || field.Type().Elem().Kind() != reflect.Struct {
				return fmt.Errorf("rest: field %q for sub-contract %q must be a pointer to struct", op.GoMethod, op.ID)
			}
			_, _, relPath := DeriveRoute(op)
			child := reflect.New(field.Type().Elem())
			if err := c.bindStruct(child.Elem(), joinURL(baseURL, relPath), op.Sub); err != nil {
				return err
			}
			field.Set(child)
			continue
		}

		if field.Kind() != reflect.Func {
			return fmt.Errorf("rest: field %q for operation %q must be a function", op.GoMethod, op.ID)
		}
		field.Set(c.makeCaller(field.Type(), baseURL, op))
	}
	return nil
}

func (c *Client) makeCaller(fnType reflect.Type, baseURL string, op *Operation) reflect.Value {
	return reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		result, err := c.invoke(baseURL, op, args)

		out := make([]reflect.Value, fnType.NumOut())
		if fnType.NumOut() == 2 {
			if err != nil {
				out[0] = reflect.Zero(fnType.Out(0))
			} else {
				out[0] = result
			}
			out[1] = errorValue(err)
		} else {
			out[0] = errorValue(err)
		}
		return out
	})
}

// joinURL joins a base URL (which may already carry a scheme's "//") with a
// relative path segment, producing exactly one "/" between them.
func joinURL(base, rel string) string {
	base = strings.TrimRight(base, "/")
	rel = strings.TrimLeft(rel, "/")
	if rel == "" {
		return base + "/"
	}
	return base + "/" + rel
}

func errorValue(err error) reflect.Value {
	if err == nil {
		return reflect.Zero(errorType)
	}
	return reflect.ValueOf(err)
}

func (c *Client) invoke(baseURL string, op *Operation, args []reflect.Value) (reflect.Value, error) {
	pathOverridden, verb, relPath := DeriveRoute(op)

	hasLegacyID := len(op.Params) > 0 && op.Params[0].Kind() == ParamLegacyID
	var legacyID string
	urlPath := relPath
	if hasLegacyID {
		legacyID = encodeRESTString(args[0]).Raw
		if relPath == "" {
			urlPath = ":id"
		} else {
			urlPath = ":id/" + relPath
		}
	}
	if pathOverridden {
		urlPath = op.PathOverride
	}

	substituted, err := c.substitutePlaceholders(urlPath, op, args, legacyID)
	if err != nil {
		return reflect.Value{}, err
	}
	reqURL := joinURL(baseURL, substituted)

	var req *http.Request
	if verb == GET || verb == HEAD {
		q := url.Values{}
		for i, p := range op.Params {
			if p.Kind() != ParamBody {
				continue
			}
			q.Set(p.Name, encodeRESTString(args[i]).Raw)
		}
		if len(q) > 0 {
			reqURL += "?" + q.Encode()
		}
		req, err = http.NewRequest(string(verb), reqURL, nil)
	} else {
		obj := map[string]any{}
		for i, p := range op.Params {
			if p.Kind() != ParamBody {
				continue
			}
			obj[p.Name] = args[i].Interface()
		}
		body, merr := c.codec.Marshal(obj)
		if merr != nil {
			return reflect.Value{}, fmt.Errorf("rest: marshal request body: %w", merr)
		}
		req, err = http.NewRequest(string(verb), reqURL, bytes.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", c.codec.ContentType())
		}
	}
	if err != nil {
		return reflect.Value{}, err
	}
	req.Header.Set("Accept", c.codec.ContentType())

	if c.filter != nil {
		if err := c.filter(req); err != nil {
			return reflect.Value{}, err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return reflect.Value{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("rest: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body responseBody
		_ = c.codec.Unmarshal(payload, &body)
		msg := body.StatusMessage
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return reflect.Value{}, NewStatusError(resp.StatusCode, msg)
	}

	if op.ReturnType == nil {
		return reflect.Value{}, nil
	}
	out := reflect.New(op.ReturnType)
	if len(payload) > 0 {
		if uerr := c.codec.Unmarshal(payload, out.Interface()); uerr != nil {
			return reflect.Value{}, fmt.Errorf("rest: decode response: %w", uerr)
		}
	}
	return out.Elem(), nil
}

func (c *Client) substitutePlaceholders(tmpl string, op *Operation, args []reflect.Value, legacyID string) (string, error) {
	segments := strings.Split(tmpl, "/")
	for i, seg := range segments {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		name := seg[1:]
		if name == "id" {
			segments[i] = url.PathEscape(legacyID)
			continue
		}
		found := false
		for pi, p := range op.Params {
			if p.Kind() == ParamPath && p.PathName() == name {
				segments[i] = url.PathEscape(encodeRESTString(args[pi]).Raw)
				found = true
				break
			}
		}
		if !found {
			return "", fmt.Errorf("rest: no parameter bound to path placeholder %q", name)
		}
	}
	return strings.Join(segments, "/"), nil
}
