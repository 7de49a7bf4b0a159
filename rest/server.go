package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
)

// Server is the Server Binder: it walks a [Contract], registers one
// route per operation on a [Router], and at request time extracts
// parameters, invokes the bound Go method via reflection, and serializes
// the result.
type Server struct {
	router   Router
	codec    Codec
	registry *Registry
}

// NewServer builds a Server Binder that registers routes on router and
// speaks JSON on the wire.
func NewServer(router Router) *Server {
	return &Server{router: router, codec: JSON(), registry: NewRegistry()}
}

// WithCodec overrides the default wire codec (otherwise [JSON]) and
// registers it for content negotiation alongside whatever WithCBOR or
// Register added.
func (s *Server) WithCodec(c Codec) *Server {
	s.codec = c
	s.registry.Register(c)
	return s
}

// WithCBOR registers the CBOR codec as an additional negotiable codec,
// selected when a request's Content-Type or Accept header names
// application/cbor, without changing the default codec used when neither
// header is present.
func (s *Server) WithCBOR() (*Server, error) {
	c, err := CBOR()
	if err != nil {
		return nil, err
	}
	s.registry.Register(c)
	return s, nil
}

// codecForContentType resolves the codec for an incoming request body to
// the registered codec matching ct. An empty ct never matches, even
// though the default codec is registered too: a body-bearing request is
// required to state its own Content-Type.
func (s *Server) codecForContentType(ct string) (Codec, bool) {
	ct = strings.TrimSpace(strings.SplitN(ct, ";", 2)[0])
	if ct == "" {
		return nil, false
	}
	if c := s.registry.Get(ct); c != nil {
		return c, true
	}
	return nil, false
}

// negotiateResponseCodec picks the codec to encode a response with, from
// the request's Accept header, falling back to the server's default
// codec when Accept is absent or names nothing registered.
func (s *Server) negotiateResponseCodec(r *http.Request) Codec {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		ct := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if ct == "" || ct == "*/*" {
			continue
		}
		if c := s.registry.Get(ct); c != nil {
			return c
		}
	}
	return s.codec
}

// Mount registers every operation of c, and recursively every sub-contract
// reachable from a zero-parameter operation whose return type is itself a
// contract, rooted at c's own derived root path.
func (s *Server) Mount(c *Contract, instance any) error {
	return s.mountAt(NormalizeRootPath(c), c, reflect.ValueOf(instance))
}

func (s *Server) mountAt(prefix string, c *Contract, instance reflect.Value) error {
	for _, op := range c.Operations {
		_, verb, relPath := DeriveRoute(op)

		if op.Sub != nil {
			if len(op.Params) != 0 {
				return fmt.Errorf("rest: sub-resource operation %q must take no parameters", op.ID)
			}
			sub, err := s.invokeGetter(instance, op)
			if err != nil {
				return fmt.Errorf("rest: mounting %q: %w", op.ID, err)
			}
			if err := s.mountAt(joinPath(prefix, relPath)+"/", op.Sub, sub); err != nil {
				return err
			}
			continue
		}

		handler := s.makeHandler(instance, op)
		s.router.Handle(string(verb)+" "+toMuxPattern(joinPath(prefix, relPath)), handler)

		if len(op.Params) > 0 && op.Params[0].Kind() == ParamLegacyID {
			legacyRel := ":id/" + relPath
			if relPath == "" {
				legacyRel = ":id"
			}
			s.router.Handle(string(verb)+" "+toMuxPattern(joinPath(prefix, legacyRel)), handler)
		}
	}
	return nil
}

func joinPath(prefix, rel string) string {
	if rel == "" {
		return prefix
	}
	return prefix + rel
}

func (s *Server) invokeGetter(instance reflect.Value, op *Operation) (reflect.Value, error) {
	method := instance.MethodByName(op.GoMethod)
	if !method.IsValid() {
		return reflect.Value{}, fmt.Errorf("no method %q on %s", op.GoMethod, instance.Type())
	}
	out := method.Call(nil)
	if len(out) == 2 && !out[1].IsNil() {
		return reflect.Value{}, out[1].Interface().(error)
	}
	return out[0], nil
}

func (s *Server) makeHandler(instance reflect.Value, op *Operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				s.writeError(w, &Internal{Cause: fmt.Errorf("%v", v)})
			}
		}()

		args, err := s.extractArgs(r, op)
		if err != nil {
			s.writeError(w, err)
			return
		}

		method := instance.MethodByName(op.GoMethod)
		if !method.IsValid() {
			s.writeError(w, &Internal{Cause: fmt.Errorf("no method %q on %s", op.GoMethod, instance.Type())})
			return
		}

		out := method.Call(args)

		var retErr error
		if n := len(out); n > 0 {
			if e, ok := out[n-1].Interface().(error); ok && e != nil {
				retErr = e
			}
		}
		if retErr != nil {
			s.writeError(w, retErr)
			return
		}

		respCodec := s.negotiateResponseCodec(r)
		w.Header().Set("Content-Type", respCodec.ContentType())
		if op.ReturnType == nil {
			body, _ := respCodec.Marshal(struct{}{})
			_, _ = w.Write(body)
			return
		}
		body, err := respCodec.Marshal(out[0].Interface())
		if err != nil {
			s.writeError(w, &Internal{Cause: err})
			return
		}
		_, _ = w.Write(body)
	}
}

func (s *Server) extractArgs(r *http.Request, op *Operation) ([]reflect.Value, error) {
	args := make([]reflect.Value, len(op.Params))

	var bodyObj map[string]any
	var reqCodec Codec
	needsBody := false
	for _, p := range op.Params {
		if p.Kind() == ParamBody && r.Method != string(GET) && r.Method != string(HEAD) {
			needsBody = true
		}
	}
	if needsBody {
		codec, ok := s.codecForContentType(r.Header.Get("Content-Type"))
		if !ok {
			return nil, newProtocolError("unsupported request content type %q", r.Header.Get("Content-Type"))
		}
		reqCodec = codec
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, newProtocolError("reading request body: %v", err)
		}
		if err := reqCodec.Unmarshal(data, &bodyObj); err != nil {
			return nil, newProtocolError("missing or malformed request body: %v", err)
		}
	}

	for i, p := range op.Params {
		switch p.Kind() {
		case ParamLegacyID, ParamPath:
			name := p.Name
			if p.Kind() == ParamPath {
				name = p.PathName()
			}
			raw := r.PathValue(name)
			if raw == "" {
				return nil, newProtocolError("param %q not set", p.Name)
			}
			v, err := decodeRESTString(raw, p.Type)
			if err != nil {
				return nil, err
			}
			args[i] = v

		case ParamBody:
			if r.Method == string(GET) || r.Method == string(HEAD) {
				raw := r.URL.Query().Get(p.Name)
				if raw == "" {
					if !p.HasDefault {
						return nil, newProtocolError("param %q not set", p.Name)
					}
					args[i] = reflect.ValueOf(p.Default).Convert(p.Type)
					continue
				}
				v, err := decodeRESTString(raw, p.Type)
				if err != nil {
					return nil, err
				}
				args[i] = v
				continue
			}

			raw, ok := bodyObj[p.Name]
			if !ok {
				if !p.HasDefault {
					return nil, newProtocolError("param %q not set", p.Name)
				}
				args[i] = reflect.ValueOf(p.Default).Convert(p.Type)
				continue
			}
			out := reflect.New(p.Type)
			// bodyObj was decoded generically (map[string]any); re-encode
			// this field's value with the same codec that decoded the
			// envelope, then decode it into the target type. Codec-agnostic,
			// since it never assumes the field came from JSON specifically.
			reencoded, err := reqCodec.Marshal(raw)
			if err != nil {
				return nil, newProtocolError("param %q has wrong shape: %v", p.Name, err)
			}
			if err := reqCodec.Unmarshal(reencoded, out.Interface()); err != nil {
				return nil, newProtocolError("param %q has wrong shape: %v", p.Name, err)
			}
			args[i] = out.Elem()
		}
	}

	return args, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var status int
	var body responseBody

	switch e := err.(type) {
	case *StatusError:
		status = e.Status
		body.StatusMessage = e.Message
	case *ProtocolError:
		status = http.StatusBadRequest
		body.StatusMessage = e.Message
	case *Internal:
		status = http.StatusInternalServerError
		body.StatusMessage = "internal error"
		body.StatusDebugMessage = sanitizeDebugMessage(e.Cause.Error())
	default:
		status = http.StatusInternalServerError
		body.StatusMessage = "internal error"
		body.StatusDebugMessage = sanitizeDebugMessage(err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc, _ := json.Marshal(body)
	_, _ = w.Write(enc)
}

// sanitizeDebugMessage keeps the debug message a single line: no stack
// trace is ever serialized as runtime data, only this best-effort string.
func sanitizeDebugMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\n", " ")
	const maxLen = 512
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
