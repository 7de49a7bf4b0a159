package rest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRegistryDefaultsToJSONOnly(t *testing.T) {
	r := NewRegistry()
	if r.Get("application/json") == nil {
		t.Fatal("application/json not registered by default")
	}
	if r.Get("application/cbor") != nil {
		t.Fatal("application/cbor registered without being asked for")
	}
}

func TestCBORCodecRoundTrips(t *testing.T) {
	c, err := CBOR()
	if err != nil {
		t.Fatalf("CBOR: %v", err)
	}
	if c.ContentType() != "application/cbor" {
		t.Fatalf("ContentType = %q", c.ContentType())
	}

	type payload struct {
		Name  string
		Count int
	}
	in := payload{Name: "widget", Count: 3}
	data, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out payload
	if err := c.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestServerNegotiatesCBORViaContentTypeAndAccept(t *testing.T) {
	mux := http.NewServeMux()
	srv, err := NewServer(mux).WithCBOR()
	if err != nil {
		t.Fatalf("WithCBOR: %v", err)
	}
	svc := &itemsService{}
	if err := srv.Mount(buildItemsContract(), svc); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	ts := httptest.NewServer(mux)
	defer ts.Close()

	cborCodec, err := CBOR()
	if err != nil {
		t.Fatalf("CBOR: %v", err)
	}

	body, err := cborCodec.Marshal(map[string]any{"name": "cbor-greeting"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/items/greeting", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/cbor")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if svc.greeting != "cbor-greeting" {
		t.Fatalf("server-side greeting = %q, want cbor-greeting", svc.greeting)
	}

	req2, err := http.NewRequest(http.MethodGet, ts.URL+"/items/42/name", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req2.Header.Set("Accept", "application/cbor")
	resp2, err := http.DefaultClient.Do(req2)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp2.Body.Close()
	if ct := resp2.Header.Get("Content-Type"); ct != "application/cbor" {
		t.Fatalf("Content-Type = %q, want application/cbor", ct)
	}
	bodyBytes, err := io.ReadAll(resp2.Body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	var got string
	if err := cborCodec.Unmarshal(bodyBytes, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got == "" {
		t.Fatal("expected non-empty name")
	}
}

func TestClientCBORRoundTrip(t *testing.T) {
	mux := http.NewServeMux()
	srv, err := NewServer(mux).WithCBOR()
	if err != nil {
		t.Fatalf("WithCBOR: %v", err)
	}
	svc := &itemsService{}
	if err := srv.Mount(buildItemsContract(), svc); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	ts := httptest.NewServer(mux)
	defer ts.Close()

	cborCodec, err := CBOR()
	if err != nil {
		t.Fatalf("CBOR: %v", err)
	}

	var proxy itemsClient
	client := NewClient(WithClientCodec(cborCodec))
	if err := client.Bind(&proxy, ts.URL, buildItemsContract()); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	if err := proxy.SetGreeting("via-cbor"); err != nil {
		t.Fatalf("SetGreeting: %v", err)
	}
	if svc.greeting != "via-cbor" {
		t.Fatalf("server-side greeting = %q, want via-cbor", svc.greeting)
	}

	name, err := proxy.GetName(9)
	if err != nil {
		t.Fatalf("GetName: %v", err)
	}
	if name == "" {
		t.Fatal("expected non-empty name")
	}
}
