package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type itemsClient struct {
	GetName      func(id int) (string, error)
	SetGreeting  func(name string) error
	Greet        func(loud bool) (string, error)
	Config       *configClient
}

type configClient struct {
	GetValue func() (string, error)
}

func TestClientServerRoundTrip(t *testing.T) {
	mux := http.NewServeMux()
	srv := NewServer(mux)
	svc := &itemsService{}
	if err := srv.Mount(buildItemsContract(), svc); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	ts := httptest.NewServer(mux)
	defer ts.Close()

	var proxy itemsClient
	client := NewClient()
	if err := client.Bind(&proxy, ts.URL, buildItemsContract()); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	name, err := proxy.GetName(7)
	if err != nil {
		t.Fatalf("GetName: %v", err)
	}
	if name == "" {
		t.Fatal("expected non-empty name")
	}

	if err := proxy.SetGreeting("howdy"); err != nil {
		t.Fatalf("SetGreeting: %v", err)
	}
	if svc.greeting != "howdy" {
		t.Fatalf("server-side greeting = %q, want howdy", svc.greeting)
	}

	quiet, err := proxy.Greet(false)
	if err != nil {
		t.Fatalf("Greet: %v", err)
	}
	if quiet != "hello" {
		t.Fatalf("Greet(false) = %q, want hello", quiet)
	}

	loud, err := proxy.Greet(true)
	if err != nil {
		t.Fatalf("Greet: %v", err)
	}
	if loud != "HELLO" {
		t.Fatalf("Greet(true) = %q, want HELLO", loud)
	}

	value, err := proxy.Config.GetValue()
	if err != nil {
		t.Fatalf("Config.GetValue: %v", err)
	}
	if value != "sunshine" {
		t.Fatalf("Config.GetValue() = %q, want sunshine", value)
	}
}

func TestClientStatusErrorPropagation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /fails", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"statusMessage":"no such item"}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	contract := NewContract("fails", Unaltered)
	contract.Operation("fails").Getter().Returns(nil).Go("Fails")

	var proxy struct {
		Fails func() error
	}
	client := NewClient()
	if err := client.Bind(&proxy, ts.URL, contract); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	err := proxy.Fails()
	if err == nil {
		t.Fatal("expected error")
	}
	statusErr, ok := err.(*StatusError)
	if !ok {
		t.Fatalf("got %T, want *StatusError", err)
	}
	if statusErr.Status != http.StatusNotFound || statusErr.Message != "no such item" {
		t.Fatalf("got %+v", statusErr)
	}
}
