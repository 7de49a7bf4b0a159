package rest

import "testing"

func TestSplitWords(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"HTMLEntity", []string{"HTML", "Entity"}},
		{"IDTest", []string{"ID", "Test"}},
		{"Q", []string{"Q"}},
		{"getUserName", []string{"get", "User", "Name"}},
		{"name", []string{"name"}},
	}
	for _, c := range cases {
		got := splitWords(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("splitWords(%q) = %v, want %v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("splitWords(%q) = %v, want %v", c.in, got, c.want)
			}
		}
	}
}

func TestApplyStyles(t *testing.T) {
	cases := []struct {
		style Style
		in    string
		want  string
	}{
		{Unaltered, "UserName", "UserName"},
		{CamelCase, "UserName", "userName"},
		{PascalCase, "userName", "UserName"},
		{LowerCase, "UserName", "username"},
		{UpperCase, "UserName", "USERNAME"},
		{LowerUnderscored, "UserName", "user_name"},
		{UpperUnderscored, "UserName", "USER_NAME"},
		{CamelCase, "", ""},
	}
	for _, c := range cases {
		got := Apply(c.style, c.in)
		if got != c.want {
			t.Errorf("Apply(%v, %q) = %q, want %q", c.style, c.in, got, c.want)
		}
	}
}

func TestDeriveRoutePrefixes(t *testing.T) {
	contract := NewContract("items", CamelCase)
	cases := []struct {
		id       string
		wantVerb HttpMethod
		wantPath string
	}{
		{"getUserName", GET, "userName"},
		{"setUserName", PUT, "userName"},
		{"updateUser", PATCH, "user"},
		{"createUser", POST, "user"},
		{"removeUser", DELETE, "user"},
		{"index", GET, ""},
		{"frobnicate", POST, "frobnicate"},
	}
	for _, c := range cases {
		op := contract.Operation(c.id)
		overridden, verb, path := DeriveRoute(op)
		if overridden {
			t.Errorf("DeriveRoute(%q): unexpected path override", c.id)
		}
		if verb != c.wantVerb {
			t.Errorf("DeriveRoute(%q): verb = %v, want %v", c.id, verb, c.wantVerb)
		}
		if path != c.wantPath {
			t.Errorf("DeriveRoute(%q): path = %q, want %q", c.id, path, c.wantPath)
		}
	}
}

func TestDeriveRouteOverride(t *testing.T) {
	contract := NewContract("items", CamelCase)
	op := contract.Operation("doThing").Method(POST).Path("/custom/path")
	overridden, verb, path := DeriveRoute(op)
	if !overridden {
		t.Fatal("expected path override")
	}
	if verb != POST || path != "/custom/path" {
		t.Fatalf("got verb=%v path=%q", verb, path)
	}
}

func TestNormalizeRootPath(t *testing.T) {
	absent := NewContract("items", LowerUnderscored)
	if got := NormalizeRootPath(absent); got != "/" {
		t.Errorf("absent root path = %q, want /", got)
	}

	empty := NewContract("items", LowerUnderscored).WithRootPath("")
	if got := NormalizeRootPath(empty); got != "/items/" {
		t.Errorf("empty root path = %q, want /items/", got)
	}

	explicit := NewContract("items", LowerUnderscored).WithRootPath("api")
	if got := NormalizeRootPath(explicit); got != "/api/" {
		t.Errorf("explicit root path = %q, want /api/", got)
	}
}
