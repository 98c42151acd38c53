package instance

import "testing"

func TestGetIDPrefersExplicitID(t *testing.T) {
	t.Setenv("STOREFRONT_INSTANCE_ID", "api-3")
	t.Setenv("DYNO", "web.1")
	if got := GetID(); got != "api-3" {
		t.Fatalf("expected api-3 got %q", got)
	}

	t.Setenv("STOREFRONT_INSTANCE_ID", "")
	if got := GetID(); got != "web.1" {
		t.Fatalf("expected dyno name got %q", got)
	}
}
