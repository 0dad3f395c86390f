package webhook

import "testing"

func TestRenderTemplate_SubstitutesNestedFields(t *testing.T) {
	out, err := renderTemplate("hello {user.first} from {repo}", []byte(`{"user":{"first":"ana"},"repo":"gateway"}`))
	if err != nil {
		t.Fatalf("renderTemplate: %v", err)
	}
	if out != "hello ana from gateway" {
		t.Errorf("got %q", out)
	}
}

func TestRenderTemplate_MissingFieldBecomesEmptyString(t *testing.T) {
	out, err := renderTemplate("value: {missing.field}", []byte(`{}`))
	if err != nil {
		t.Fatalf("renderTemplate: %v", err)
	}
	if out != "value: " {
		t.Errorf("got %q", out)
	}
}

func TestRenderTemplate_RejectsNonObjectBody(t *testing.T) {
	_, err := renderTemplate("{x}", []byte(`[1,2,3]`))
	if err == nil {
		t.Fatal("expected error for non-object body")
	}
}
