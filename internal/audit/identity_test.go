package audit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestCaptureAndVerifyIdentity(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "book.pdf")
	if err := os.WriteFile(p, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	id, err := CaptureIdentity(p)
	if err != nil {
		t.Fatalf("CaptureIdentity() error = %v", err)
	}
	// sha256("hello")
	if id.ContentHash != "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824" || id.Size != 5 {
		t.Errorf("identity = %+v", id)
	}

	if m, _ := VerifyIdentity(p, *id); m != IdentityMatches {
		t.Errorf("VerifyIdentity() = %v, want IdentityMatches", m)
	}

	os.WriteFile(p, []byte("jello"), 0644)
	if m, _ := VerifyIdentity(p, *id); m != IdentityHashMismatch {
		t.Errorf("VerifyIdentity() after edit = %v, want IdentityHashMismatch", m)
	}

	os.WriteFile(p, []byte("hello!"), 0644)
	if m, _ := VerifyIdentity(p, *id); m != IdentitySizeMismatch {
		t.Errorf("VerifyIdentity() after append = %v, want IdentitySizeMismatch", m)
	}

	os.Remove(p)
	if m, err := VerifyIdentity(p, *id); m != IdentityNotFound || err != nil {
		t.Errorf("VerifyIdentity() after remove = %v, %v", m, err)
	}

	if _, err := CaptureIdentity(dir); err == nil {
		t.Error("CaptureIdentity(dir) should fail")
	}
}

// Property: identical content yields identical hashes, different content
// different hashes.
func TestIdentityHashProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)
	dir := t.TempDir()

	properties.Property("hash tracks content", prop.ForAll(
		func(a, b string) bool {
			pa := filepath.Join(dir, "a")
			pb := filepath.Join(dir, "b")
			if os.WriteFile(pa, []byte(a), 0644) != nil || os.WriteFile(pb, []byte(b), 0644) != nil {
				return false
			}
			ia, err1 := CaptureIdentity(pa)
			ib, err2 := CaptureIdentity(pb)
			if err1 != nil || err2 != nil {
				return false
			}
			return (ia.ContentHash == ib.ContentHash) == (a == b)
		},
		gen.AnyString(), gen.AnyString(),
	))

	properties.TestingRun(t)
}
