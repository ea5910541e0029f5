package writer_test

import (
	"strings"
	"testing"

	"github.com/blueprintapi/blueprint/internal/writer"
)

func TestWriteIndentsWithinBlock(t *testing.T) {
	w := writer.New()
	w.Write("BLOCK:func Foo()")
	w.Write("x := 1")
	w.FinishBlock()

	body := w.Body()
	if !strings.Contains(body, "func Foo() {\n") {
		t.Fatalf("expected opened block, got %q", body)
	}
	if !strings.Contains(body, "\tx := 1\n") {
		t.Fatalf("expected indented line, got %q", body)
	}
	if !strings.HasSuffix(strings.TrimRight(body, "\n"), "}") {
		t.Fatalf("expected closing brace, got %q", body)
	}
}

func TestFinishBlockNoOpWithoutOpenBlock(t *testing.T) {
	w := writer.New()
	w.FinishBlock() // must not panic or go negative
	w.Write("top")
	if got := w.Body(); got != "top\n" {
		t.Fatalf("got %q", got)
	}
}

func TestSortedImportsDeduplicatesAndSorts(t *testing.T) {
	w := writer.New()
	w.UsingNamespace("context")
	w.UsingNamespace("fmt")
	w.UsingNamespace("context")

	got := w.SortedImports()
	want := []string{"context", "fmt"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRenderLayout(t *testing.T) {
	w := writer.New()
	w.Namespace("executors")
	w.UsingNamespace("context")
	w.Write("BLOCK:type Foo struct")
	w.FinishBlock()

	out := w.Render("Foo executor")
	lines := strings.Split(out, "\n")
	if lines[0] != "// <auto-generated />" {
		t.Fatalf("line0 = %q", lines[0])
	}
	if lines[1] != "// Foo executor" {
		t.Fatalf("line1 = %q", lines[1])
	}
	if lines[2] != "package executors" {
		t.Fatalf("line2 = %q", lines[2])
	}
	if !strings.Contains(out, `import (`) || !strings.Contains(out, `"context"`) {
		t.Fatalf("expected import block, got %q", out)
	}
}
