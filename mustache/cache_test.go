package mustache

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestCache_GetOrParse(t *testing.T) {
	ctx := context.Background()
	c := NewCache()

	first, err := c.GetOrParse(ctx, "Hello {{name}}", DefaultDelimiters)
	if err != nil {
		t.Fatal(err)
	}

	second, err := c.GetOrParse(ctx, "Hello {{name}}", DefaultDelimiters)
	if err != nil {
		t.Fatal(err)
	}

	if first != second {
		t.Error("expected the cached template on the second lookup")
	}

	want := CacheStats{Entries: 1, Hits: 1, Misses: 1}
	if got := c.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestCache_KeyIncludesDelimiters(t *testing.T) {
	ctx := context.Background()
	c := NewCache()

	a, err := c.GetOrParse(ctx, "<%x%>{{y}}", DefaultDelimiters)
	if err != nil {
		t.Fatal(err)
	}

	b, err := c.GetOrParse(ctx, "<%x%>{{y}}", Delimiters{Open: "<%", Close: "%>"})
	if err != nil {
		t.Fatal(err)
	}

	if a == b {
		t.Fatal("templates parsed with different delimiters must not be shared")
	}

	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	if a.Node(0).Kind != KindText || b.Node(0).Kind != KindVariable {
		t.Errorf("unexpected first nodes %v and %v", a.Node(0), b.Node(0))
	}
}

func TestCache_ErrorsAreCached(t *testing.T) {
	ctx := context.Background()
	c := NewCache()

	for range 2 {
		if _, err := c.GetOrParse(ctx, "{{#open}}", DefaultDelimiters); !errors.Is(err, ErrSyntax) {
			t.Fatalf("expected ErrSyntax, got %v", err)
		}
	}

	if s := c.Stats(); s.Entries != 1 || s.Hits != 1 {
		t.Errorf("Stats() = %+v, want one entry hit once", s)
	}
}

func TestCache_Clear(t *testing.T) {
	ctx := context.Background()
	c := NewCache()

	tmpl, err := c.GetOrParse(ctx, "x", DefaultDelimiters)
	if err != nil {
		t.Fatal(err)
	}

	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}

	if tmpl.Source() != "x" {
		t.Error("cleared template must remain usable")
	}

	again, _ := c.GetOrParse(ctx, "x", DefaultDelimiters)
	if again == tmpl {
		t.Error("expected a fresh parse after Clear")
	}
}

func TestCache_ZeroValue(t *testing.T) {
	var c Cache

	if _, err := c.GetOrParse(context.Background(), "{{x}}", DefaultDelimiters); err != nil {
		t.Fatal(err)
	}

	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCache_ConcurrentParseOnce(t *testing.T) {
	const workers = 64

	c := NewCache()
	src := "{{#items}}{{name}}{{/items}}"

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		got   = make([]*Template, workers)
	)

	for i := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			<-start

			tmpl, err := c.GetOrParse(context.Background(), src, DefaultDelimiters)
			if err != nil {
				t.Error(err)
			}

			got[i] = tmpl
		}()
	}

	close(start)
	wg.Wait()

	for i := 1; i < workers; i++ {
		if got[i] != got[0] {
			t.Fatalf("worker %d received a different template", i)
		}
	}

	if s := c.Stats(); s.Misses != 1 || s.Hits != workers-1 {
		t.Errorf("Stats() = %+v, want 1 miss and %d hits", s, workers-1)
	}
}

func TestEngine_SharedCache(t *testing.T) {
	ctx := context.Background()
	c := NewCache()

	a := New(WithCache(c))
	b := New(WithCache(c))

	if _, err := a.Render(ctx, "{{>p}}", nil, Partials{"p": "x"}); err != nil {
		t.Fatal(err)
	}

	if _, err := b.Parse(ctx, "{{>p}}"); err != nil {
		t.Fatal(err)
	}

	// The template and its partial.
	if s := c.Stats(); s.Entries != 2 || s.Hits != 1 {
		t.Errorf("Stats() = %+v, want 2 entries and 1 hit", s)
	}

	b.ClearCache()

	if a.Cache().Len() != 0 {
		t.Error("ClearCache on one engine must clear the shared cache")
	}
}

func TestHashKey(t *testing.T) {
	d := DefaultDelimiters

	if hashKey("x", d) != hashKey("x", d) {
		t.Error("hash must be deterministic")
	}

	if hashKey("x", d) == hashKey("x", Delimiters{Open: "<%", Close: "%>"}) {
		t.Error("hash must depend on delimiters")
	}

	// Moving bytes between fields must change the key.
	if hashKey("}x", Delimiters{Open: "{{", Close: "}"}) == hashKey("x", d) {
		t.Error("hash must separate fields")
	}
}
