package mustache

import (
	"context"
	"strconv"
	"strings"
	"testing"
)

func benchData(n int) map[string]any {
	students := make([]map[string]any, n)
	for i := range students {
		students[i] = map[string]any{"name": "student " + strconv.Itoa(i), "value": i}
	}

	return map[string]any{"title": "Roster <2025>", "students": students}
}

const benchTemplate = `<h1>{{title}}</h1>
<ul>
{{#students}}
  <li>{{name}}: {{value}}</li>
{{/students}}
</ul>
`

func BenchmarkParse_CacheMiss(b *testing.B) {
	for b.Loop() {
		if _, err := parse(benchTemplate, DefaultDelimiters); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParse_CacheHit(b *testing.B) {
	e := New()
	ctx := context.Background()

	if _, err := e.Parse(ctx, benchTemplate); err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		if _, err := e.Parse(ctx, benchTemplate); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRender(b *testing.B) {
	for _, n := range []int{1, 10, 100} {
		b.Run(strconv.Itoa(n), func(b *testing.B) {
			e := New()
			ctx := context.Background()
			data := ValueOf(benchData(n))

			tmpl, err := e.Parse(ctx, benchTemplate)
			if err != nil {
				b.Fatal(err)
			}

			for b.Loop() {
				if _, err := e.RenderTemplate(ctx, tmpl, data, nil); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkRender_Partials(b *testing.B) {
	e := New()
	ctx := context.Background()
	data := ValueOf(benchData(10))
	partials := Partials{"row": "<li>{{name}}</li>\n"}
	src := "{{#students}}\n  {{>row}}\n{{/students}}\n"

	for b.Loop() {
		if _, err := e.Render(ctx, src, data, partials); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkValueOf(b *testing.B) {
	data := benchData(100)

	for b.Loop() {
		_ = ValueOf(data)
	}
}

func BenchmarkEscapeHTML(b *testing.B) {
	s := strings.Repeat(`<a href="x">'&'</a>`, 16)

	for b.Loop() {
		_ = EscapeHTML(s)
	}
}
