// Package mustache implements logic-less Mustache templates.
//
// A template is text interleaved with tags. Tags are delimited by "{{" and
// "}}" unless changed:
//
//	{{name}}         variable, HTML-escaped
//	{{{name}}}       variable, unescaped (also {{&name}})
//	{{#name}}...{{/name}}  section
//	{{^name}}...{{/name}}  inverted section
//	{{>name}}        partial
//	{{! text }}      comment
//	{{=<% %>=}}      delimiter change
//
// # Rendering
//
// Templates render against a data graph of [Value]s. Go data is converted
// with [ValueOf]; the data subpackage decodes JSON and YAML documents.
//
// Names resolve against a stack of context frames. A bare name is searched
// from the innermost frame outward; "." is the innermost frame; in a dotted
// name such as "a.b.c" only the first segment is searched and the remaining
// segments are member lookups. A name that does not resolve renders as
// nothing.
//
// A section over a non-empty list renders once per element with the element
// pushed as a frame. A map, number or non-empty string renders once with
// the value pushed; true renders once without a new frame. Absent, null,
// false, "" and the empty list skip the section, and render inverted
// sections instead.
//
// # Lambdas
//
// [Func] values are called with no arguments. In a variable tag a string
// result is itself rendered as a template; in a section the result becomes
// the section value. [SectionFunc] values receive the section's unrendered
// inner text and a [RenderFunc], and their result is written verbatim.
//
// # Whitespace
//
// A line containing only whitespace and section, inverted, close, partial,
// comment or delimiter tags is standalone: its whitespace and line ending
// are removed from the output. The leading whitespace of a standalone
// partial is prefixed to every line the partial renders.
//
// # Caching
//
// Parsed templates are memoized by an [Engine]'s [Cache], keyed by source
// text and starting delimiters. The package-level [Render], [Parse] and
// [ClearCache] use a default engine with a process-wide cache.
package mustache
