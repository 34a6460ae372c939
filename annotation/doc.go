// Package annotation computes completion candidates for annotations written
// inside PHP documentation comments, such as
//
//	/**
//	 * @Route("/blog", name="blog_list", methods={"GET"})
//	 */
//
// An annotation is a tag whose name refers to a class in the project that is
// itself marked with @Annotation. That class is the annotation's schema: its
// public fields are the attribute names the annotation accepts, and its
// @Target tag restricts which declarations the annotation may be attached
// to.
//
// # Pipeline
//
// [Engine.Complete] takes the leaf of a parsed comment under the cursor and
// runs it through four stages:
//
//  1. Classify: [Engine.Classify] decides which slot the cursor occupies:
//     a tag name ([ContextTagName]), an attribute name
//     ([ContextAttributeName]), a named attribute value
//     ([ContextAttributeValue]), or the unnamed default value
//     ([ContextDefaultValue]). Anything else yields no context and no
//     candidates.
//
//  2. Resolve: [Engine.ResolveSchema] turns the enclosing tag name into a
//     [Schema] through the configured [Resolver]. A name that resolves to
//     nothing, or to more than one declaration, is not completed.
//
//  3. Filter: for tag names, [Engine.SchemasFor] offers every schema in the
//     [Index] whose declared targets [Permits] the declaration that owns the
//     comment. ALL always matches; UNKNOWN and UNDEFINED match everything
//     unless strict targets are enabled with [WithStrictTargets].
//
//  4. Values: for attribute values, [Engine.ValuesFor] asks every
//     [Provider] in order and concatenates their answers. A provider that
//     panics is logged and skipped.
//
// # Providers
//
// A [Provider] is a prototype: [Engine.ForProject] calls
// [Provider.ForProject] once per project to obtain a prepared copy, which
// may read catalogs from the project file system. Providers that fail to
// prepare are logged and left out. Built-in providers live under the values
// directory and are registered by name in a [Registry], so [Config] can
// enable and order them from a comma-separated flag.
//
// # Hosts
//
// The package does not read PHP itself. Hosts supply parsed comments as
// [Node] trees (see the phpdoc package), and declarations through
// [Resolver] and [Index] (see the phpsource package). Candidates carry an
// [InsertBehavior] describing what a host should insert when one is chosen;
// the engine never edits text.
package annotation
