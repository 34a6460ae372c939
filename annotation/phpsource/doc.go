// Package phpsource reads PHP projects for the annotation engine.
//
// [ParseFile] parses one file with tree-sitter and records its class-like
// declarations, their fields, and every documentation comment together with
// the kind of declaration it documents and the namespace and use imports in
// effect. A class is an annotation schema when its own documentation carries
// an @Annotation tag; its @Target tag lists where it may be used.
//
// [Load] parses a whole tree concurrently into a [Project], which resolves
// tag names the way PHP resolves class names:
//
//	namespace App\Controller;
//
//	use Symfony\Component\Routing\Annotation as Routing;
//
//	/** @Routing\Route("/") */  // Symfony\Component\Routing\Annotation\Route
//
// [Cursor] turns a file offset into the [annotation.Node] the engine
// classifies, with the comment's owner and scope attached.
package phpsource
