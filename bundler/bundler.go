// Package bundler inlines `$ref` pointers so a schema becomes a single
// self-contained document.
//
// External references are loaded (once per document), their own references
// bundled depth-first, and the resolved fragment spliced in place of the
// `$ref` node. Intra-document pointers are inlined against the current
// root. The self-root reference `"#"` is preserved verbatim: it expresses
// recursion and is never traversed.
package bundler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Universal-Commerce-Protocol/ucp-schema/jsontree"
	"github.com/Universal-Commerce-Protocol/ucp-schema/loader"
)

// maxDepth bounds reference expansion against pathological graphs.
const maxDepth = 64

// Sentinel errors returned by bundling.
var (
	// ErrCircularReference indicates a reference cycle; the message lists
	// the chain.
	ErrCircularReference = errors.New("circular reference")
	// ErrDepthExceeded indicates the expansion depth bound was hit.
	ErrDepthExceeded = errors.New("reference depth exceeded")
	// ErrLoad indicates a referenced document could not be loaded.
	ErrLoad = errors.New("load reference")
)

// Bundle inlines all references in root, resolving external locations
// relative to baseDir with a default loader. See [Bundler.Bundle].
func Bundle(root jsontree.Value, baseDir string) (jsontree.Value, error) {
	return New(loader.New()).Bundle(root, baseDir)
}

// Bundler expands references using a [*loader.Loader] for document access,
// inheriting its URL-to-local mapping. Each Bundle call uses a fresh
// document cache.
//
// Create instances with [New].
type Bundler struct {
	loader *loader.Loader
}

// New creates a [*Bundler] backed by the given loader.
func New(l *loader.Loader) *Bundler {
	return &Bundler{loader: l}
}

// Bundle returns root with every reference inlined. External locations in
// the root document resolve relative to baseDir. The input tree is not
// shared with the result.
func (b *Bundler) Bundle(root jsontree.Value, baseDir string) (jsontree.Value, error) {
	run := &bundleRun{
		loader:    b.loader,
		docs:      make(map[string]jsontree.Value),
		resolving: make(map[string]bool),
	}

	// Expansion mutates the working copy in place, so intra-document
	// pointers see externals that were already inlined.
	working := root.Clone()
	rootCtx := docContext{base: baseDir, root: working, id: ""}

	bundled, err := run.expand(working, rootCtx, 0)
	if err != nil {
		return nil, err
	}

	return bundled, nil
}

// docContext tracks the document a node belongs to: its location base for
// relative references and its root for intra-document pointers.
type docContext struct {
	base string
	root jsontree.Value
	id   string
}

type bundleRun struct {
	loader    *loader.Loader
	docs      map[string]jsontree.Value
	resolving map[string]bool
	chain     []string
}

func (r *bundleRun) expand(value jsontree.Value, ctx docContext, depth int) (jsontree.Value, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w (limit %d)", ErrDepthExceeded, maxDepth)
	}

	switch v := value.(type) {
	case *jsontree.Object:
		if ref, ok := v.GetString("$ref"); ok {
			return r.expandRef(v, ref, ctx, depth)
		}

		for _, key := range v.Keys() {
			child, _ := v.Get(key)

			expanded, err := r.expand(child, ctx, depth+1)
			if err != nil {
				return nil, err
			}

			v.Set(key, expanded)
		}

		return v, nil

	case *jsontree.Array:
		for i, item := range v.Items {
			expanded, err := r.expand(item, ctx, depth+1)
			if err != nil {
				return nil, err
			}

			v.Items[i] = expanded
		}

		return v, nil
	}

	return value, nil
}

// expandRef replaces a `$ref` node with its resolved target. Sibling keys
// of the `$ref` are dropped, per historical JSON Schema semantics.
func (r *bundleRun) expandRef(node *jsontree.Object, ref string, ctx docContext, depth int) (jsontree.Value, error) {
	if ref == "#" {
		// Recursive self-root reference, preserved verbatim.
		return node, nil
	}

	location, fragment := splitRef(ref)

	if location == "" {
		return r.inline(ctx.id, fragment, ctx, depth)
	}

	target, targetCtx, err := r.loadDocument(location, ctx)
	if err != nil {
		return nil, err
	}

	targetCtx.root = target

	return r.inline(targetCtx.id, fragment, targetCtx, depth)
}

// inline resolves a pointer inside the document identified by ctx and
// expands the fragment in that document's context, so the spliced value is
// already self-contained.
func (r *bundleRun) inline(docID, fragment string, ctx docContext, depth int) (jsontree.Value, error) {
	key := docID + "#" + fragment

	if r.resolving[key] {
		return nil, fmt.Errorf("%w: %s", ErrCircularReference,
			strings.Join(append(r.chain, key), " -> "))
	}

	target, err := jsontree.ResolvePointer(ctx.root, fragment)
	if err != nil {
		return nil, fmt.Errorf("resolving %q in %s: %w", fragment, docOrRoot(docID), err)
	}

	r.resolving[key] = true
	r.chain = append(r.chain, key)

	defer func() {
		delete(r.resolving, key)
		r.chain = r.chain[:len(r.chain)-1]
	}()

	return r.expand(target.Clone(), ctx, depth+1)
}

// loadDocument loads (and caches) the document at location, resolved
// against the current document's base.
func (r *bundleRun) loadDocument(location string, ctx docContext) (jsontree.Value, docContext, error) {
	source := joinLocation(ctx.base, location)

	canonical := source
	if !loader.IsURL(canonical) {
		if abs, err := filepath.Abs(canonical); err == nil {
			canonical = abs
		}
	}

	if doc, ok := r.docs[canonical]; ok {
		return doc, docContext{base: locationBase(source), id: canonical}, nil
	}

	doc, err := r.loader.LoadAuto(source)
	if err != nil {
		return nil, docContext{}, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	slog.Debug("bundled external document", "source", source)

	r.docs[canonical] = doc

	return doc, docContext{base: locationBase(source), id: canonical}, nil
}

// splitRef splits a reference into location and fragment at the first "#".
func splitRef(ref string) (location, fragment string) {
	location, fragment, found := strings.Cut(ref, "#")
	if !found {
		return ref, ""
	}

	return location, fragment
}

// joinLocation resolves a reference location against the referencing
// document's base (a directory path or URL prefix).
func joinLocation(base, location string) string {
	if loader.IsURL(location) {
		return location
	}

	if loader.IsURL(base) {
		baseURL, err := url.Parse(base + "/")
		if err != nil {
			return base + "/" + location
		}

		rel, err := url.Parse(location)
		if err != nil {
			return base + "/" + location
		}

		return baseURL.ResolveReference(rel).String()
	}

	if base == "" {
		return location
	}

	return filepath.Join(base, filepath.FromSlash(location))
}

// locationBase returns the directory component of a path or URL.
func locationBase(source string) string {
	if loader.IsURL(source) {
		if i := strings.LastIndex(source, "/"); i > len("https://") {
			return source[:i]
		}

		return source
	}

	return filepath.Dir(source)
}

func docOrRoot(docID string) string {
	if docID == "" {
		return "root document"
	}

	return strconv.Quote(docID)
}
