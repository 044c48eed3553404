// Package composer assembles a single schema from the capabilities a
// self-describing payload advertises.
//
// Capabilities form a root+extensions graph: exactly one capability has no
// parent, the rest extend it (directly or through a chain). Composition
// fetches each capability's schema and stitches extensions onto the root
// via `allOf`, preserving the payload's declaration order. UCP annotations
// survive composition untouched; only resolution strips them.
package composer

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Universal-Commerce-Protocol/ucp-schema/bundler"
	"github.com/Universal-Commerce-Protocol/ucp-schema/jsontree"
	"github.com/Universal-Commerce-Protocol/ucp-schema/loader"
)

// Sentinel errors returned by capability extraction and composition.
var (
	// ErrNotSelfDescribing indicates a document without a
	// `ucp.capabilities` mapping.
	ErrNotSelfDescribing = errors.New("not a self-describing payload")
	// ErrNoCapabilities indicates an empty `ucp.capabilities` mapping.
	ErrNoCapabilities = errors.New("no capabilities")
	// ErrInvalidCapability indicates a malformed capability entry.
	ErrInvalidCapability = errors.New("invalid capability")
	// ErrNoRoot indicates every capability declares a parent.
	ErrNoRoot = errors.New("no root capability")
	// ErrMultipleRoots indicates more than one capability without a
	// parent.
	ErrMultipleRoots = errors.New("multiple root capabilities")
	// ErrUnknownParent indicates an extension referencing a capability
	// name absent from the set.
	ErrUnknownParent = errors.New("unknown parent")
	// ErrFetchFailed indicates a capability schema could not be loaded.
	ErrFetchFailed = errors.New("failed to fetch schema")
	// ErrEnvelopePayload indicates a JSONRPC envelope without the root
	// capability's payload key.
	ErrEnvelopePayload = errors.New("envelope payload not found")
)

// Capability is a named, versioned reference to a schema contributing to a
// self-describing payload.
type Capability struct {
	Name    string
	Version string
	Schema  string
	// Extends names the parent capability; empty for the root.
	Extends string
}

// ShortName returns the last dot segment of the capability name, the key
// under which JSONRPC envelopes nest the domain payload.
func (c Capability) ShortName() string {
	if i := strings.LastIndex(c.Name, "."); i >= 0 {
		return c.Name[i+1:]
	}

	return c.Name
}

// ExtractCapabilities reads the payload's `ucp.capabilities` mapping in
// declaration order. Each entry is a non-empty list of versions; the first
// version wins.
func ExtractCapabilities(payload jsontree.Value) ([]Capability, error) {
	obj, ok := payload.(*jsontree.Object)
	if !ok {
		return nil, ErrNotSelfDescribing
	}

	ucp := obj.GetObject("ucp")
	if ucp == nil {
		return nil, ErrNotSelfDescribing
	}

	mapping := ucp.GetObject("capabilities")
	if mapping == nil {
		return nil, ErrNotSelfDescribing
	}

	if mapping.Len() == 0 {
		return nil, ErrNoCapabilities
	}

	capabilities := make([]Capability, 0, mapping.Len())

	for _, name := range mapping.Keys() {
		versions := mapping.GetArray(name)
		if versions == nil || versions.Len() == 0 {
			return nil, fmt.Errorf("%w: %q has no versions", ErrInvalidCapability, name)
		}

		entry, ok := versions.Items[0].(*jsontree.Object)
		if !ok {
			return nil, fmt.Errorf("%w: %q version entry is not an object", ErrInvalidCapability, name)
		}

		schema, ok := entry.GetString("schema")
		if !ok || schema == "" {
			return nil, fmt.Errorf("%w: %q is missing a schema URL", ErrInvalidCapability, name)
		}

		version, _ := entry.GetString("version")
		extends, _ := entry.GetString("extends")

		capabilities = append(capabilities, Capability{
			Name:    name,
			Version: version,
			Schema:  schema,
			Extends: extends,
		})
	}

	return capabilities, nil
}

// ExtractCapabilitiesFromProfile fetches the profile document at url and
// extracts its capabilities.
func ExtractCapabilitiesFromProfile(l *loader.Loader, url string) ([]Capability, error) {
	profile, err := l.LoadAuto(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetchFailed, url, err)
	}

	return ExtractCapabilities(profile)
}

// Compose builds one schema from the capability set: the root schema alone
// when there are no extensions, otherwise an `allOf` of the root followed
// by each extension in declaration order. References inside each fetched
// schema are bundled so the result is self-contained.
func Compose(l *loader.Loader, capabilities []Capability) (jsontree.Value, error) {
	root, extensions, err := partition(capabilities)
	if err != nil {
		return nil, err
	}

	rootSchema, err := fetchSchema(l, root)
	if err != nil {
		return nil, err
	}

	if len(extensions) == 0 {
		return rootSchema, nil
	}

	branches := jsontree.NewArray(rootSchema)

	for _, ext := range extensions {
		extSchema, err := fetchSchema(l, ext)
		if err != nil {
			return nil, err
		}

		branches.Items = append(branches.Items, extSchema)
	}

	composed := jsontree.NewObject()
	composed.Set("allOf", branches)

	slog.Debug("composed schema",
		"root", root.Name, "extensions", len(extensions))

	return composed, nil
}

// ComposeFromPayload extracts the payload's capabilities and composes them.
func ComposeFromPayload(l *loader.Loader, payload jsontree.Value) (jsontree.Value, error) {
	capabilities, err := ExtractCapabilities(payload)
	if err != nil {
		return nil, err
	}

	return Compose(l, capabilities)
}

// ExtractEnvelopePayload pulls the domain payload out of a JSONRPC
// envelope. The payload is keyed by the root capability's short name,
// either at the top level or under "params". Returns the payload and the
// key used.
func ExtractEnvelopePayload(envelope jsontree.Value, capabilities []Capability) (jsontree.Value, string, error) {
	root, _, err := partition(capabilities)
	if err != nil {
		return nil, "", err
	}

	key := root.ShortName()

	obj, ok := envelope.(*jsontree.Object)
	if !ok {
		return nil, "", fmt.Errorf("%w: envelope is not an object", ErrEnvelopePayload)
	}

	if payload, ok := obj.Get(key); ok {
		return payload, key, nil
	}

	if params := obj.GetObject("params"); params != nil {
		if payload, ok := params.Get(key); ok {
			return payload, key, nil
		}
	}

	return nil, "", fmt.Errorf("%w: no %q key in envelope", ErrEnvelopePayload, key)
}

// partition splits capabilities into the single root and its extensions,
// validating the graph shape.
func partition(capabilities []Capability) (Capability, []Capability, error) {
	if len(capabilities) == 0 {
		return Capability{}, nil, ErrNoCapabilities
	}

	names := make(map[string]bool, len(capabilities))
	for _, c := range capabilities {
		names[c.Name] = true
	}

	var (
		roots      []Capability
		extensions []Capability
	)

	for _, c := range capabilities {
		if c.Extends == "" {
			roots = append(roots, c)

			continue
		}

		if !names[c.Extends] {
			return Capability{}, nil, fmt.Errorf("%w %q of %q", ErrUnknownParent, c.Extends, c.Name)
		}

		extensions = append(extensions, c)
	}

	switch len(roots) {
	case 0:
		return Capability{}, nil, ErrNoRoot
	case 1:
		return roots[0], extensions, nil
	}

	rootNames := make([]string, len(roots))
	for i, c := range roots {
		rootNames[i] = c.Name
	}

	return Capability{}, nil, fmt.Errorf("%w: %s", ErrMultipleRoots, strings.Join(rootNames, ", "))
}

// fetchSchema loads a capability's schema and bundles its references in the
// schema's own location context.
func fetchSchema(l *loader.Loader, c Capability) (jsontree.Value, error) {
	schema, err := l.LoadAuto(c.Schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetchFailed, c.Schema, err)
	}

	base := schemaBase(l, c.Schema)

	bundled, err := bundler.New(l).Bundle(schema, base)
	if err != nil {
		return nil, fmt.Errorf("bundling %s: %w", c.Schema, err)
	}

	return bundled, nil
}

// schemaBase returns the location base for a capability schema: the mapped
// local directory when the base config applies, otherwise the URL or path
// directory.
func schemaBase(l *loader.Loader, source string) string {
	if mapped, ok := l.Base.Map(source); ok {
		return filepath.Dir(mapped)
	}

	if loader.IsURL(source) {
		if i := strings.LastIndex(source, "/"); i > len("https://") {
			return source[:i]
		}

		return source
	}

	return filepath.Dir(source)
}
