// Package registry resolves operator identifiers to runnable descriptors.
//
// Operators come from two places: factories linked into the binary and
// registered from init() (builtins), and bundle directories under
// caller-supplied roots, each holding a metadata.yaml artifact whose entry
// field names a linked factory. Builtins are consulted first. Resolution
// never constructs an operator instance; descriptors carry the factory for
// the harness to invoke.
package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/JasonW404-HW/DataMate-Ops/pkg/metadata"
	"github.com/JasonW404-HW/DataMate-Ops/pkg/operator"
)

// SourceBuiltin is the Descriptor.Source value for operators linked into
// the binary.
const SourceBuiltin = "builtin"

// Root is a directory tree searched for operator bundles. Each immediate
// subdirectory holding a metadata.yaml is a candidate bundle.
type Root struct {
	// FS contains the bundle directories.
	FS fs.FS

	// Name identifies the root in error messages and descriptor sources,
	// usually the path it was opened from.
	Name string
}

// DirRoot opens a directory on the local filesystem as a bundle root.
func DirRoot(dir string) Root {
	return Root{FS: os.DirFS(dir), Name: dir}
}

// Descriptor is a resolved operator: its manifest plus the factory that
// constructs instances. The registry hands these out without calling the
// factory.
type Descriptor struct {
	// ID is the identifier the operator resolves under.
	ID string

	// Manifest is the operator's parsed metadata artifact.
	Manifest *metadata.Manifest

	// Factory constructs operator instances from validated bindings.
	Factory operator.Factory

	// Source records where the descriptor came from: SourceBuiltin or the
	// name of the bundle root it was found under.
	Source string
}

// Registry resolves operator identifiers against the builtin table and a
// list of bundle roots. Successful resolutions are cached, so repeated
// lookups of the same identifier return the same descriptor.
type Registry struct {
	mu    sync.RWMutex
	roots []Root
	cache map[string]*Descriptor
}

// New creates a registry that searches the given bundle roots after the
// builtins linked into the binary.
func New(roots ...Root) *Registry {
	return &Registry{
		roots: roots,
		cache: make(map[string]*Descriptor),
	}
}

// Resolve returns the descriptor for an operator identifier.
//
// The search order is builtins first, then each root's
// <identifier>/metadata.yaml in root order. When nothing matches, a
// *NotFoundError lists the locations searched. A bundle directory that
// exists but cannot be loaded fails with *LoadError, or *metadata.ParseError
// when the artifact itself is malformed; such failures are not cached.
func (r *Registry) Resolve(identifier string) (*Descriptor, error) {
	r.mu.RLock()
	desc, ok := r.cache[identifier]
	r.mu.RUnlock()
	if ok {
		return desc, nil
	}

	desc, err := r.lookup(identifier)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// A concurrent Resolve may have won; keep the cached descriptor so all
	// callers see the same one.
	if cached, ok := r.cache[identifier]; ok {
		return cached, nil
	}
	r.cache[identifier] = desc

	return desc, nil
}

// Invalidate drops the cached descriptor for an identifier, forcing the
// next Resolve to re-read bundle state from disk. Watch sessions use this
// so edits to a bundle's metadata artifact take effect on rerun.
func (r *Registry) Invalidate(identifier string) {
	r.mu.Lock()
	delete(r.cache, identifier)
	r.mu.Unlock()
}

// List enumerates every resolvable operator: builtins plus bundle
// directories under the roots, sorted by identifier. Bundles that fail to
// load are skipped here; resolving them explicitly surfaces the error.
func (r *Registry) List() []*Descriptor {
	seen := make(map[string]bool)
	var descs []*Descriptor

	for _, name := range builtinNames() {
		if desc, err := r.Resolve(name); err == nil && !seen[desc.ID] {
			seen[desc.ID] = true
			descs = append(descs, desc)
		}
	}

	for _, root := range r.roots {
		entries, err := fs.ReadDir(root.FS, ".")
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() || seen[entry.Name()] {
				continue
			}
			if desc, err := r.Resolve(entry.Name()); err == nil && !seen[desc.ID] {
				seen[desc.ID] = true
				descs = append(descs, desc)
			}
		}
	}

	sort.Slice(descs, func(i, j int) bool { return descs[i].ID < descs[j].ID })

	return descs
}

func (r *Registry) lookup(identifier string) (*Descriptor, error) {
	if manifest, ok := builtinManifest(identifier); ok {
		factory, _ := factoryFor(manifest.Entry)
		return &Descriptor{
			ID:       identifier,
			Manifest: manifest,
			Factory:  factory,
			Source:   SourceBuiltin,
		}, nil
	}

	searched := []string{SourceBuiltin}
	for _, root := range r.roots {
		desc, err := loadBundle(root, identifier)
		if err == nil {
			return desc, nil
		}
		if errors.Is(err, errNoBundle) {
			searched = append(searched, root.Name)
			continue
		}
		return nil, err
	}

	return nil, &NotFoundError{ID: identifier, Searched: searched}
}

// errNoBundle reports that a root has no bundle directory for an
// identifier. It never escapes the registry.
var errNoBundle = errors.New("no bundle directory")

// loadBundle reads <identifier>/metadata.yaml under a root and links it to
// a registered factory.
func loadBundle(root Root, identifier string) (*Descriptor, error) {
	info, err := fs.Stat(root.FS, identifier)
	if err != nil || !info.IsDir() {
		return nil, errNoBundle
	}

	artifact := path.Join(identifier, metadata.ArtifactName)
	raw, err := fs.ReadFile(root.FS, artifact)
	if err != nil {
		return nil, &LoadError{
			ID:     identifier,
			Reason: "missing metadata artifact " + metadata.ArtifactName,
			Cause:  err,
		}
	}

	manifest, err := metadata.Parse(raw)
	if err != nil {
		var perr *metadata.ParseError
		if errors.As(err, &perr) {
			perr.Source = filepath.Join(root.Name, identifier, metadata.ArtifactName)
		}
		return nil, err
	}

	if manifest.Name != identifier {
		return nil, &LoadError{
			ID:     identifier,
			Reason: fmt.Sprintf("metadata artifact names operator %q, which does not match the bundle directory", manifest.Name),
		}
	}

	factory, ok := factoryFor(manifest.Entry)
	if !ok {
		return nil, &LoadError{
			ID:     identifier,
			Reason: fmt.Sprintf("entry %q is not linked into this binary", manifest.Entry),
		}
	}

	return &Descriptor{
		ID:       identifier,
		Manifest: manifest,
		Factory:  factory,
		Source:   root.Name,
	}, nil
}
