package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/JasonW404-HW/DataMate-Ops/pkg/metadata"
	"github.com/JasonW404-HW/DataMate-Ops/pkg/operator"
)

var (
	builtinMu sync.RWMutex

	// builtinFactories maps entry names to the factories linked into this
	// binary. Bundle manifests reference factories through these names.
	builtinFactories = make(map[string]operator.Factory)

	// builtinManifests maps operator names to their embedded manifests.
	builtinManifests = make(map[string]*metadata.Manifest)
)

// Register links an operator factory into the binary under the given entry
// name and publishes its embedded metadata artifact. Operator packages call
// it from init() with a go:embed'ed metadata.yaml, the same way database/sql
// drivers register themselves.
//
// Register panics on an empty entry, a nil factory, a manifest that does not
// parse, an entry mismatch between the arguments and the manifest, or a
// duplicate registration. These are programmer errors caught at startup.
func Register(entry string, factory operator.Factory, manifestYAML []byte) {
	builtinMu.Lock()
	defer builtinMu.Unlock()

	if entry == "" {
		panic("registry: Register entry is empty")
	}
	if factory == nil {
		panic("registry: Register factory is nil")
	}

	manifest, err := metadata.Parse(manifestYAML)
	if err != nil {
		panic(fmt.Sprintf("registry: Register %q: %v", entry, err))
	}
	if manifest.Entry != entry {
		panic(fmt.Sprintf("registry: Register %q: manifest declares entry %q", entry, manifest.Entry))
	}

	if _, dup := builtinFactories[entry]; dup {
		panic(fmt.Sprintf("registry: Register called twice for entry %q", entry))
	}
	if _, dup := builtinManifests[manifest.Name]; dup {
		panic(fmt.Sprintf("registry: Register called twice for operator %q", manifest.Name))
	}

	builtinFactories[entry] = factory
	builtinManifests[manifest.Name] = manifest
}

// factoryFor returns the factory linked under an entry name.
func factoryFor(entry string) (operator.Factory, bool) {
	builtinMu.RLock()
	defer builtinMu.RUnlock()

	factory, ok := builtinFactories[entry]
	return factory, ok
}

// builtinManifest returns the embedded manifest for a builtin operator name.
func builtinManifest(name string) (*metadata.Manifest, bool) {
	builtinMu.RLock()
	defer builtinMu.RUnlock()

	manifest, ok := builtinManifests[name]
	return manifest, ok
}

// builtinNames returns the names of all builtin operators, sorted.
func builtinNames() []string {
	builtinMu.RLock()
	defer builtinMu.RUnlock()

	names := make([]string, 0, len(builtinManifests))
	for name := range builtinManifests {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
