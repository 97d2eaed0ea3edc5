package prefab

import (
	"hash/fnv"

	"github.com/pkg/errors"
	trie_tst "github.com/xiaonanln/go-trie-tst"

	"github.com/gomirror/gomirror/engine/entity"
	"github.com/gomirror/gomirror/engine/gmlog"
)

// ErrPrefabNotFound is returned when a prefab hash or name resolves to
// nothing registered
var ErrPrefabNotFound = errors.New("prefab not found")

// Factory creates a fresh unspawned entity of a prefab type
type Factory func() *entity.Entity

// Prefab is a registered instantiable entity template
type Prefab struct {
	Name string
	Hash uint32
	New  Factory
}

// Registry maps prefab hashes to templates and holds in-scene placed
// instances awaiting soft synchronization. It implements
// entity.PrefabResolver.
type Registry struct {
	prefabs map[uint32]*Prefab
	byName  trie_tst.TST
	// sceneInstances holds placed instances per hash, resolved in placement
	// order
	sceneInstances map[uint32][]*entity.Entity
}

// NewRegistry creates an empty prefab registry
func NewRegistry() *Registry {
	return &Registry{
		prefabs:        map[uint32]*Prefab{},
		sceneInstances: map[uint32][]*entity.Entity{},
	}
}

// HashName returns the stable hash of a prefab name, used on the wire
func HashName(name string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(name))
	return h.Sum32()
}

// Register adds a prefab template under its name hash
func (r *Registry) Register(name string, factory Factory) *Prefab {
	hash := HashName(name)
	if old := r.prefabs[hash]; old != nil {
		gmlog.Warnf("prefab %s (%#x) re-registered, replacing %s", name, hash, old.Name)
	}
	p := &Prefab{Name: name, Hash: hash, New: factory}
	r.prefabs[hash] = p
	r.byName.Sub(name).Val = p
	gmlog.Debugf("registered prefab %s (%#x)", name, hash)
	return p
}

// Get returns the prefab of the hash, nil when unregistered
func (r *Registry) Get(hash uint32) *Prefab {
	return r.prefabs[hash]
}

// GetByName returns the prefab of the name, nil when unregistered
func (r *Registry) GetByName(name string) *Prefab {
	v := r.byName.Sub(name).Val
	if v == nil {
		return nil
	}
	return v.(*Prefab)
}

// Instantiate creates a fresh entity from the prefab of the hash
func (r *Registry) Instantiate(prefabHash uint32) (*entity.Entity, error) {
	p := r.prefabs[prefabHash]
	if p == nil {
		return nil, errors.Wrapf(ErrPrefabNotFound, "instantiate %#x", prefabHash)
	}
	e := p.New()
	e.PrefabHash = p.Hash
	return e, nil
}

// PlaceSceneInstance registers an in-scene placed entity to be claimed by a
// later spawn message of the same hash
func (r *Registry) PlaceSceneInstance(e *entity.Entity) {
	r.sceneInstances[e.PrefabHash] = append(r.sceneInstances[e.PrefabHash], e)
}

// ResolveSceneInstance claims the next placed instance of the hash for soft
// synchronization
func (r *Registry) ResolveSceneInstance(prefabHash uint32) (*entity.Entity, error) {
	placed := r.sceneInstances[prefabHash]
	if len(placed) == 0 {
		return nil, errors.Wrapf(ErrPrefabNotFound, "resolve scene instance %#x", prefabHash)
	}
	e := placed[0]
	r.sceneInstances[prefabHash] = placed[1:]
	return e, nil
}
