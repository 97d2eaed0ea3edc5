package entity

import (
	"fmt"

	"github.com/xiaonanln/typeconv"

	"github.com/gomirror/gomirror/engine/common"
	"github.com/gomirror/gomirror/engine/gmutils"
)

// Behavior receives lifecycle and state notifications of its hosting entity.
// Callbacks run inside the session tick, panic-isolated.
type Behavior interface {
	OnSpawned(e *Entity)
	OnDespawned(e *Entity)
	OnOwnershipChanged(e *Entity, oldOwner, newOwner common.PeerID)
	OnStateChanged(e *Entity, oldTransform, newTransform Transform)
}

// Entity is the replicated unit
type Entity struct {
	ID         common.EntityID
	PrefabHash uint32

	Transform Transform
	// Attrs is the loosely-typed entity state carried as the initial blob of
	// spawn messages
	Attrs map[string]interface{}

	spawned          bool
	isSceneObject    bool
	isPlayerObject   bool
	destroyWithScene bool
	owner            common.PeerID

	// logical parent relationship, tracked apart from the spatial transform
	// to tolerate replication order between parent and child
	isReparented bool
	parentID     common.EntityID
	children     EntitySet

	observers  common.PeerIDSet
	visibility Visibility
	sync       *TransformSync
	behaviors  []Behavior

	mgr *EntityManager
}

// NewEntity creates an unspawned entity for the prefab hash
func NewEntity(prefabHash uint32) *Entity {
	return &Entity{
		PrefabHash: prefabHash,
		Transform:  Transform{Scale: One()},
		Attrs:      map[string]interface{}{},
		owner:      common.NilPeerID,
		parentID:   common.NilEntityID,
		children:   EntitySet{},
		observers:  common.PeerIDSet{},
		visibility: VisibleToAll(),
	}
}

func (e *Entity) String() string {
	return fmt.Sprintf("Entity<%d|%s>", e.PrefabHash, e.ID)
}

// IsSpawned returns if the entity is currently spawned
func (e *Entity) IsSpawned() bool {
	return e.spawned
}

// IsSceneObject returns if the entity is an in-scene placed instance
func (e *Entity) IsSceneObject() bool {
	return e.isSceneObject
}

// IsPlayerObject returns if the entity is its owner's player object
func (e *Entity) IsPlayerObject() bool {
	return e.isPlayerObject
}

// DestroyWithScene returns if the entity should be destroyed on scene unload
func (e *Entity) DestroyWithScene() bool {
	return e.destroyWithScene
}

// Owner returns the owning peer, NilPeerID when unowned
func (e *Entity) Owner() common.PeerID {
	return e.owner
}

// ParentID returns the logical parent entity id, NilEntityID when at root
func (e *Entity) ParentID() common.EntityID {
	if !e.isReparented {
		return common.NilEntityID
	}
	return e.parentID
}

func (e *Entity) parent() *Entity {
	if e.mgr == nil || !e.isReparented {
		return nil
	}
	return e.mgr.entities.Get(e.parentID)
}

// Children returns the set of entities logically parented to this one
func (e *Entity) Children() EntitySet {
	return e.children
}

// Observers returns the set of peers currently observing the entity
func (e *Entity) Observers() common.PeerIDSet {
	return e.observers
}

// Visibility returns the entity's visibility policy
func (e *Entity) Visibility() Visibility {
	return e.visibility
}

// SetVisibility replaces the visibility policy. Observer sets are reconciled
// on the next UpdateObservers run.
func (e *Entity) SetVisibility(v Visibility) {
	e.visibility = v
}

// Sync returns the entity's transform replicator, nil when sync is not
// enabled for this entity
func (e *Entity) Sync() *TransformSync {
	return e.sync
}

// EnableSync attaches a transform replicator with the settings and
// interpolation back time
func (e *Entity) EnableSync(settings *SyncSettings, backTime float64) *TransformSync {
	e.sync = newTransformSync(e, settings, backTime)
	return e.sync
}

// AddBehavior registers a behavior on the entity
func (e *Entity) AddBehavior(b Behavior) {
	e.behaviors = append(e.behaviors, b)
}

// HasAuthority returns if the local side is authoritative for this entity
func (e *Entity) HasAuthority() bool {
	return e.mgr != nil && e.mgr.isAuthority
}

// GetAttrInt reads an integer attribute from the loosely-typed blob
func (e *Entity) GetAttrInt(key string) int64 {
	return typeconv.Int(e.Attrs[key])
}

// GetAttrFloat reads a float attribute from the loosely-typed blob
func (e *Entity) GetAttrFloat(key string) float64 {
	switch v := e.Attrs[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	default:
		return float64(typeconv.Int(v))
	}
}

// GetAttrStr reads a string attribute from the loosely-typed blob
func (e *Entity) GetAttrStr(key string) string {
	v, _ := e.Attrs[key].(string)
	return v
}

// GetAttrMap reads a nested map attribute from the loosely-typed blob
func (e *Entity) GetAttrMap(key string) map[string]interface{} {
	return typeconv.MapStringAnything(e.Attrs[key])
}

func (e *Entity) notifySpawned() {
	for _, b := range e.behaviors {
		b := b
		gmutils.RunPanicless(func() {
			b.OnSpawned(e)
		})
	}
}

func (e *Entity) notifyDespawned() {
	for _, b := range e.behaviors {
		b := b
		gmutils.RunPanicless(func() {
			b.OnDespawned(e)
		})
	}
}

func (e *Entity) notifyOwnershipChanged(oldOwner, newOwner common.PeerID) {
	for _, b := range e.behaviors {
		b := b
		gmutils.RunPanicless(func() {
			b.OnOwnershipChanged(e, oldOwner, newOwner)
		})
	}
}

func (e *Entity) notifyStateChanged(oldTransform, newTransform Transform) {
	for _, b := range e.behaviors {
		b := b
		gmutils.RunPanicless(func() {
			b.OnStateChanged(e, oldTransform, newTransform)
		})
	}
}
