package entity

import (
	"time"

	"github.com/pkg/errors"

	"github.com/gomirror/gomirror/engine/common"
	"github.com/gomirror/gomirror/engine/consts"
	"github.com/gomirror/gomirror/engine/gmlog"
	"github.com/gomirror/gomirror/engine/ident"
	"github.com/gomirror/gomirror/engine/netutil"
	"github.com/gomirror/gomirror/engine/post"
	"github.com/gomirror/gomirror/engine/proto"
)

// Transport delivers an encoded message to the given peers with the
// requested guarantee and returns the payload byte size
type Transport interface {
	SendMessage(payload []byte, guarantee proto.DeliveryGuarantee, peers []common.PeerID) int
}

// PrefabResolver resolves a prefab hash to an instantiable entity, or to an
// in-scene placed instance for soft synchronization
type PrefabResolver interface {
	Instantiate(prefabHash uint32) (*Entity, error)
	ResolveSceneInstance(prefabHash uint32) (*Entity, error)
}

// ManagerConfig carries the knobs of an EntityManager
type ManagerConfig struct {
	IsAuthority    bool
	LocalPeerID    common.PeerID
	RecycleIDs     bool
	RecycleDelay   time.Duration
	SyncSettings   *SyncSettings
	InterpBackTime float64
}

// EntityManager orchestrates entity lifecycle: spawn, despawn, ownership
// transfer, reparenting and per-peer observer tracking. All methods must be
// called from the session goroutine.
type EntityManager struct {
	isAuthority bool
	localPeerID common.PeerID
	cfg         *ManagerConfig

	allocator *ident.Allocator
	entities  EntityMap
	peers     map[common.PeerID]*Peer
	// orphans maps a not-yet-present parent id to the children waiting for it
	orphans map[common.EntityID]common.EntityIDList

	transport Transport
	resolver  PrefabResolver
	postQueue *post.Queue

	clock func() time.Time
	now   float64
}

// NewEntityManager creates an entity manager. transport and resolver may be
// nil for offline use (tests, tools).
func NewEntityManager(cfg *ManagerConfig, transport Transport, resolver PrefabResolver) *EntityManager {
	if cfg.SyncSettings == nil {
		cfg.SyncSettings = NewSyncSettings(0, 0, 0)
	}
	return &EntityManager{
		isAuthority: cfg.IsAuthority,
		localPeerID: cfg.LocalPeerID,
		cfg:         cfg,
		allocator:   ident.NewAllocator(cfg.RecycleIDs, cfg.RecycleDelay),
		entities:    EntityMap{},
		peers:       map[common.PeerID]*Peer{},
		orphans:     map[common.EntityID]common.EntityIDList{},
		transport:   transport,
		resolver:    resolver,
		postQueue:   post.NewQueue(),
		clock:       time.Now,
	}
}

// IsAuthority returns if this side is the authoritative peer
func (mgr *EntityManager) IsAuthority() bool {
	return mgr.isAuthority
}

// LocalPeerID returns the peer id of the local side
func (mgr *EntityManager) LocalPeerID() common.PeerID {
	return mgr.localPeerID
}

// Entities returns the id to entity map
func (mgr *EntityManager) Entities() EntityMap {
	return mgr.entities
}

// GetEntity returns the live entity of the id, nil when unknown
func (mgr *EntityManager) GetEntity(id common.EntityID) *Entity {
	return mgr.entities.Get(id)
}

// Post defers a callback to run after the current tick phase
func (mgr *EntityManager) Post(callback func()) {
	mgr.postQueue.Post(callback)
}

// EnableSync attaches a transform replicator to the entity with the
// manager's configured settings
func (mgr *EntityManager) EnableSync(e *Entity) *TransformSync {
	return e.EnableSync(mgr.cfg.SyncSettings, mgr.cfg.InterpBackTime)
}

// Spawn allocates an id and spawns the entity, authority side convenience
func (mgr *EntityManager) Spawn(e *Entity, owner common.PeerID, isPlayerObject bool) error {
	if !mgr.isAuthority {
		return errors.Wrapf(ErrNotAuthority, "spawn %s", e)
	}
	id := mgr.allocator.Allocate(mgr.clock())
	if err := mgr.SpawnLocally(e, id, false, isPlayerObject, owner, false); err != nil {
		mgr.allocator.Release(id, mgr.clock())
		return err
	}
	return nil
}

// SpawnSceneObject allocates an id and spawns an in-scene placed entity
func (mgr *EntityManager) SpawnSceneObject(e *Entity, destroyWithScene bool) error {
	if !mgr.isAuthority {
		return errors.Wrapf(ErrNotAuthority, "spawn scene object %s", e)
	}
	id := mgr.allocator.Allocate(mgr.clock())
	if err := mgr.SpawnLocally(e, id, true, false, common.NilPeerID, destroyWithScene); err != nil {
		mgr.allocator.Release(id, mgr.clock())
		return err
	}
	return nil
}

// SpawnLocally moves the entity to the Spawned state under the given id.
// Used on the authority for originated spawns and on other peers to
// reconstruct entities from spawn messages.
func (mgr *EntityManager) SpawnLocally(e *Entity, id common.EntityID, isSceneObject, isPlayerObject bool, owner common.PeerID, destroyWithScene bool) error {
	if e.spawned {
		return errors.Wrapf(ErrAlreadySpawned, "spawn %s as %s", e, id)
	}
	if other := mgr.entities.Get(id); other != nil {
		return errors.Wrapf(ErrDuplicateID, "spawn %s as %s, already held by %s", e, id, other)
	}

	e.ID = id
	e.spawned = true
	e.isSceneObject = isSceneObject
	e.isPlayerObject = isPlayerObject
	e.destroyWithScene = destroyWithScene
	e.owner = owner
	e.mgr = mgr
	mgr.entities.Add(e)

	if !owner.IsNil() {
		if peer := mgr.peers[owner]; peer != nil {
			peer.addOwned(id)
			if isPlayerObject {
				peer.playerObject = id
			}
		}
	}

	if mgr.isAuthority {
		mgr.updateObserversOf(e)
	}

	mgr.adoptOrphansOf(id)

	if consts.DEBUG_SPAWNS {
		gmlog.Debugf("spawned %s", e)
	}
	e.notifySpawned()
	return nil
}

// Despawn moves the entity to the terminal Despawned state and releases its
// id. Authority only.
func (mgr *EntityManager) Despawn(e *Entity, destroyUnderlying bool) error {
	if !e.spawned {
		return errors.Wrapf(ErrNotSpawned, "despawn %s", e)
	}
	if !mgr.isAuthority {
		return errors.Wrapf(ErrNotAuthority, "despawn %s", e)
	}

	// 1. detach children to root
	for child := range e.children {
		gmlog.Warnf("%s: child %s detached to root by despawn of its parent", e, child)
		child.isReparented = false
		child.parentID = common.NilEntityID
	}
	e.children = EntitySet{}

	// 2. remove from the owning peer's list unless it is the player object
	if !e.owner.IsNil() && !e.isPlayerObject {
		if peer := mgr.peers[e.owner]; peer != nil {
			peer.removeOwned(e.ID)
		}
	}

	// 3. behaviors
	e.notifyDespawned()

	// 4. queue the id for recycling
	mgr.allocator.Release(e.ID, mgr.clock())

	// 5. destroy notification to every observer
	mgr.sendDespawnTo(e.observers.ToList(), e.ID)

	// 6. drop from the global map, terminal state
	mgr.removeLocally(e)

	// 7. optionally tear down the underlying object
	if destroyUnderlying {
		e.Attrs = nil
		e.behaviors = nil
		e.sync = nil
	}
	return nil
}

// removeLocally unlinks a spawned entity from the manager without any
// notification sends
func (mgr *EntityManager) removeLocally(e *Entity) {
	if parent := e.parent(); parent != nil {
		parent.children.Del(e)
	}
	mgr.entities.Del(e.ID)
	mgr.dropWaitingChild(e)
	e.spawned = false
	e.observers = common.PeerIDSet{}
	if !e.owner.IsNil() {
		if peer := mgr.peers[e.owner]; peer != nil && peer.playerObject == e.ID {
			peer.playerObject = common.NilEntityID
			peer.removeOwned(e.ID)
		}
	}
	if consts.DEBUG_SPAWNS {
		gmlog.Debugf("despawned %s", e)
	}
}

// ChangeOwnership transfers the entity to the new owner and notifies all
// peers. Authority only; RemoveOwnership passes NilPeerID.
func (mgr *EntityManager) ChangeOwnership(e *Entity, newOwner common.PeerID) error {
	if !mgr.isAuthority {
		return errors.Wrapf(ErrNotAuthority, "change ownership of %s", e)
	}
	if !e.spawned {
		return errors.Wrapf(ErrNotSpawned, "change ownership of %s", e)
	}

	oldOwner := e.owner
	if oldOwner == newOwner {
		return nil
	}
	// the entity must never be visible in two owned-lists: remove, update,
	// insert as one step
	if peer := mgr.peers[oldOwner]; peer != nil {
		peer.removeOwned(e.ID)
		if peer.playerObject == e.ID {
			peer.playerObject = common.NilEntityID
		}
	}
	e.owner = newOwner
	if peer := mgr.peers[newOwner]; peer != nil {
		peer.addOwned(e.ID)
		if e.isPlayerObject {
			peer.playerObject = e.ID
		}
	}

	e.notifyOwnershipChanged(oldOwner, newOwner)
	mgr.sendOwnershipChangeTo(mgr.allPeerIDs(), e.ID, newOwner)
	return nil
}

// RemoveOwnership makes the entity unowned
func (mgr *EntityManager) RemoveOwnership(e *Entity) error {
	return mgr.ChangeOwnership(e, common.NilPeerID)
}

// Reparent records the logical parent of the entity. When the parent is not
// spawned locally yet the relation is kept pending and applied once the
// parent appears.
func (mgr *EntityManager) Reparent(e *Entity, parentID common.EntityID) {
	if old := e.parent(); old != nil {
		old.children.Del(e)
	}
	mgr.dropWaitingChild(e)
	if parentID.IsNil() {
		e.isReparented = false
		e.parentID = common.NilEntityID
		return
	}

	e.isReparented = true
	e.parentID = parentID
	if parent := mgr.entities.Get(parentID); parent != nil {
		parent.children.Add(e)
		return
	}
	gmlog.Warnf("%s: parent %s not available yet, will retry when it spawns", e, parentID)
	waiting := mgr.orphans[parentID]
	waiting.Append(e.ID)
	mgr.orphans[parentID] = waiting
}

// dropWaitingChild removes the entity from its pending-parent wait list, if
// it is on one
func (mgr *EntityManager) dropWaitingChild(e *Entity) {
	if !e.isReparented {
		return
	}
	waiting, ok := mgr.orphans[e.parentID]
	if !ok {
		return
	}
	waiting.Remove(e.ID)
	if len(waiting) == 0 {
		delete(mgr.orphans, e.parentID)
	} else {
		mgr.orphans[e.parentID] = waiting
	}
}

// adoptOrphansOf attaches children that were waiting for the id to spawn
func (mgr *EntityManager) adoptOrphansOf(id common.EntityID) {
	waiting, ok := mgr.orphans[id]
	if !ok {
		return
	}
	delete(mgr.orphans, id)
	mgr.postQueue.Post(func() {
		parent := mgr.entities.Get(id)
		if parent == nil {
			return
		}
		for _, childID := range waiting {
			child := mgr.entities.Get(childID)
			if child == nil || !child.isReparented || child.parentID != id {
				continue
			}
			parent.children.Add(child)
		}
	})
}

// UpdateObservers reconciles the observer sets of all entities against their
// visibility policies. Idempotent: unchanged predicate results mutate
// nothing.
func (mgr *EntityManager) UpdateObservers() {
	if !mgr.isAuthority {
		return
	}
	for _, e := range mgr.entities {
		mgr.updateObserversOf(e)
	}
}

// UpdateObserversForPeer reconciles every entity's observer set for one peer
func (mgr *EntityManager) UpdateObserversForPeer(peerID common.PeerID) {
	if !mgr.isAuthority {
		return
	}
	for _, e := range mgr.entities {
		mgr.reconcileObserver(e, peerID)
	}
}

func (mgr *EntityManager) updateObserversOf(e *Entity) {
	for peerID := range mgr.peers {
		mgr.reconcileObserver(e, peerID)
	}
}

func (mgr *EntityManager) reconcileObserver(e *Entity, peerID common.PeerID) {
	should := e.visibility.Observes(peerID)
	has := e.observers.Contains(peerID)
	if should == has {
		return
	}
	if should {
		e.observers.Add(peerID)
		mgr.sendSpawnTo(peerID, e)
	} else {
		e.observers.Del(peerID)
		mgr.sendDespawnTo([]common.PeerID{peerID}, e.ID)
	}
}

// OnPeerJoined registers a connected peer and replays spawns of everything
// it observes
func (mgr *EntityManager) OnPeerJoined(peerID common.PeerID) *Peer {
	if peer := mgr.peers[peerID]; peer != nil {
		return peer
	}
	peer := NewPeer(peerID)
	mgr.peers[peerID] = peer
	gmlog.Infof("peer joined: %s", peer)
	mgr.UpdateObserversForPeer(peerID)
	return peer
}

// OnPeerLeft unregisters a peer: its player object is despawned, other owned
// entities lose their owner
func (mgr *EntityManager) OnPeerLeft(peerID common.PeerID) {
	peer := mgr.peers[peerID]
	if peer == nil {
		gmlog.Warnf("unknown peer left: %s", peerID)
		return
	}
	gmlog.Infof("peer left: %s", peer)

	owned := make(common.EntityIDList, len(peer.ownedObjects))
	copy(owned, peer.ownedObjects)
	for _, id := range owned {
		e := mgr.entities.Get(id)
		if e == nil {
			continue
		}
		if e.isPlayerObject {
			continue // despawned below
		}
		if err := mgr.RemoveOwnership(e); err != nil {
			gmlog.TraceError("remove ownership of %s on peer leave: %v", e, err)
		}
	}
	if player := mgr.entities.Get(peer.playerObject); player != nil {
		if err := mgr.Despawn(player, true); err != nil {
			gmlog.TraceError("despawn player object %s on peer leave: %v", player, err)
		}
	}

	delete(mgr.peers, peerID)
	for _, e := range mgr.entities {
		e.observers.Del(peerID)
	}
}

// GetPeer returns the record of a connected peer, nil when unknown
func (mgr *EntityManager) GetPeer(peerID common.PeerID) *Peer {
	return mgr.peers[peerID]
}

func (mgr *EntityManager) allPeerIDs() []common.PeerID {
	ids := make([]common.PeerID, 0, len(mgr.peers))
	for id := range mgr.peers {
		ids = append(ids, id)
	}
	return ids
}

// Tick drives one frame of the replication core in fixed phase order:
// incoming messages were dispatched by the caller already; advance
// interpolators and apply to live state; on authority detect dirtiness and
// flush outgoing deltas; run deferred callbacks.
func (mgr *EntityManager) Tick(now, deltaTime float64) {
	mgr.now = now

	if !mgr.isAuthority {
		for _, e := range mgr.entities {
			if e.sync != nil {
				e.sync.TickInterpolation(deltaTime)
			}
		}
	} else {
		mgr.UpdateObservers()
		for _, e := range mgr.entities {
			if e.sync == nil {
				continue
			}
			e.sync.Detect(now)
			if flags := e.sync.TakePending(); flags != 0 {
				mgr.sendStateDelta(e, flags)
			}
		}
	}

	mgr.postQueue.Tick()
}

func (mgr *EntityManager) sendSpawnTo(peerID common.PeerID, e *Entity) {
	if mgr.transport == nil {
		return
	}
	msg := mgr.buildSpawnMessage(e)
	packet := netutil.NewPacket()
	packet.AppendUint16(uint16(proto.MT_SPAWN))
	proto.AppendSpawnMessage(packet, msg)
	mgr.transport.SendMessage(packet.Payload(), proto.DELIVERY_RELIABLE_FRAGMENTED_SEQUENCED, []common.PeerID{peerID})
	packet.Release()
}

func (mgr *EntityManager) buildSpawnMessage(e *Entity) *proto.SpawnMessage {
	t := e.Transform
	return &proto.SpawnMessage{
		ID:               e.ID,
		PrefabHash:       e.PrefabHash,
		IsSceneObject:    e.isSceneObject,
		IsPlayerObject:   e.isPlayerObject,
		DestroyWithScene: e.destroyWithScene,
		ParentID:         e.ParentID(),
		OwnerID:          e.owner,
		HasPosition:      true,
		Position:         [3]float32{float32(t.Position.X), float32(t.Position.Y), float32(t.Position.Z)},
		HasRotation:      true,
		Rotation:         [3]float32{float32(t.Rotation.X), float32(t.Rotation.Y), float32(t.Rotation.Z)},
		InitialState:     e.Attrs,
	}
}

func (mgr *EntityManager) sendDespawnTo(peers []common.PeerID, id common.EntityID) {
	if mgr.transport == nil || len(peers) == 0 {
		return
	}
	packet := netutil.NewPacket()
	packet.AppendUint16(uint16(proto.MT_DESPAWN))
	packet.AppendEntityID(id)
	mgr.transport.SendMessage(packet.Payload(), proto.DELIVERY_RELIABLE_SEQUENCED, peers)
	packet.Release()
}

func (mgr *EntityManager) sendOwnershipChangeTo(peers []common.PeerID, id common.EntityID, newOwner common.PeerID) {
	if mgr.transport == nil || len(peers) == 0 {
		return
	}
	packet := netutil.NewPacket()
	packet.AppendUint16(uint16(proto.MT_OWNERSHIP_CHANGE))
	packet.AppendEntityID(id)
	packet.AppendPeerID(newOwner)
	mgr.transport.SendMessage(packet.Payload(), proto.DELIVERY_RELIABLE_SEQUENCED, peers)
	packet.Release()
}

func (mgr *EntityManager) sendStateDelta(e *Entity, flags uint16) {
	observers := e.observers.ToList()
	if mgr.transport == nil || len(observers) == 0 {
		return
	}
	packet := netutil.NewPacket()
	packet.AppendUint16(uint16(proto.MT_STATE_DELTA))
	packet.AppendEntityID(e.ID)
	e.sync.WriteDelta(packet, flags)
	size := mgr.transport.SendMessage(packet.Payload(), proto.DELIVERY_UNRELIABLE_SEQUENCED, observers)
	if consts.DEBUG_PACKETS {
		gmlog.Debugf("%s: sent state delta flags=%#x size=%d", e, flags, size)
	}
	packet.Release()
}

// OnReceiveSpawn reconstructs an entity from a spawn message on a
// non-authoritative peer
func (mgr *EntityManager) OnReceiveSpawn(msg *proto.SpawnMessage) error {
	if mgr.resolver == nil {
		return errors.Errorf("spawn of prefab %#x: no prefab resolver", msg.PrefabHash)
	}
	// check before resolving so a replayed spawn does not consume a placed
	// scene instance it will never use
	if other := mgr.entities.Get(msg.ID); other != nil {
		return errors.Wrapf(ErrDuplicateID, "spawn prefab %#x as %s, already held by %s", msg.PrefabHash, msg.ID, other)
	}

	var e *Entity
	var err error
	if msg.IsSceneObject {
		e, err = mgr.resolver.ResolveSceneInstance(msg.PrefabHash)
	} else {
		e, err = mgr.resolver.Instantiate(msg.PrefabHash)
	}
	if err != nil {
		return errors.Wrapf(err, "spawn %s", msg.ID)
	}

	if msg.HasPosition {
		e.Transform.Position = Vector3{Coord(msg.Position[0]), Coord(msg.Position[1]), Coord(msg.Position[2])}
	}
	if msg.HasRotation {
		e.Transform.Rotation = Vector3{Coord(msg.Rotation[0]), Coord(msg.Rotation[1]), Coord(msg.Rotation[2])}
	}
	if msg.InitialState != nil {
		e.Attrs = msg.InitialState
	}

	err = mgr.SpawnLocally(e, msg.ID, msg.IsSceneObject, msg.IsPlayerObject, msg.OwnerID, msg.DestroyWithScene)
	if err != nil {
		return err
	}
	if !msg.ParentID.IsNil() {
		mgr.Reparent(e, msg.ParentID)
	}
	// replicated entities always carry a replicator so later deltas are not
	// dropped; entities the authority never syncs simply receive none
	if e.sync == nil {
		mgr.EnableSync(e)
	} else {
		e.sync.ResetTo(e.Transform)
	}
	return nil
}

// OnReceiveDespawn tears down an entity on a non-authoritative peer. Unknown
// ids are logged and dropped.
func (mgr *EntityManager) OnReceiveDespawn(id common.EntityID) {
	e := mgr.entities.Get(id)
	if e == nil {
		gmlog.Warnf("despawn of unknown entity %s, dropped", id)
		return
	}
	for child := range e.children {
		child.isReparented = false
		child.parentID = common.NilEntityID
	}
	e.children = EntitySet{}
	e.notifyDespawned()
	mgr.allocator.Release(e.ID, mgr.clock())
	mgr.removeLocally(e)
}

// OnReceiveOwnershipChange applies an ownership transfer on a
// non-authoritative peer. Unknown ids are logged and dropped.
func (mgr *EntityManager) OnReceiveOwnershipChange(id common.EntityID, newOwner common.PeerID) {
	e := mgr.entities.Get(id)
	if e == nil {
		gmlog.Warnf("ownership change of unknown entity %s, dropped", id)
		return
	}
	oldOwner := e.owner
	e.owner = newOwner
	e.notifyOwnershipChanged(oldOwner, newOwner)
}

// OnReceiveStateDelta feeds a received transform delta into the entity's
// interpolators. Unknown ids are logged and dropped.
func (mgr *EntityManager) OnReceiveStateDelta(id common.EntityID, packet *netutil.Packet) {
	e := mgr.entities.Get(id)
	if e == nil {
		gmlog.Warnf("state delta of unknown entity %s, dropped", id)
		return
	}
	if e.sync == nil {
		gmlog.Warnf("state delta of unsynced entity %s, dropped", e)
		return
	}
	e.sync.ApplyDelta(packet)
}
