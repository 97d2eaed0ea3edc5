package session

import (
	"testing"

	"github.com/bmizerany/assert"

	"github.com/gomirror/gomirror/engine/common"
	"github.com/gomirror/gomirror/engine/entity"
	"github.com/gomirror/gomirror/engine/prefab"
)

const clientPeerID common.PeerID = 1

type loopbackPair struct {
	lb        *Loopback
	server    *entity.EntityManager
	client    *entity.EntityManager
	serverReg *prefab.Registry
	clientReg *prefab.Registry
}

func newLoopbackPair() *loopbackPair {
	serverReg := prefab.NewRegistry()
	clientReg := prefab.NewRegistry()
	for _, r := range []*prefab.Registry{serverReg, clientReg} {
		r.Register("ball", func() *entity.Entity { return entity.NewEntity(0) })
	}

	lb := NewLoopback()
	server := entity.NewEntityManager(&entity.ManagerConfig{
		IsAuthority: true,
		LocalPeerID: common.ServerPeerID,
	}, lb, serverReg)
	client := entity.NewEntityManager(&entity.ManagerConfig{
		IsAuthority: false,
		LocalPeerID: clientPeerID,
	}, nil, clientReg)
	lb.Attach(clientPeerID, client)
	server.OnPeerJoined(clientPeerID)

	return &loopbackPair{lb: lb, server: server, client: client, serverReg: serverReg, clientReg: clientReg}
}

func (lp *loopbackPair) spawnBall(owner common.PeerID, isPlayerObject bool) *entity.Entity {
	e, err := lp.serverReg.Instantiate(prefab.HashName("ball"))
	if err != nil {
		panic(err)
	}
	lp.server.EnableSync(e)
	if err := lp.server.Spawn(e, owner, isPlayerObject); err != nil {
		panic(err)
	}
	return e
}

func TestLoopbackSpawnPropagates(t *testing.T) {
	lp := newLoopbackPair()

	e := lp.spawnBall(clientPeerID, true)

	lp.lb.Deliver()
	mirror := lp.client.GetEntity(e.ID)
	assert.T(t, mirror != nil)
	assert.Equal(t, e.PrefabHash, mirror.PrefabHash)
	assert.Equal(t, clientPeerID, mirror.Owner())
	assert.T(t, mirror.IsPlayerObject())
}

func TestLoopbackDeltaFlow(t *testing.T) {
	lp := newLoopbackPair()
	e := lp.spawnBall(common.NilPeerID, false)
	lp.lb.Deliver()
	mirror := lp.client.GetEntity(e.ID)
	assert.T(t, mirror != nil)

	e.Transform.Position = entity.Vector3{X: 4, Y: 0, Z: -2}
	lp.server.Tick(1.0, 0.1)
	lp.lb.Deliver()
	lp.client.Tick(1.0, 0.1)

	assert.Equal(t, e.Transform.Position, mirror.Transform.Position)

	// a clean server tick emits nothing new
	pendingBefore := len(lp.lb.pending)
	lp.server.Tick(2.0, 0.1)
	assert.Equal(t, pendingBefore, len(lp.lb.pending))
}

func TestLoopbackOwnershipAndDespawn(t *testing.T) {
	lp := newLoopbackPair()
	e := lp.spawnBall(clientPeerID, false)
	lp.lb.Deliver()
	mirror := lp.client.GetEntity(e.ID)

	assert.Equal(t, nil, lp.server.RemoveOwnership(e))
	lp.lb.Deliver()
	assert.T(t, mirror.Owner().IsNil())

	assert.Equal(t, nil, lp.server.Despawn(e, true))
	lp.lb.Deliver()
	assert.Equal(t, (*entity.Entity)(nil), lp.client.GetEntity(e.ID))
}

func TestLoopbackLateJoinReplay(t *testing.T) {
	serverReg := prefab.NewRegistry()
	serverReg.Register("ball", func() *entity.Entity { return entity.NewEntity(0) })
	clientReg := prefab.NewRegistry()
	clientReg.Register("ball", func() *entity.Entity { return entity.NewEntity(0) })

	lb := NewLoopback()
	server := entity.NewEntityManager(&entity.ManagerConfig{
		IsAuthority: true,
		LocalPeerID: common.ServerPeerID,
	}, lb, serverReg)

	// entities exist before the peer connects
	for i := 0; i < 3; i++ {
		e, _ := serverReg.Instantiate(prefab.HashName("ball"))
		assert.Equal(t, nil, server.Spawn(e, common.NilPeerID, false))
	}

	client := entity.NewEntityManager(&entity.ManagerConfig{
		IsAuthority: false,
		LocalPeerID: clientPeerID,
	}, nil, clientReg)
	lb.Attach(clientPeerID, client)
	server.OnPeerJoined(clientPeerID)
	lb.Deliver()

	assert.Equal(t, 3, len(client.Entities()))
}

func TestLoopbackSceneObjectSoftSync(t *testing.T) {
	lp := newLoopbackPair()

	// the client scene already contains a placed instance
	placed, _ := lp.clientReg.Instantiate(prefab.HashName("ball"))
	placed.Transform.Position = entity.Vector3{X: 9}
	lp.clientReg.PlaceSceneInstance(placed)

	e, _ := lp.serverReg.Instantiate(prefab.HashName("ball"))
	assert.Equal(t, nil, lp.server.SpawnSceneObject(e, true))
	lp.lb.Deliver()

	mirror := lp.client.GetEntity(e.ID)
	assert.T(t, mirror == placed, "spawn must claim the placed instance, not create a new one")
	assert.T(t, mirror.IsSceneObject())
	assert.T(t, mirror.DestroyWithScene())
}

func TestPollUntil(t *testing.T) {
	n := 0
	err := PollUntil(func() bool { return n >= 3 }, 10, func() { n++ })
	assert.Equal(t, nil, err)
	assert.Equal(t, 3, n)

	err = PollUntil(func() bool { return false }, 5, func() {})
	assert.T(t, err != nil)
}
