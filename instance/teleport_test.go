package instance_test

import (
	"testing"

	"github.com/endlessdimensions/core/instance"
)

type recordingTx struct {
	solidY int
}

func (r recordingTx) FloorSolid(pos instance.BlockPos) bool { return pos.Y == r.solidY }
func (r recordingTx) AirAt(pos instance.BlockPos) bool      { return pos.Y > r.solidY }

type recordingInstance struct {
	minY      int
	loaded    []instance.ChunkXZ
	tickCalls int
	tx        instance.Tx
}

func (r *recordingInstance) NextTick(f func(instance.Tx)) <-chan struct{} {
	r.tickCalls++
	c := make(chan struct{})
	f(r.tx)
	close(c)
	return c
}
func (r *recordingInstance) MinY() int { return r.minY }
func (r *recordingInstance) LoadChunk(pos instance.ChunkXZ) {
	r.loaded = append(r.loaded, pos)
}

type recordingPlayer struct {
	inst instance.Instance
	pos  instance.Position
}

func (p *recordingPlayer) SetInstance(inst instance.Instance, pos instance.Position) {
	p.inst = inst
	p.pos = pos
}

func TestTeleportFindsSafeSpawn(t *testing.T) {
	inst := &recordingInstance{minY: -64, tx: recordingTx{solidY: 70}}
	player := &recordingPlayer{}

	instance.Teleport(inst, player, instance.Position{X: 5, Y: 100, Z: 9})

	if player.inst != inst {
		t.Fatal("expected player to be moved into inst")
	}
	if player.pos.Y != 71 {
		t.Fatalf("expected safe spawn at y=71 (one above solid floor at 70), got %v", player.pos.Y)
	}
	if inst.tickCalls != 2 {
		t.Fatalf("expected two next-tick hops (load then attach), got %d", inst.tickCalls)
	}
	if len(inst.loaded) != 1 || inst.loaded[0] != (instance.ChunkXZ{X: 0, Z: 0}) {
		t.Fatalf("expected chunk (0,0) to be loaded, got %v", inst.loaded)
	}
}

func TestTeleportExactSkipsSafeSpawnSearch(t *testing.T) {
	inst := &recordingInstance{minY: -64, tx: recordingTx{solidY: 70}}
	player := &recordingPlayer{}

	instance.TeleportExact(inst, player, instance.Position{X: 1, Y: 12, Z: 1})

	if player.pos.Y != 12 {
		t.Fatalf("expected exact position preserved, got y=%v", player.pos.Y)
	}
}

func TestTeleportFallsBackWhenNoSafeSpotFound(t *testing.T) {
	inst := &recordingInstance{minY: 0, tx: recordingTx{solidY: -1000}}
	player := &recordingPlayer{}

	instance.Teleport(inst, player, instance.Position{X: 0, Y: 5, Z: 0})

	if player.pos.Y != 5 {
		t.Fatalf("expected fallback to the original clamped Y, got %v", player.pos.Y)
	}
}
