package netutil

import (
	"testing"

	"github.com/bmizerany/assert"

	"github.com/gomirror/gomirror/engine/common"
)

func TestPacketReadWrite(t *testing.T) {
	packet := NewPacket()
	defer packet.Release()

	packet.AppendUint16(0x1234)
	packet.AppendBool(true)
	packet.AppendUint32(0xDEADBEEF)
	packet.AppendUint64(0x1122334455667788)
	packet.AppendFloat32(1.5)
	packet.AppendVarStr("gomirror")
	packet.AppendEntityID(common.EntityID(77))
	packet.AppendPeerID(common.PeerID(3))

	assert.Equal(t, uint16(0x1234), packet.ReadUint16())
	assert.Equal(t, true, packet.ReadBool())
	assert.Equal(t, uint32(0xDEADBEEF), packet.ReadUint32())
	assert.Equal(t, uint64(0x1122334455667788), packet.ReadUint64())
	assert.Equal(t, float32(1.5), packet.ReadFloat32())
	assert.Equal(t, "gomirror", packet.ReadVarStr())
	assert.Equal(t, common.EntityID(77), packet.ReadEntityID())
	assert.Equal(t, common.PeerID(3), packet.ReadPeerID())
	assert.T(t, !packet.HasUnreadPayload(), "payload should be fully read")
}

func TestPacketGrow(t *testing.T) {
	packet := NewPacket()
	defer packet.Release()

	payload := make([]byte, 10000)
	for i := range payload {
		payload[i] = byte(i)
	}
	packet.AppendVarBytes(payload)
	assert.T(t, packet.PayloadCap() >= 10004, "packet should have grown")

	got := packet.ReadVarBytes()
	assert.Equal(t, len(payload), len(got))
	assert.Equal(t, payload[9999], got[9999])
}

func TestPacketRelease(t *testing.T) {
	packet := NewPacket()
	packet.AppendUint32(42)
	packet.Release()

	packet = NewPacket()
	defer packet.Release()
	assert.Equal(t, uint32(0), packet.GetPayloadLen())
}

func TestMsgPacker(t *testing.T) {
	type blob struct {
		Name string
		X    float64
	}

	data, err := MSG_PACKER.PackMsg(blob{Name: "e1", X: 3.5}, nil)
	assert.Equal(t, nil, err)

	var out blob
	err = MSG_PACKER.UnpackMsg(data, &out)
	assert.Equal(t, nil, err)
	assert.Equal(t, "e1", out.Name)
	assert.Equal(t, 3.5, out.X)
}
