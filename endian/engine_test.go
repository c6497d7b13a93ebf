package endian

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestCheckEndianness(t *testing.T) {
	result := CheckEndianness()

	var probe uint16 = 0x0102
	probeBytes := (*[2]byte)(unsafe.Pointer(&probe))

	switch probeBytes[0] {
	case 0x01:
		require.Equal(t, binary.BigEndian, result)
	case 0x02:
		require.Equal(t, binary.LittleEndian, result)
	default:
		t.Fatalf("unexpected probe byte: %v", probeBytes[0])
	}
}

func TestEngines(t *testing.T) {
	le := GetLittleEndianEngine()
	be := GetBigEndianEngine()

	buf := make([]byte, 4)
	le.PutUint32(buf, 0x01020304)
	require.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, buf)
	be.PutUint32(buf, 0x01020304)
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, buf)

	appended := le.AppendUint16(nil, 0xBEEF)
	require.Equal(t, []byte{0xEF, 0xBE}, appended)
}

func TestCompareNativeEndian(t *testing.T) {
	native := CheckEndianness()
	require.Equal(t, native == binary.LittleEndian, CompareNativeEndian(GetLittleEndianEngine()))
	require.Equal(t, native == binary.BigEndian, CompareNativeEndian(GetBigEndianEngine()))
}
