package bits

import (
	"testing"
)

func TestCombine(t *testing.T) {
	tests := []struct {
		high, low uint8
		expected  uint16
	}{
		{0xAB, 0xCD, 0xABCD},
		{0x00, 0x00, 0x0000},
		{0xFF, 0xFF, 0xFFFF},
		{0x12, 0x34, 0x1234},
	}

	for _, tt := range tests {
		result := Combine(tt.high, tt.low)
		if result != tt.expected {
			t.Errorf("Combine(%X, %X) = %X; want %X", tt.high, tt.low, result, tt.expected)
		}
	}
}

func TestExtractBits(t *testing.T) {
	tests := []struct {
		value           uint8
		highBit, lowBit uint8
		expected        uint8
	}{
		{0b11010110, 6, 4, 0b101},
		{0b11010110, 7, 0, 0b11010110},
		{0b11010110, 3, 1, 0b011},
		{0xFF, 5, 0, 0x3F},
	}

	for _, tt := range tests {
		result := ExtractBits(tt.value, tt.highBit, tt.lowBit)
		if result != tt.expected {
			t.Errorf("ExtractBits(%08b, %d, %d) = %b; want %b", tt.value, tt.highBit, tt.lowBit, result, tt.expected)
		}
	}
}

func TestLE16(t *testing.T) {
	tests := []struct {
		data     []byte
		expected uint16
	}{
		{[]byte{0x34, 0x12}, 0x1234},
		{[]byte{0x00, 0x00}, 0x0000},
		{[]byte{0xFF, 0xFF}, 0xFFFF},
	}

	for _, tt := range tests {
		result := LE16(tt.data)
		if result != tt.expected {
			t.Errorf("LE16(%v) = %X; want %X", tt.data, result, tt.expected)
		}
	}
}

func TestLE24(t *testing.T) {
	tests := []struct {
		data     []byte
		expected uint32
	}{
		{[]byte{0x56, 0x34, 0x12}, 0x123456},
		{[]byte{0x02, 0x00, 0x00}, 2},
		{[]byte{0xFF, 0xFF, 0xFF}, 0xFFFFFF},
	}

	for _, tt := range tests {
		result := LE24(tt.data)
		if result != tt.expected {
			t.Errorf("LE24(%v) = %X; want %X", tt.data, result, tt.expected)
		}
	}
}

func TestSetClearIsSet(t *testing.T) {
	var v uint8
	v = Set(5, v)
	if !IsSet(5, v) {
		t.Errorf("bit 5 should be set after Set, got %08b", v)
	}
	v = Clear(5, v)
	if IsSet(5, v) {
		t.Errorf("bit 5 should be clear after Clear, got %08b", v)
	}
}
