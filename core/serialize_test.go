package rv32

import "testing"

func TestSerializeRoundTrip(t *testing.T) {
	c, _ := newTestCPU()
	c.SetRegister(5, 0xCAFEBABE)
	c.SetPC(0x1234)
	c.writeCSR(csrMtvec, 0x8000)
	c.cycles = 42

	buf := make([]byte, c.SerializeSize())
	if err := c.Serialize(buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	other, _ := newTestCPU()
	if err := other.Deserialize(buf); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	if other.Register(5) != 0xCAFEBABE {
		t.Fatalf("x5 = %#x after round trip", other.Register(5))
	}
	if other.PC() != 0x1234 {
		t.Fatalf("PC = %#x after round trip", other.PC())
	}
	if v, _ := other.readCSR(csrMtvec); v != 0x8000 {
		t.Fatalf("mtvec = %#x after round trip", v)
	}
	if other.Cycles() != 42 {
		t.Fatalf("cycles = %d after round trip", other.Cycles())
	}
}

func TestSerializeBufferTooSmall(t *testing.T) {
	c, _ := newTestCPU()
	if err := c.Serialize(make([]byte, 4)); err == nil {
		t.Fatalf("expected error for undersized buffer")
	}
	if err := c.Deserialize(make([]byte, 4)); err == nil {
		t.Fatalf("expected error for undersized buffer")
	}
}

func TestDeserializeVersionMismatch(t *testing.T) {
	c, _ := newTestCPU()
	buf := make([]byte, c.SerializeSize())
	c.Serialize(buf)
	buf[0] = 0xff
	if err := c.Deserialize(buf); err == nil {
		t.Fatalf("expected version mismatch error")
	}
}
