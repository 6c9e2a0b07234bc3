package bytecode

import "testing"

func TestChunkWriteKeepsCodeAndLinesInSync(t *testing.T) {
	var c Chunk
	c.Write(byte(OpNil), 1)
	c.Write(byte(OpReturn), 1)

	if len(c.Code) != len(c.Lines) {
		t.Fatalf("len(Code)=%d, len(Lines)=%d, want equal", len(c.Code), len(c.Lines))
	}
}

func TestAddConstantDeduplicates(t *testing.T) {
	var c Chunk
	i1 := c.AddConstant(Number(42))
	i2 := c.AddConstant(Number(42))

	if i1 != i2 {
		t.Errorf("AddConstant(42) twice returned different indices: %d, %d", i1, i2)
	}
	if len(c.Constants) != 1 {
		t.Errorf("constants pool length = %d, want 1", len(c.Constants))
	}
}

func TestAddConstantDistinguishesValues(t *testing.T) {
	var c Chunk
	i1 := c.AddConstant(Number(1))
	i2 := c.AddConstant(Number(2))
	if i1 == i2 {
		t.Errorf("distinct values got the same constant index")
	}
}

func TestUint24RoundTrip(t *testing.T) {
	var c Chunk
	c.WriteUint24(65000, 1)
	got := ReadUint24(c.Code, 0)
	if got != 65000 {
		t.Errorf("ReadUint24 = %d, want 65000", got)
	}
}

func TestOpCodeString(t *testing.T) {
	if OpConstant.String() != "OP_CONSTANT" {
		t.Errorf("OpConstant.String() = %q", OpConstant.String())
	}
}
